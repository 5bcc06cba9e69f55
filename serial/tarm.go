package serial

import (
	"github.com/juju/errors"
	"github.com/tarm/serial"
)

type tarmLink struct {
	port   *serial.Port
	reader *polledReader
}

func openTarm(c Config) (Link, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:     c.Device,
		Baud:     c.Baud,
		Size:     serial.DefaultSize,
		Parity:   serial.ParityNone,
		StopBits: serial.Stop1,
		// VMIN=0 VTIME>0, polledReader keeps Read blocking for caller
		ReadTimeout: pollInterval,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &tarmLink{port: port, reader: &polledReader{r: port}}, nil
}

func (self *tarmLink) Read(p []byte) (int, error)  { return self.reader.Read(p) }
func (self *tarmLink) Write(p []byte) (int, error) { return self.port.Write(p) }
func (self *tarmLink) Flush() error                { return self.port.Flush() }

// Close makes pending Read return ErrClosed within pollInterval.
func (self *tarmLink) Close() error {
	self.reader.close()
	return self.port.Close()
}
