package serial

import (
	"os"
	"syscall"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

type fileLink struct {
	*os.File
	reader *polledReader
}

var bauds = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

func openFile(c Config) (Link, error) {
	speed, ok := bauds[c.Baud]
	if !ok {
		return nil, errors.NotSupportedf("baud=%d", c.Baud)
	}
	f, err := os.OpenFile(c.Device, syscall.O_RDWR|syscall.O_NOCTTY, 0600)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err = resetTermios(int(f.Fd()), speed); err != nil {
		f.Close()
		return nil, errors.Annotate(err, "termios")
	}
	return &fileLink{File: f, reader: &polledReader{r: f}}, nil
}

// raw 8N1, no software or hardware flow control, VMIN=0 VTIME=pollInterval
func resetTermios(fd int, speed uint32) error {
	t := unix.Termios{
		Iflag:  unix.IGNPAR,
		Cflag:  unix.CS8 | unix.CREAD | unix.CLOCAL | speed,
		Ispeed: speed,
		Ospeed: speed,
	}
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = vtime
	// TCSETSF flushes input and output before applying
	return unix.IoctlSetTermios(fd, unix.TCSETSF, &t)
}

func (self *fileLink) Read(p []byte) (int, error) { return self.reader.Read(p) }

func (self *fileLink) Flush() error {
	return unix.IoctlSetInt(int(self.Fd()), unix.TCFLSH, unix.TCIOFLUSH)
}

// Close makes pending Read return ErrClosed within pollInterval.
func (self *fileLink) Close() error {
	self.reader.close()
	return self.File.Close()
}
