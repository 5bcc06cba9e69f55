// Package serial opens the device link with fixed line settings:
// 8 data bits, no parity, 1 stop bit, no flow control, blocking reads without timeout.
package serial

import (
	"io"

	"github.com/juju/errors"
)

const (
	DefaultBaud   = 9600
	DefaultDevice = "/dev/ttyACM0"

	DriverTarm = "tarm"
	DriverFile = "file"
)

var ErrClosed = errors.New("serial link closed")

type Config struct {
	Device string
	Baud   int
	Driver string // tarm|file
}

// Link is exclusively owned by one relay loop.
type Link interface {
	io.ReadWriteCloser
	// Flush discards unread input and unsent output.
	Flush() error
}

func (c Config) withDefaults() Config {
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	if c.Driver == "" {
		c.Driver = DriverTarm
	}
	return c
}

func Open(c Config) (Link, error) {
	c = c.withDefaults()
	var link Link
	var err error
	switch c.Driver {
	case DriverTarm:
		link, err = openTarm(c)
	case DriverFile:
		link, err = openFile(c)
	default:
		return nil, errors.NotSupportedf("serial driver=%s", c.Driver)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "serial open device=%s driver=%s baud=%d", c.Device, c.Driver, c.Baud)
	}
	return link, nil
}
