package serial

import (
	"io"
	"sync/atomic"
	"time"
)

// pollInterval is the kernel read timeout (termios VTIME) of real drivers.
// It bounds how long Close waits for a pending Read to notice.
const pollInterval = 100 * time.Millisecond

// vtime is pollInterval in termios deciseconds.
const vtime = uint8(pollInterval / (100 * time.Millisecond))

// polledReader blocks like VMIN=1 on top of a VMIN=0 VTIME>0 tty:
// empty timed-out reads are retried until data arrives or link is closed.
type polledReader struct {
	r      io.Reader
	closed atomic.Bool
}

func (self *polledReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if self.closed.Load() {
			return 0, ErrClosed
		}
		start := time.Now()
		n, err := self.r.Read(p)
		switch {
		case n > 0:
			return n, err
		case self.closed.Load():
			return 0, ErrClosed
		case (err == nil || err == io.EOF) && time.Since(start) >= pollInterval/2:
			// VTIME expired, os.File reports empty tty read as EOF
			continue
		case err == nil:
			// immediate empty read means hangup
			err = io.EOF
		}
		return 0, err
	}
}

func (self *polledReader) close() { self.closed.Store(true) }
