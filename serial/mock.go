package serial

import (
	"io"
	"sync"
)

// NullLink is Link over arbitrary reader and writer, for tests.
// Close unblocks a pending Read when the reader is *io.PipeReader.
type NullLink struct {
	r io.Reader
	w io.Writer

	mu       sync.Mutex
	closed   bool
	flushes  int
	writeErr error
}

var _ Link = &NullLink{}

func NewNullLink(r io.Reader, w io.Writer) *NullLink {
	return &NullLink{r: r, w: w}
}

func (self *NullLink) Read(p []byte) (int, error) {
	if self.isClosed() {
		return 0, ErrClosed
	}
	n, err := self.r.Read(p)
	if err != nil && self.isClosed() {
		err = ErrClosed
	}
	return n, err
}

func (self *NullLink) Write(p []byte) (int, error) {
	self.mu.Lock()
	closed, werr := self.closed, self.writeErr
	self.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}
	if werr != nil {
		return 0, werr
	}
	return self.w.Write(p)
}

func (self *NullLink) Close() error {
	self.mu.Lock()
	if self.closed {
		self.mu.Unlock()
		return nil
	}
	self.closed = true
	self.mu.Unlock()
	if pr, ok := self.r.(*io.PipeReader); ok {
		_ = pr.CloseWithError(ErrClosed)
	}
	return nil
}

func (self *NullLink) Flush() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.flushes++
	return nil
}

// SetWriteError makes every following Write fail with err.
func (self *NullLink) SetWriteError(err error) {
	self.mu.Lock()
	self.writeErr = err
	self.mu.Unlock()
}

func (self *NullLink) Flushes() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.flushes
}

func (self *NullLink) isClosed() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.closed
}
