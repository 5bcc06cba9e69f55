package relay

import (
	"bufio"
	"bytes"
	"io"
)

const minFrameBuffer = 16

// LineReader pulls newline-terminated frames from the serial byte stream.
type LineReader struct {
	r *bufio.Reader
}

// maxFrame includes line terminator.
func NewLineReader(r io.Reader, maxFrame int) *LineReader {
	if maxFrame < minFrameBuffer {
		maxFrame = minFrameBuffer
	}
	return &LineReader{r: bufio.NewReaderSize(r, maxFrame)}
}

// ReadFrame blocks until a full line is available.
// Returned slice is a copy without "\n" or "\r\n".
// Oversized line is discarded up to its newline and reported as MalformedRecord.
// Any read error is LinkFailure, a partial line before EOF is dropped.
func (self *LineReader) ReadFrame() ([]byte, error) {
	line, err := self.r.ReadSlice('\n')
	switch err {
	case nil:
	case bufio.ErrBufferFull:
		for err == bufio.ErrBufferFull {
			_, err = self.r.ReadSlice('\n')
		}
		if err != nil {
			return nil, NewError(KindLinkFailure, err)
		}
		return nil, NewError(KindMalformedRecord, ErrFrameTooLong)
	default:
		return nil, NewError(KindLinkFailure, err)
	}

	line = bytes.TrimSuffix(line, []byte{'\n'})
	line = bytes.TrimSuffix(line, []byte{'\r'})
	frame := make([]byte, len(line))
	copy(frame, line)
	return frame, nil
}
