package helpers

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkWriter accepts at most max bytes per call, then fails with err after budget calls.
type chunkWriter struct {
	buf    bytes.Buffer
	max    int
	budget int
	err    error
}

func (self *chunkWriter) Write(p []byte) (int, error) {
	if self.budget == 0 {
		return 0, self.err
	}
	self.budget--
	if len(p) > self.max {
		p = p[:self.max]
	}
	return self.buf.Write(p)
}

func TestWriteAll(t *testing.T) {
	t.Parallel()
	errBroken := errors.New("broken pipe")
	frame := []byte(`{"isFrozen":1}` + "\n")

	cases := []struct {
		name   string
		w      *chunkWriter
		expect string
		err    error
	}{
		{"single", &chunkWriter{max: 64, budget: -1}, string(frame), nil},
		{"short-writes", &chunkWriter{max: 3, budget: -1}, string(frame), nil},
		{"one-byte", &chunkWriter{max: 1, budget: -1}, string(frame), nil},
		{"fail-midway", &chunkWriter{max: 4, budget: 2, err: errBroken}, string(frame[:8]), errBroken},
		{"zero-progress", &chunkWriter{max: 0, budget: -1}, "", io.ErrShortWrite},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			err := WriteAll(c.w, frame)
			if c.err != nil {
				require.Error(t, err)
				assert.Equal(t, c.err, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, c.expect, c.w.buf.String())
		})
	}
}

func TestWriteAllEmpty(t *testing.T) {
	t.Parallel()
	w := &chunkWriter{max: 0, budget: 0, err: errors.New("must not be called")}
	assert.NoError(t, WriteAll(w, nil))
}
