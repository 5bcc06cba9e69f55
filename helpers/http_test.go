package helpers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockHTTP(t *testing.T) {
	t.Parallel()

	m := &MockHTTP{
		Header: []byte("HTTP/1.1 503 Service Unavailable\r\nContent-Length: 4\r\n\r\n"),
		Body:   []byte("busy"),
	}
	resp, err := m.Client().Post("http://collector.invalid/api/state", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "busy", string(b))
	require.Len(t, m.Requests, 1)
	assert.Equal(t, http.MethodPost, m.Requests[0].Method)

	m = &MockHTTP{Err: fmt.Errorf("network down")}
	_, err = m.Client().Get("http://collector.invalid/")
	assert.Error(t, err)
}
