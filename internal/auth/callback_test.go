package auth

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/apperror"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseCallbackCode(t *testing.T) {
	tests := []struct {
		name    string
		request string
		want    string
		wantOK  bool
	}{
		{"plain code", "GET /callback?code=ABC123 HTTP/1.1", "ABC123", true},
		{"trailing parameters", "GET /callback?code=XYZ&state=foo HTTP/1.1", "XYZ", true},
		{"full request", "GET /callback?code=a1b2 HTTP/1.1\r\nHost: localhost:5000\r\n\r\n", "a1b2", true},
		{"empty code", "GET /callback?code= HTTP/1.1", "", true},
		{"code at end of input", "GET /callback?code=END", "END", true},
		{"other path", "GET /favicon.ico HTTP/1.1", "", false},
		{"code not first parameter", "GET /callback?state=foo&code=XYZ HTTP/1.1", "", false},
		{"post request", "POST /callback?code=XYZ HTTP/1.1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCallbackCode(tt.request)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallbackServer_ignoresOtherRequests(t *testing.T) {
	srv, err := listenCallback("127.0.0.1:0", discardLogger())
	require.NoError(t, err)
	srv.serve()
	addr := srv.Addr().String()

	// A speculative connection that never sends anything.
	idle, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, idle.Close())

	// A request for another path gets no response at all.
	other, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, err = io.WriteString(other, "GET /favicon.ico HTTP/1.1\r\nHost: localhost\r\n\r\n")
	require.NoError(t, err)
	reply, err := io.ReadAll(other)
	require.NoError(t, err)
	assert.Empty(t, reply)
	require.NoError(t, other.Close())

	resp, err := http.Get("http://" + addr + "/callback?code=uhlU7Fvq5NwLwBwk&state=abc")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Authorization successful. You may close this window.", string(body))

	code, err := srv.await()
	require.NoError(t, err)
	assert.Equal(t, "uhlU7Fvq5NwLwBwk", code)

	// One attempt per listener: the port is released afterwards.
	_, err = net.Dial("tcp", addr)
	assert.Error(t, err)
}

func TestListenCallback_portInUse(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	_, err = listenCallback(busy.Addr().String(), discardLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrCallbackListenFailed))
}
