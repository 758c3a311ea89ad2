package auth

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"rollcall/internal/apperror"
)

const (
	callbackMarker = "GET /callback?code="
	callbackReply  = "HTTP/1.1 200 OK\r\n\r\nAuthorization successful. You may close this window."
	// A browser redirect fits in one read of this size.
	callbackBufSize = 1024
)

// ParseCallbackCode extracts the authorization code from a raw HTTP request:
// the text after "code=", up to the next whitespace, truncated at the first
// '&'. ok is false when the request is not a callback.
func ParseCallbackCode(request string) (code string, ok bool) {
	if !strings.Contains(request, callbackMarker) {
		return "", false
	}
	start := strings.Index(request, "code=")
	rest := request[start+len("code="):]
	if end := strings.IndexAny(rest, " \t\r\n"); end >= 0 {
		rest = rest[:end]
	}
	code, _, _ = strings.Cut(rest, "&")
	return code, true
}

// callbackResult is what the listener goroutine hands back: a code or the
// reason it gave up.
type callbackResult struct {
	code string
	err  error
}

// callbackServer is a one-shot listener for the OAuth redirect. It serves
// exactly one authorization attempt and then stops listening.
type callbackServer struct {
	listener net.Listener
	result   chan callbackResult
	logger   *slog.Logger
}

// listenCallback binds addr. The returned server does not accept anything
// until serve is called.
func listenCallback(addr string, logger *slog.Logger) (*callbackServer, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrCallbackListenFailed, err)
	}
	return &callbackServer{
		listener: l,
		result:   make(chan callbackResult, 1),
		logger:   logger,
	}, nil
}

// Addr returns the bound address.
func (s *callbackServer) Addr() net.Addr {
	return s.listener.Addr()
}

// serve starts the accept loop on its own goroutine.
func (s *callbackServer) serve() {
	go func() {
		res := s.acceptLoop()
		if err := s.listener.Close(); err != nil {
			s.logger.Debug("Closing callback listener", "error", err)
		}
		s.result <- res
	}()
}

// await blocks until the callback was observed or the listener failed.
// There is no timeout.
func (s *callbackServer) await() (string, error) {
	res := <-s.result
	return res.code, res.err
}

// close releases the listener if serve was never called.
func (s *callbackServer) close() error {
	return s.listener.Close()
}

func (s *callbackServer) acceptLoop() callbackResult {
	s.logger.Debug("Listening for the authorization callback", "addr", s.listener.Addr().String())
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return callbackResult{err: fmt.Errorf("%w: %w", apperror.ErrCallbackReadFailed, err)}
		}
		code, matched, err := s.handle(conn)
		if err != nil {
			return callbackResult{err: err}
		}
		if matched {
			return callbackResult{code: code}
		}
	}
}

// handle reads one request. Requests that are not the callback are dropped
// without a response.
func (s *callbackServer) handle(conn net.Conn) (string, bool, error) {
	defer conn.Close()

	buf := make([]byte, callbackBufSize)
	n, err := conn.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			// Browsers open speculative connections and close them unused.
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %w", apperror.ErrCallbackReadFailed, err)
	}

	code, ok := ParseCallbackCode(string(buf[:n]))
	if !ok {
		s.logger.Debug("Ignoring request on callback listener", "remote", conn.RemoteAddr().String())
		return "", false, nil
	}
	if _, err := io.WriteString(conn, callbackReply); err != nil {
		s.logger.Warn("Failed to answer the authorization callback", "error", err)
	}
	return code, true, nil
}
