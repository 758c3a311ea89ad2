package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredentials           = errors.New("client id or client secret not set")
	ErrBrowserLaunchFailed          = errors.New("failed to open browser for authorization")
	ErrCallbackListenFailed         = errors.New("failed to listen for the authorization callback")
	ErrCallbackReadFailed           = errors.New("failed to read the authorization callback")
	ErrTokenExchangeRejected        = errors.New("token exchange rejected")
	ErrOrganizationResolutionFailed = errors.New("no organization found")
	ErrNoUpcomingEvent              = errors.New("no upcoming event")
	ErrTransport                    = errors.New("transport error")
	ErrParse                        = errors.New("parse error")
)

// TokenExchangeError is returned when the token endpoint answers with a
// non-success status. Body holds the raw response for diagnostics.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("failed to exchange token (status %d): %s", e.StatusCode, e.Body)
}

func (e *TokenExchangeError) Is(target error) bool {
	return target == ErrTokenExchangeRejected
}

// Transport wraps err as a transport failure of the named operation.
func Transport(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}

// Parse wraps err as a decoding failure of the named operation.
func Parse(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrParse, err)
}
