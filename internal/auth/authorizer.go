package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"

	"rollcall/internal/apperror"
	"rollcall/internal/config"
)

const (
	eventbriteAuthURL  = "https://www.eventbrite.com/oauth/authorize"
	eventbriteTokenURL = "https://www.eventbrite.com/oauth/token"
	// RedirectURL must match the redirect URI of the app registration exactly.
	RedirectURL = "http://localhost:5000/callback"
	// CallbackAddr is where the redirect lands.
	CallbackAddr = "127.0.0.1:5000"
)

// Authorizer runs the OAuth2 authorization-code grant against Eventbrite:
// it opens the browser, waits for the redirect on a local listener and
// exchanges the code for an access token.
type Authorizer struct {
	AuthURL     string
	TokenURL    string
	RedirectURL string
	ListenAddr  string
	// OpenBrowser launches the user's browser on url.
	OpenBrowser func(url string) error
	// HTTPClient is used for the token exchange. nil means http.DefaultClient.
	HTTPClient *http.Client
	Clock      clockwork.Clock

	logger *slog.Logger
}

// NewAuthorizer returns an Authorizer wired to Eventbrite and the fixed
// local callback.
func NewAuthorizer(logger *slog.Logger) *Authorizer {
	return &Authorizer{
		AuthURL:     eventbriteAuthURL,
		TokenURL:    eventbriteTokenURL,
		RedirectURL: RedirectURL,
		ListenAddr:  CallbackAddr,
		OpenBrowser: browser.OpenURL,
		Clock:       clockwork.NewRealClock(),
		logger:      logger,
	}
}

func (a *Authorizer) oauthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  a.RedirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.AuthURL,
			TokenURL:  a.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Authorize runs the whole flow and returns a freshly issued token record.
// It blocks until the browser redirect arrives; there is no timeout.
// Persisting the record is left to the caller.
func (a *Authorizer) Authorize(ctx context.Context, clientID, clientSecret string) (*config.TokenRecord, error) {
	if clientID == "" || clientSecret == "" {
		a.logger.Error("Client credentials not set", "clientIDSet", clientID != "", "clientSecretSet", clientSecret != "")
		return nil, apperror.ErrMissingCredentials
	}

	oauthConfig := a.oauthConfig(clientID, clientSecret)
	authURL := oauthConfig.AuthCodeURL(uuid.NewString())

	a.logger.Debug("Requesting user authorization", "redirectURL", a.RedirectURL)
	srv, err := listenCallback(a.ListenAddr, a.logger)
	if err != nil {
		a.logger.Error("Failed to bind callback listener", "addr", a.ListenAddr, "error", err)
		return nil, err
	}

	a.logger.Info("Opening browser for authorization")
	if err := a.OpenBrowser(authURL); err != nil {
		_ = srv.close()
		a.logger.Error("Failed to open browser for authorization", "error", err)
		return nil, fmt.Errorf("%w: %w", apperror.ErrBrowserLaunchFailed, err)
	}

	srv.serve()
	code, err := srv.await()
	if err != nil {
		a.logger.Error("Authorization callback failed", "error", err)
		return nil, err
	}
	a.logger.Debug("Authorization code received")

	return a.exchange(ctx, oauthConfig, code)
}

func (a *Authorizer) exchange(ctx context.Context, oauthConfig *oauth2.Config, code string) (*config.TokenRecord, error) {
	a.logger.Debug("Exchanging authorization code for access token")
	if a.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.HTTPClient)
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			exchangeErr := &apperror.TokenExchangeError{Body: string(retrieveErr.Body)}
			if retrieveErr.Response != nil {
				exchangeErr.StatusCode = retrieveErr.Response.StatusCode
			}
			a.logger.Error("Failed to exchange token", "status", exchangeErr.StatusCode, "body", exchangeErr.Body)
			return nil, exchangeErr
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, apperror.Transport("exchange token", err)
		}
		return nil, apperror.Parse("exchange token", err)
	}

	record := config.NewTokenRecord(token.AccessToken, a.Clock.Now())
	a.logger.Info("Token obtained")
	return record, nil
}
