package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"rollcall/internal/config"
)

// authorizer runs a full authorization. *Authorizer is the real one.
type authorizer interface {
	Authorize(ctx context.Context, clientID, clientSecret string) (*config.TokenRecord, error)
}

// TokenSource hands out bearer tokens, reusing the cached one while it is
// younger than config.TokenTTL and re-authorizing otherwise.
type TokenSource struct {
	store      *config.Store
	authorizer authorizer
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewTokenSource creates a TokenSource persisting tokens in store.
func NewTokenSource(logger *slog.Logger, store *config.Store, a authorizer, clock clockwork.Clock) *TokenSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenSource{store: store, authorizer: a, clock: clock, logger: logger}
}

// ValidToken returns an access token that is not expired. A cached token is
// returned without any network activity.
func (s *TokenSource) ValidToken(ctx context.Context) (string, error) {
	s.logger.Debug("Fetching access token")
	cfg, err := s.store.Load()
	if err != nil {
		s.logger.Warn("Ignoring unreadable config", "path", s.store.Path(), "error", err)
	}

	if cfg.Token.ValidAt(s.clock.Now()) {
		s.logger.Debug("Using cached token", "issuedAt", cfg.Token.IssuedAt())
		return cfg.Token.AccessToken, nil
	}

	record, err := s.authorizer.Authorize(ctx, cfg.ClientID, cfg.ClientSecret)
	if err != nil {
		return "", err
	}

	cfg.Token = record
	if err := s.store.Save(cfg); err != nil {
		return "", fmt.Errorf("failed to cache token: %w", err)
	}
	s.logger.Debug("Access token fetched and cached")
	return record.AccessToken, nil
}
