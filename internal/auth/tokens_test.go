package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/apperror"
	"rollcall/internal/config"
)

// fakeAuthorizer stands in for the browser flow and counts invocations.
type fakeAuthorizer struct {
	calls     int
	gotID     string
	gotSecret string
	token     string
	clock     clockwork.Clock
	err       error
}

func (f *fakeAuthorizer) Authorize(_ context.Context, clientID, clientSecret string) (*config.TokenRecord, error) {
	f.calls++
	f.gotID, f.gotSecret = clientID, clientSecret
	if f.err != nil {
		return nil, f.err
	}
	return config.NewTokenRecord(f.token, f.clock.Now()), nil
}

func newTokenSourceFixture(t *testing.T, cfg *config.Config) (*TokenSource, *fakeAuthorizer, *config.Store, clockwork.FakeClock) {
	t.Helper()
	store := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
	if cfg != nil {
		require.NoError(t, store.Save(cfg))
	}
	clock := clockwork.NewFakeClockAt(issuedAt)
	fake := &fakeAuthorizer{token: "new-token", clock: clock}
	return NewTokenSource(discardLogger(), store, fake, clock), fake, store, clock
}

func TestValidToken_cachedTokenSkipsAuthorization(t *testing.T) {
	src, fake, _, clock := newTokenSourceFixture(t, &config.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Token:        config.NewTokenRecord("cached", issuedAt),
	})
	clock.Advance(59 * time.Minute)

	token, err := src.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", token)
	assert.Equal(t, 0, fake.calls)
}

func TestValidToken_staleTokenReauthorizes(t *testing.T) {
	src, fake, store, clock := newTokenSourceFixture(t, &config.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Token:        config.NewTokenRecord("cached", issuedAt),
	})
	clock.Advance(time.Hour)

	token, err := src.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-token", token)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, "id", fake.gotID)
	assert.Equal(t, "secret", fake.gotSecret)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "id", saved.ClientID)
	assert.Equal(t, "secret", saved.ClientSecret)
	assert.Equal(t, config.NewTokenRecord("new-token", clock.Now()), saved.Token)

	// The renewed token is served from cache on the next call.
	token, err = src.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-token", token)
	assert.Equal(t, 1, fake.calls)
}

func TestValidToken_noTokenAuthorizes(t *testing.T) {
	src, fake, _, _ := newTokenSourceFixture(t, &config.Config{ClientID: "id", ClientSecret: "secret"})

	token, err := src.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-token", token)
	assert.Equal(t, 1, fake.calls)
}

func TestValidToken_authorizationFailureKeepsConfig(t *testing.T) {
	original := &config.Config{
		ClientID: "id",
		Token:    config.NewTokenRecord("old", issuedAt.Add(-2*time.Hour)),
	}
	src, fake, store, _ := newTokenSourceFixture(t, original)
	fake.err = apperror.ErrMissingCredentials

	_, err := src.ValidToken(context.Background())
	assert.True(t, errors.Is(err, apperror.ErrMissingCredentials))

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, original, saved)
}

func TestValidToken_malformedConfigTreatedAsEmpty(t *testing.T) {
	src, fake, store, _ := newTokenSourceFixture(t, nil)
	require.NoError(t, os.WriteFile(store.Path(), []byte("garbage"), 0o600))

	token, err := src.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-token", token)
	assert.Equal(t, 1, fake.calls)
	assert.Empty(t, fake.gotID)
	assert.Empty(t, fake.gotSecret)
}
