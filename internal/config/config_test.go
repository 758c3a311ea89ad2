package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/apperror"
)

func TestLoad_missingFileIsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoad_malformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	cfg, err := NewStore(path).Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrParse))
	require.NotNil(t, cfg)
	assert.False(t, cfg.HasClientCredentials())
}

func TestLoad_partialDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client_id":"abc"}`), 0o600))

	cfg, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.ClientID)
	assert.Empty(t, cfg.ClientSecret)
	assert.Nil(t, cfg.Token)
	assert.False(t, cfg.HasClientCredentials())
}

func TestLoad_tokenWithoutTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"token_info":{"access_token":"tok"}}`), 0o600))

	cfg, err := NewStore(path).Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.Token)
	assert.Equal(t, int64(0), cfg.Token.CreatedAt)
	assert.False(t, cfg.Token.ValidAt(time.Now()))
}

func TestSave_thenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	store := NewStore(path)
	issued := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)

	want := &Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Token:        NewTokenRecord("tok", issued),
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestTokenRecord_ValidAt(t *testing.T) {
	issued := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	record := NewTokenRecord("tok", issued)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"just issued", issued, true},
		{"59 minutes later", issued.Add(59 * time.Minute), true},
		{"one second before expiry", issued.Add(TokenTTL - time.Second), true},
		{"exactly one hour", issued.Add(TokenTTL), false},
		{"two hours later", issued.Add(2 * time.Hour), false},
		{"issued in the future", issued.Add(-time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, record.ValidAt(tt.now))
		})
	}

	var missing *TokenRecord
	assert.False(t, missing.ValidAt(issued))
}

func TestRedacted(t *testing.T) {
	cfg := &Config{ClientID: "id", ClientSecret: "supersecret", Token: &TokenRecord{AccessToken: "abc", CreatedAt: 1}}

	red := cfg.Redacted()
	assert.Equal(t, "id", red.ClientID)
	assert.Equal(t, "supe****", red.ClientSecret)
	assert.Equal(t, "****", red.Token.AccessToken)
	assert.Equal(t, "abc", cfg.Token.AccessToken, "original must be untouched")
}

func TestDefaultPath_env(t *testing.T) {
	want := filepath.Join(t.TempDir(), "custom.json")
	t.Setenv(EnvPath, want)

	got, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
