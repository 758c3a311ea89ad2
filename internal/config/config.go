package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atrox/homedir"

	"rollcall/internal/apperror"
)

const (
	configFile = ".rollcall_config.json"
	// EnvPath overrides the config file location.
	EnvPath = "ROLLCALL_CONFIG"
	// TokenTTL is how long an access token is trusted after it was issued.
	TokenTTL = time.Hour
)

// Config is the only durable state of the tool. Every field may be absent.
type Config struct {
	ClientID     string       `json:"client_id,omitempty"`
	ClientSecret string       `json:"client_secret,omitempty"`
	Token        *TokenRecord `json:"token_info,omitempty"`
}

// TokenRecord is a cached access token and the moment it was issued.
type TokenRecord struct {
	AccessToken string `json:"access_token"`
	CreatedAt   int64  `json:"created_at"` // Unix seconds
}

// NewTokenRecord stamps accessToken as issued at now.
func NewTokenRecord(accessToken string, now time.Time) *TokenRecord {
	return &TokenRecord{AccessToken: accessToken, CreatedAt: now.Unix()}
}

// IssuedAt returns the issue time.
func (t *TokenRecord) IssuedAt() time.Time {
	return time.Unix(t.CreatedAt, 0)
}

// ValidAt reports whether the token may still be used at now. A record
// issued in the future is treated as stale.
func (t *TokenRecord) ValidAt(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	age := now.Sub(t.IssuedAt())
	return age >= 0 && age < TokenTTL
}

// HasClientCredentials reports whether both client id and secret are set.
func (c *Config) HasClientCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Redacted returns a copy safe to print: the secret and token are masked.
func (c *Config) Redacted() Config {
	out := Config{ClientID: c.ClientID, ClientSecret: mask(c.ClientSecret)}
	if c.Token != nil {
		out.Token = &TokenRecord{AccessToken: mask(c.Token.AccessToken), CreatedAt: c.Token.CreatedAt}
	}
	return out
}

func mask(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:4] + "****"
}

// DefaultPath returns the config file location: $ROLLCALL_CONFIG, or a
// dotfile in the user's home directory.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return homedir.Expand(p)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("unable to find home directory: %w", err)
	}
	return filepath.Join(home, configFile), nil
}

// Store loads and saves Config at a fixed path. It is not safe against
// concurrent writers in other processes.
type Store struct {
	path string
}

// NewStore returns a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the config. It always returns a usable Config: a missing file
// yields an empty one and no error, an unreadable or malformed file yields
// an empty one and an error the caller may choose to ignore.
func (s *Store) Load() (*Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return &Config{}, fmt.Errorf("failed to read config %s: %w", s.path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return &Config{}, apperror.Parse("config "+s.path, err)
	}
	return &cfg, nil
}

// Save writes cfg to a temporary file and renames it over the config.
func (s *Store) Save(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
