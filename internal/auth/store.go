// internal/auth/store.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "homeharvest"
	// FallbackDir is the directory for file-based token storage (when keyring fails)
	FallbackDir = ".homeharvest/tokens"
	// RealtorTokenName is the key under which the realtor.com token is stored
	RealtorTokenName = "realtor.com"
	// DefaultTokenTTL bounds how long a persisted token is reused
	DefaultTokenTTL = 12 * time.Hour
)

// ErrTokenNotFound is returned when no token is stored under a name
var ErrTokenNotFound = errors.New("token not found")

// StoredToken is a persisted bearer token
type StoredToken struct {
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the token is past its expiry
func (t *StoredToken) Expired() bool {
	return !t.ExpiresAt.IsZero() && time.Now().After(t.ExpiresAt)
}

// TokenStore persists tokens between runs
type TokenStore interface {
	Load(name string) (*StoredToken, error)
	Save(token *StoredToken) error
	Delete(name string) error
}

// KeyringStore keeps tokens in the OS keyring, falling back to files
// under the home directory where no keyring is available (Codespaces, CI).
type KeyringStore struct {
	Service string
	Dir     string

	once     sync.Once
	fileOnly bool
}

// NewKeyringStore creates a store that prefers the OS keyring
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{Service: KeyringService}
}

// NewFileStore creates a store that only uses files in dir
func NewFileStore(dir string) *KeyringStore {
	s := &KeyringStore{Service: KeyringService, Dir: dir, fileOnly: true}
	s.once.Do(func() {})
	return s
}

func (s *KeyringStore) useFileBasedStorage() bool {
	s.once.Do(func() {
		if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
			s.fileOnly = true
			return
		}
		testKey := "_test_keyring_access_"
		if err := keyring.Set(s.Service, testKey, "test"); err != nil {
			s.fileOnly = true
			return
		}
		_ = keyring.Delete(s.Service, testKey)
	})
	return s.fileOnly
}

func (s *KeyringStore) tokenDir() (string, error) {
	dir := s.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, FallbackDir)
	}
	return dir, os.MkdirAll(dir, 0700)
}

func (s *KeyringStore) tokenPath(name string) (string, error) {
	dir, err := s.tokenDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".json"), nil
}

// Save stores a token in the OS keyring or file
func (s *KeyringStore) Save(token *StoredToken) error {
	if token == nil || token.Name == "" {
		return fmt.Errorf("token name cannot be empty")
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to serialize token: %w", err)
	}

	if s.useFileBasedStorage() {
		path, err := s.tokenPath(token.Name)
		if err != nil {
			return fmt.Errorf("failed to get token path: %w", err)
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to save token file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(s.Service, token.Name, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// Load reads a token from the OS keyring or file
func (s *KeyringStore) Load(name string) (*StoredToken, error) {
	if name == "" {
		return nil, fmt.Errorf("token name cannot be empty")
	}

	var data string
	if s.useFileBasedStorage() {
		path, err := s.tokenPath(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get token path: %w", err)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, ErrTokenNotFound
			}
			return nil, fmt.Errorf("failed to load token file: %w", err)
		}
		data = string(raw)
	} else {
		var err error
		data, err = keyring.Get(s.Service, name)
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, ErrTokenNotFound
			}
			return nil, fmt.Errorf("failed to load from keyring: %w", err)
		}
	}

	var token StoredToken
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to deserialize token: %w", err)
	}
	return &token, nil
}

// Delete removes a token. Missing tokens are not an error.
func (s *KeyringStore) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("token name cannot be empty")
	}

	if s.useFileBasedStorage() {
		path, err := s.tokenPath(name)
		if err != nil {
			return fmt.Errorf("failed to get token path: %w", err)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete token file: %w", err)
		}
		return nil
	}

	if err := keyring.Delete(s.Service, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// CachedSource reuses a persisted token while it is fresh and persists
// newly exchanged ones. Storage failures only cost an extra exchange.
type CachedSource struct {
	Source TokenSource
	Store  TokenStore
	Name   string
	TTL    time.Duration
}

// Token implements TokenSource
func (c *CachedSource) Token(ctx context.Context) (string, error) {
	name := c.Name
	if name == "" {
		name = RealtorTokenName
	}

	if stored, err := c.Store.Load(name); err == nil && stored.Token != "" && !stored.Expired() {
		log.Debug().Str("name", name).Msg("Using persisted token")
		return stored.Token, nil
	} else if err != nil && !errors.Is(err, ErrTokenNotFound) {
		log.Warn().Err(err).Str("name", name).Msg("Failed to load persisted token")
	}

	token, err := c.Source.Token(ctx)
	if err != nil {
		return "", err
	}

	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	if err := c.Store.Save(&StoredToken{Name: name, Token: token, CreatedAt: now, ExpiresAt: now.Add(ttl)}); err != nil {
		log.Warn().Err(err).Str("name", name).Msg("Failed to persist token")
	}
	return token, nil
}
