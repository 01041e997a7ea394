package auth

import (
	"errors"
	"fmt"
	"strings"
)

// TokenStore keeps the X API bearer token
type TokenStore interface {
	// Name identifies the store in messages
	Name() string

	// Store saves the token
	Store(token string) error

	// Retrieve returns the saved token or ErrTokenNotFound
	Retrieve() (string, error)

	// Delete removes the saved token
	Delete() error
}

// Source names where a resolved token came from
type Source string

const (
	SourceConfig Source = "config"
)

// Manager resolves the bearer token from the configuration and a chain of
// stores
type Manager struct {
	stores []TokenStore
}

// NewManager uses the environment first, then the system keychain when one
// is available
func NewManager() *Manager {
	stores := []TokenStore{NewEnvironmentStore()}
	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}
	return &Manager{stores: stores}
}

// NewManagerWithStores creates a Manager over the given stores, in lookup
// order
func NewManagerWithStores(stores ...TokenStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves token in the first store that accepts it
func (m *Manager) Store(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(token)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Resolve returns configured when it is set, otherwise the first token a
// store holds
func (m *Manager) Resolve(configured string) (string, Source, error) {
	if token := strings.TrimSpace(configured); token != "" {
		return token, SourceConfig, nil
	}

	for _, store := range m.stores {
		if token, err := store.Retrieve(); err == nil && token != "" {
			return token, Source(store.Name()), nil
		}
	}
	return "", "", ErrTokenNotFound
}

// Delete removes the token from every store that supports it
func (m *Manager) Delete() error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	if !deleted {
		return ErrTokenNotFound
	}
	return nil
}

// MaskToken masks all but the first 4 and last 4 characters of a token
func MaskToken(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrTokenNotFound    = errors.New("bearer token not found")
	ErrInvalidToken     = errors.New("bearer token is empty")
	ErrStoreUnavailable = errors.New("token store unavailable")
)
