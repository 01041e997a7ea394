package auth

import "os"

// EnvVars are checked in order. TWITTER_BEARER_TOKEN is the name the hosted
// function used.
var EnvVars = []string{"XFOLLOWERS_BEARER_TOKEN", "TWITTER_BEARER_TOKEN"}

// EnvironmentStore reads the token from environment variables. It is
// read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-backed store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Name() string { return "environment" }

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(string) error {
	return ErrStoreUnavailable
}

// Retrieve returns the first non-empty variable of EnvVars
func (e *EnvironmentStore) Retrieve() (string, error) {
	for _, name := range EnvVars {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}
	return "", ErrTokenNotFound
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete() error {
	return ErrStoreUnavailable
}
