// Package auth stores the backend API token in the system keyring.
package auth

import (
	"errors"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	service = "coursecast"
	user    = "api-token"
)

// EnvToken overrides the keyring, e.g. on headless machines without a secret service.
const EnvToken = "COURSECAST_TOKEN"

// SetToken persists the API token to the system keyring.
func SetToken(token string) error {
	return keyring.Set(service, user, token)
}

// GetToken returns the API token, or "" when the viewer is not logged in.
func GetToken() (string, error) {
	if token, ok := os.LookupEnv(EnvToken); ok {
		return token, nil
	}

	token, err := keyring.Get(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return token, err
}

// DeleteToken removes the API token from the system keyring. Deleting a missing token is not an error.
func DeleteToken() error {
	if err := keyring.Delete(service, user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
