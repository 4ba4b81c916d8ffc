package cookie

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	service = "vidfetch"
	user    = "cookie"
)

// Save persists the raw cookie string to the system keyring.
func Save(raw string) error {
	return keyring.Set(service, user, strings.TrimSpace(raw))
}

// Load retrieves the saved cookie string. A missing entry is not an error.
func Load() (string, error) {
	raw, err := keyring.Get(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return raw, err
}

// Delete removes the saved cookie string. Deleting a missing entry is not an error.
func Delete() error {
	err := keyring.Delete(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
