package crypto

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
)

// ErrUnknownHasher is returned by NewPasswordHasher for unsupported names.
var ErrUnknownHasher = errors.New("unknown password hasher")

// NewPasswordHasher returns the hasher registered under name
// (see config.PasswordHasherBcrypt and config.PasswordHasherArgon2id).
func NewPasswordHasher(name string) (PasswordHasher, error) {
	switch name {
	case config.PasswordHasherBcrypt, "":
		return NewBcryptHasher(), nil
	case config.PasswordHasherArgon2id:
		return NewArgon2idHasher(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, name)
	}
}
