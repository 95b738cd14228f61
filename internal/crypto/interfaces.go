// Package crypto holds the password hashing functions and the random
// generators used for session ids and one-time codes.
package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/crypto_mock.go -package=mock

// PasswordHasher hashes and verifies user passwords.
//
// Hash output is self-describing (bcrypt or PHC string), so Verify needs
// no extra parameters.
type PasswordHasher interface {
	// Hash returns the encoded hash of password.
	Hash(password string) (string, error)

	// Verify reports whether password matches encodedHash. A malformed
	// hash never matches.
	Verify(password, encodedHash string) bool
}
