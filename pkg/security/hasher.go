// Package security contains everything related to the security of user data
package security

import (
	"errors"
	"fmt"
	"strings"
)

const (
	KindBcrypt   = "bcrypt"
	KindArgon2id = "argon2id"
)

var ErrUnknownHash = errors.New("unrecognised password hash format")

// Hasher derives salted password hashes and checks candidates against them.
// Compare returns false without an error on a plain mismatch.
type Hasher interface {
	Hash(p string) (string, error)
	Compare(p, encoded string) (bool, error)
}

// NewHasher returns the hasher configured by kind. bcryptCost is ignored for
// argon2id.
func NewHasher(kind string, bcryptCost int) (Hasher, error) {
	switch kind {
	case KindBcrypt, "":
		return NewBcrypt(bcryptCost), nil
	case KindArgon2id:
		return New(), nil
	default:
		return nil, fmt.Errorf("unknown hasher %q", kind)
	}
}

// IsHashed reports whether s is a well-formed encoded hash produced by one of
// the supported hashers. A matching prefix alone isn't enough.
func IsHashed(s string) bool {
	switch {
	case isBcrypt(s):
		return validBcrypt(s)
	case strings.HasPrefix(s, argonPrefix):
		_, err := parseArgon(s)
		return err == nil
	default:
		return false
	}
}

// Verify checks p against encoded, picking the algorithm from the encoded
// prefix. Accounts hashed before a hasher switch keep working.
func Verify(p, encoded string) (bool, error) {
	switch {
	case isBcrypt(encoded):
		return NewBcrypt(DefaultBcryptCost).Compare(p, encoded)
	case strings.HasPrefix(encoded, argonPrefix):
		return New().Compare(p, encoded)
	default:
		return false, ErrUnknownHash
	}
}
