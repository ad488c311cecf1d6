package security

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 10

type Bcrypt struct {
	Cost int
}

// NewBcrypt falls back to DefaultBcryptCost when cost is out of bcrypt's range.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}

	return &Bcrypt{Cost: cost}
}

func (b *Bcrypt) Hash(p string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p), b.Cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func (b *Bcrypt) Compare(p, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(p))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, err
}

const (
	bcryptHashLen  = 60
	bcryptAlphabet = "./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// validBcrypt checks the whole encoding: version, cost and the 53 character
// salt and hash tail.
func validBcrypt(s string) bool {
	if !isBcrypt(s) || len(s) != bcryptHashLen {
		return false
	}

	if _, err := bcrypt.Cost([]byte(s)); err != nil {
		return false
	}

	for _, r := range s[7:] {
		if !strings.ContainsRune(bcryptAlphabet, r) {
			return false
		}
	}

	return true
}
