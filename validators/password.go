package validators

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordInvalid  = errors.New("password contains invalid characters")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordEmpty    = errors.New("no password provided")
)

// bcrypt only looks at the first 72 bytes and refuses anything longer
const maxPasswordBytes = 72

func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if !utf8.ValidString(p) {
		return ErrPasswordInvalid
	}

	for _, r := range p {
		if unicode.IsControl(r) {
			return ErrPasswordInvalid
		}
	}

	if utf8.RuneCountInString(p) < 8 {
		return ErrPasswordTooShort
	}

	if len(p) > maxPasswordBytes {
		return ErrPasswordTooLong
	}

	return nil
}
