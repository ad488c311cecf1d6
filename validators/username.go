package validators

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

var (
	ErrUsernameLength  = errors.New("username must be between 2 and 50 characters long")
	ErrUsernameInvalid = errors.New("username may only contain letters, digits, '.', '_' and '-'")
)

func UsernameValidator(u string) error {
	if n := utf8.RuneCountInString(u); n < 2 || n > 50 {
		return ErrUsernameLength
	}

	for _, r := range u {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-' {
			continue
		}

		return ErrUsernameInvalid
	}

	return nil
}
