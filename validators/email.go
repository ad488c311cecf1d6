// Package validators contains request-level validators found throughout the
// application that have been abstracted away from the main code
package validators

import (
	"errors"
	"net/mail"
	"unicode/utf8"
)

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailInvalid = errors.New("invalid email address provided")
	ErrEmailLength  = errors.New("email address must be between 5 and 255 characters long")
)

func EmailValidator(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	if n := utf8.RuneCountInString(e); n < 5 || n > 255 {
		return ErrEmailLength
	}

	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e {
		return ErrEmailInvalid
	}

	return nil
}
