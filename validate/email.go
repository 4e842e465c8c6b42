package validate

import (
	"errors"
	"regexp"
)

// ErrEmailFormat is returned for addresses that do not match the accepted grammar.
var ErrEmailFormat = errors.New("invalid email format")

const maxEmailLength = 254

// Local part per the WHATWG form grammar; the domain must contain at least one dot.
var emailPattern = regexp.MustCompile(
	"^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+" +
		"@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?" +
		"(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$",
)

// Email checks that address is a conventional email address.
func Email(address string) error {
	if address == "" || len(address) > maxEmailLength {
		return ErrEmailFormat
	}
	if !emailPattern.MatchString(address) {
		return ErrEmailFormat
	}
	return nil
}
