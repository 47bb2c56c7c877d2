package identity

import "strings"

// UsernameMaxLength bounds the username value object.
const UsernameMaxLength = 100

// Username wraps the authenticated principal's name. Construction is the
// single enforcement point: a Username in circulation is always valid.
type Username struct {
	value string
}

// NewUsername validates and wraps a raw username.
func NewUsername(value string) (Username, error) {
	if strings.TrimSpace(value) == "" {
		return Username{}, NewMissingField("username")
	}
	if len(value) > UsernameMaxLength {
		return Username{}, NewTooLong("username", UsernameMaxLength)
	}
	return Username{value: value}, nil
}

// MaybeUsername is the probe form of NewUsername: blank input yields
// ok=false instead of an error. Over-long input still fails construction.
func MaybeUsername(value string) (Username, bool) {
	username, err := NewUsername(value)
	if err != nil {
		return Username{}, false
	}
	return username, true
}

// String returns the wrapped value.
func (u Username) String() string {
	return u.value
}
