package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Separator joins the lookup half and the secret half of a token.
const Separator = "_"

var ErrMalformedToken = errors.New("session: malformed token")

// Token is a split session credential. Lookup is the storage key;
// Secret proves possession and is only ever compared in constant time.
type Token struct {
	Lookup string
	Secret string
}

// NewToken generates two independent random UUIDv4 halves.
func NewToken() (Token, error) {
	a, err := uuid.NewRandom()
	if err != nil {
		return Token{}, fmt.Errorf("session: generate lookup half: %w", err)
	}

	b, err := uuid.NewRandom()
	if err != nil {
		return Token{}, fmt.Errorf("session: generate secret half: %w", err)
	}

	return Token{Lookup: a.String(), Secret: b.String()}, nil
}

// String returns the cookie value.
func (t Token) String() string {
	return t.Lookup + Separator + t.Secret
}

// ParseToken splits a cookie value into its two halves.
func ParseToken(value string) (Token, error) {
	lookup, secret, ok := strings.Cut(value, Separator)
	if !ok || lookup == "" || secret == "" || strings.Contains(secret, Separator) {
		return Token{}, ErrMalformedToken
	}
	return Token{Lookup: lookup, Secret: secret}, nil
}

// LookupKey returns the lookup half of a cookie value without
// requiring the secret half to be present or well formed.
func LookupKey(value string) string {
	lookup, _, _ := strings.Cut(value, Separator)
	return lookup
}
