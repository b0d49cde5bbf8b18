package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	tok, err := NewToken()
	require.NoError(t, err)

	assert.Len(t, tok.Lookup, 36)
	assert.Len(t, tok.Secret, SecretLength)
	assert.NotEqual(t, tok.Lookup, tok.Secret)
	assert.False(t, strings.Contains(tok.Lookup, Separator))
	assert.False(t, strings.Contains(tok.Secret, Separator))

	parsed, err := ParseToken(tok.String())
	require.NoError(t, err)
	assert.Equal(t, tok, parsed)
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    Token
		wantErr bool
	}{
		{name: "valid", value: "aaa_bbb", want: Token{Lookup: "aaa", Secret: "bbb"}},
		{name: "empty", value: "", wantErr: true},
		{name: "no separator", value: "aaabbb", wantErr: true},
		{name: "empty lookup", value: "_bbb", wantErr: true},
		{name: "empty secret", value: "aaa_", wantErr: true},
		{name: "extra separator", value: "aaa_bbb_ccc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseToken(tt.value)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupKey(t *testing.T) {
	assert.Equal(t, "aaa", LookupKey("aaa_bbb"))
	assert.Equal(t, "aaa", LookupKey("aaa"))
	assert.Equal(t, "", LookupKey("_bbb"))
}
