package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretEqual(t *testing.T) {
	tok, err := NewToken()
	require.NoError(t, err)
	secret := tok.Secret

	assert.True(t, SecretEqual(secret, secret))

	tests := []struct {
		name      string
		presented string
	}{
		{"empty", ""},
		{"truncated", secret[:SecretLength-1]},
		{"extended", secret + "0"},
		{"prefix match with padding", secret[:SecretLength-1] + "\x00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, SecretEqual(secret, tt.presented))
		})
	}
}

// Flipping any single byte of the secret, at any position, must fail.
func TestSecretEqualTamperAnyPosition(t *testing.T) {
	tok, err := NewToken()
	require.NoError(t, err)

	for i := 0; i < SecretLength; i++ {
		tampered := []byte(tok.Secret)
		tampered[i] ^= 0x01
		assert.False(t, SecretEqual(tok.Secret, string(tampered)), "position %d", i)
	}
}

func TestSecretEqualBothWrongLength(t *testing.T) {
	assert.False(t, SecretEqual("short", "short"))
	assert.False(t, SecretEqual("", ""))
}
