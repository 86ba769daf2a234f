package cryptox

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	for _, p := range []string{"secret123", "", "пароль", strings.Repeat("x", 1024)} {
		digest, err := HashPassword(p)
		require.NoError(t, err)
		assert.True(t, VerifyPassword(p, digest), "password %q must verify", p)
	}
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	digest, err := HashPassword("secret123")
	require.NoError(t, err)

	assert.False(t, VerifyPassword("secret124", digest))
	assert.False(t, VerifyPassword("", digest))
	assert.False(t, VerifyPassword("Secret123", digest))
}

func TestHashPassword_SaltIsFresh(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashPassword_Format(t *testing.T) {
	digest, err := HashPassword("secret123")
	require.NoError(t, err)

	parts := strings.Split(digest, ".")
	require.Len(t, parts, 2)

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.Len(t, salt, SaltSize)

	key, err := base64.StdEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	assert.Len(t, key, KeySize)
}

// A digest produced with the stored parameters must keep verifying.
func TestVerifyPassword_KnownParameters(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, SaltSize)
	key := pbkdf2.Key([]byte("secret123"), salt, 10000, 32, sha256.New)
	digest := base64.StdEncoding.EncodeToString(salt) + "." + base64.StdEncoding.EncodeToString(key)

	assert.True(t, VerifyPassword("secret123", digest))
}

func TestVerifyPassword_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		digest string
	}{
		{"empty", ""},
		{"no separator", "c2FsdHNhbHRzYWx0c2FsdA=="},
		{"three parts", "a.b.c"},
		{"bad salt base64", "!!!.AAAA"},
		{"bad key base64", "c2FsdA==.!!!"},
		{"empty salt", ".AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="},
		{"short key", "c2FsdA==.AAAA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, VerifyPassword("secret123", tt.digest))
			})
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestHashPassword_RandFailure(t *testing.T) {
	orig := randReader
	randReader = failingReader{}
	t.Cleanup(func() { randReader = orig })

	_, err := HashPassword("secret123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
}

func TestPBKDF2Hasher(t *testing.T) {
	var h PBKDF2Hasher
	digest, err := h.Hash("pw")
	require.NoError(t, err)
	assert.True(t, h.Verify("pw", digest))
	assert.False(t, h.Verify("nope", digest))
}
