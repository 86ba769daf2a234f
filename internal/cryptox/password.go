// Package cryptox derives and verifies salted password digests.
//
// A digest is the string base64(salt) + "." + base64(key), where key is
// PBKDF2-HMAC-SHA256 over the password with 10 000 iterations and a 32-byte
// output, and salt is 16 random bytes. The format is stored verbatim in the
// accounts table, so the parameters below are part of the persisted contract.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 128 / 8
	KeySize    = 32
	Iterations = 10000

	separator = "."
)

// randReader is a test seam for the salt source.
var randReader io.Reader = rand.Reader

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}

// HashPassword returns a freshly salted digest of password.
func HashPassword(password string) (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(randReader, salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := deriveKey(password, salt)
	return base64.StdEncoding.EncodeToString(salt) + separator + base64.StdEncoding.EncodeToString(key), nil
}

// VerifyPassword reports whether password matches digest. Any malformed
// digest yields false.
func VerifyPassword(password, digest string) bool {
	parts := strings.Split(digest, separator)
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(salt) == 0 {
		return false
	}
	stored, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(stored) != KeySize {
		return false
	}

	return subtle.ConstantTimeCompare(deriveKey(password, salt), stored) == 1
}

// PBKDF2Hasher adapts the package functions to the services.PasswordHasher
// interface.
type PBKDF2Hasher struct{}

func (PBKDF2Hasher) Hash(password string) (string, error) { return HashPassword(password) }

func (PBKDF2Hasher) Verify(password, digest string) bool { return VerifyPassword(password, digest) }
