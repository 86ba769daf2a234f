package cli

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
)

func saveToken(path, token string) error {
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}

// loadToken returns client.ErrNoToken when no token has been saved yet.
func loadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", client.ErrNoToken
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", client.ErrNoToken
	}
	return token, nil
}

func removeToken(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
