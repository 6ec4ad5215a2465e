// Package auth issues and verifies the access tokens that identify the
// acting user on mutating requests.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KeyFileName is the name of the token key file inside the data directory.
const KeyFileName = "token.key"

// LoadOrGenerateKey returns the hex-encoded token key stored in
// <dataPath>/token.key, creating the file with a fresh random key on first
// run.
func LoadOrGenerateKey(dataPath string) (string, error) {
	keyPath := filepath.Join(dataPath, KeyFileName)

	//#nosec G304 -- key path is derived from the configured data path
	data, err := os.ReadFile(keyPath)
	switch {
	case err == nil:
		keyHex := strings.TrimSpace(string(data))
		if err := checkKeyHex(keyHex); err != nil {
			return "", fmt.Errorf("%s: %w", keyPath, err)
		}
		return keyHex, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read token key: %w", err)
	}

	key := make([]byte, keyBytesSize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate token key: %w", err)
	}
	keyHex := hex.EncodeToString(key)

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(keyHex), 0o600); err != nil {
		return "", fmt.Errorf("save token key: %w", err)
	}

	return keyHex, nil
}

func checkKeyHex(keyHex string) error {
	if len(keyHex) != keyHexSize {
		return fmt.Errorf("token key must be %d hex characters, got %d", keyHexSize, len(keyHex))
	}
	if _, err := hex.DecodeString(keyHex); err != nil {
		return fmt.Errorf("token key is not valid hex: %w", err)
	}
	return nil
}
