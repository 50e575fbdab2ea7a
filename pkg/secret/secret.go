// Package secret provisions the JWT secret shared by the execution and consensus
// nodes for the engine API.
package secret

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the secret file inside the secrets directory.
const FileName = "jwt.hex"

// Size is the secret length in bytes before hex encoding.
const Size = 32

// ErrMalformed is returned by Read for a file that is not 64 hex characters.
var ErrMalformed = errors.New("jwt secret must be 64 hex characters")

// Ensure returns the path of dir/jwt.hex, generating a fresh secret when the
// file does not exist. An existing file is never rewritten.
func Ensure(dir string) (string, error) {
	path := filepath.Join(dir, FileName)

	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat jwt secret: %w", err)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create secrets directory: %w", err)
	}

	key := make([]byte, Size)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate jwt secret: %w", err)
	}

	// O_EXCL keeps a concurrent Ensure from clobbering a secret already in use.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		return path, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to create jwt secret: %w", err)
	}
	if _, err := f.WriteString(hex.EncodeToString(key)); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write jwt secret: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write jwt secret: %w", err)
	}

	return path, nil
}

// Read loads and checks a secret file. A 0x prefix and surrounding whitespace
// are accepted, as both nodes accept them.
func Read(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(strings.TrimSpace(string(raw)), "0x")
	if len(text) != 2*Size {
		return nil, ErrMalformed
	}
	key, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return key, nil
}
