// Package keys loads and derives Secure-mode HMAC keys for the CLI and
// services. The codec itself only ever sees a key slice.
package keys

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// Size is the key length produced by Generate and DeriveDeviceKey. Any
// non-empty key is accepted for HMAC-SHA256.
const Size = 32

var (
	ErrEmptyKey   = errors.New("keys: empty key")
	ErrInvalidHex = errors.New("keys: invalid hex key")
)

// ParseHex decodes a hex key, tolerating whitespace and a 0x prefix.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return nil, ErrEmptyKey
	}
	k, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return k, nil
}

// LoadFile reads a key file holding either hex text or exactly Size raw bytes.
func LoadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("key load failed (%s): %w", path, err)
	}
	if len(data) == Size && !isHexText(data) {
		return data, nil
	}
	k, err := ParseHex(string(data))
	if err != nil {
		return nil, fmt.Errorf("key parse failed (%s): %w", path, err)
	}
	return k, nil
}

func isHexText(b []byte) bool {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F', c == 'x':
		default:
			return false
		}
	}
	return true
}

// DeriveDeviceKey expands a fleet master secret into the key for one device.
func DeriveDeviceKey(master []byte, deviceID uint16) ([]byte, error) {
	if len(master) == 0 {
		return nil, ErrEmptyKey
	}
	info := fmt.Sprintf("idtp device %04x", deviceID)
	r := hkdf.New(sha256.New, master, nil, []byte(info))
	out := make([]byte, Size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Generate returns a random key.
func Generate() ([]byte, error) {
	k := make([]byte, Size)
	if _, err := rand.Read(k); err != nil {
		return nil, err
	}
	return k, nil
}
