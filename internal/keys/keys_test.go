package keys

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseHex(t *testing.T) {
	k, err := ParseHex(" 0xA0b1 \n")
	if err != nil || !bytes.Equal(k, []byte{0xA0, 0xB1}) {
		t.Fatalf("parse: % x %v", k, err)
	}
	if _, err := ParseHex(""); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
	if _, err := ParseHex("zz"); !errors.Is(err, ErrInvalidHex) {
		t.Fatalf("expected ErrInvalidHex, got %v", err)
	}
}

func TestLoadFileHexAndRaw(t *testing.T) {
	dir := t.TempDir()
	want, _ := Generate()

	hexPath := filepath.Join(dir, "key.hex")
	if err := os.WriteFile(hexPath, []byte(hex.EncodeToString(want)+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(hexPath)
	if err != nil || !bytes.Equal(got, want) {
		t.Fatalf("hex file: %v", err)
	}

	raw := bytes.Repeat([]byte{0xFE}, Size)
	rawPath := filepath.Join(dir, "key.bin")
	if err := os.WriteFile(rawPath, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = LoadFile(rawPath)
	if err != nil || !bytes.Equal(got, raw) {
		t.Fatalf("raw file: %v", err)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDeriveDeviceKey(t *testing.T) {
	master := []byte("fleet master secret")
	a, err := DeriveDeviceKey(master, 0x00AB)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	b, _ := DeriveDeviceKey(master, 0x00AB)
	c, _ := DeriveDeviceKey(master, 0x00AC)
	if len(a) != Size || !bytes.Equal(a, b) {
		t.Fatalf("derivation not deterministic")
	}
	if bytes.Equal(a, c) {
		t.Fatalf("distinct devices share a key")
	}
	if _, err := DeriveDeviceKey(nil, 1); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}
