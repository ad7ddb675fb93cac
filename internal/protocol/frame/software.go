//go:build !idtp_nosoftware

package frame

import "github.com/danmuck/idtp/internal/protocol/integrity"

// Pack is PackWith using the software CRC and HMAC backends. key may be nil
// unless the frame is in Secure mode.
func (f *Frame) Pack(out []byte, key []byte) (int, error) {
	return f.PackWith(out, integrity.CRC8, integrity.CRC32, integrity.HMAC(key))
}

// Validate is ValidateWith using the software CRC and HMAC backends.
func Validate(b []byte, key []byte) error {
	return ValidateWith(b, integrity.CRC8, integrity.CRC32, integrity.HMAC(key))
}
