//go:build !idtp_nosoftware

package integrity

import (
	"crypto/hmac"
	"crypto/sha256"
	"hash/crc32"

	"github.com/danmuck/idtp/internal/protocol"
	"github.com/sigurn/crc8"
)

// CRC-8/AUTOSAR: poly 0x2F, init 0xFF, no reflection, xor-out 0xFF.
var crc8AUTOSAR = crc8.Params{
	Poly:   0x2F,
	Init:   0xFF,
	RefIn:  false,
	RefOut: false,
	XorOut: 0xFF,
	Check:  0xDF,
	Name:   "CRC-8/AUTOSAR",
}

// crc32AUTOSARReflected is 0xF4ACFB13 bit-reversed. hash/crc32 tables are
// reflected with init and xor-out 0xFFFFFFFF, which is exactly the AUTOSAR
// parameter set.
const crc32AUTOSARReflected = 0xC8DF352F

var (
	crc8Table  = crc8.MakeTable(crc8AUTOSAR)
	crc32Table = crc32.MakeTable(crc32AUTOSARReflected)
)

// CRC8 is the software CRC-8/AUTOSAR backend.
func CRC8(data []byte) (uint8, error) {
	return crc8.Checksum(data, crc8Table), nil
}

// CRC32 is the software CRC-32/AUTOSAR backend.
func CRC32(data []byte) (uint32, error) {
	return crc32.Checksum(data, crc32Table), nil
}

// HMAC returns a software HMAC-SHA256 backend bound to key. An empty key
// yields protocol.ErrInvalidHMACKey when the function is invoked, so Lite and
// Safety frames can still be packed with a nil key.
func HMAC(key []byte) HMACFunc {
	return func(data []byte) ([TagSize]byte, error) {
		var out [TagSize]byte
		if len(key) == 0 {
			return out, protocol.ErrInvalidHMACKey
		}
		mac := hmac.New(sha256.New, key)
		mac.Write(data)
		copy(out[:], mac.Sum(nil))
		return out, nil
	}
}

// Software returns the software Suite bound to key.
func Software(key []byte) Suite {
	return Suite{CRC8: CRC8, CRC32: CRC32, HMAC: HMAC(key)}
}
