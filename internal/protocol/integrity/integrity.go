// Package integrity defines the checksum and MAC primitives the frame codec
// consumes on every pack and validate.
//
// Each primitive is a plain function value so that targets with CRC or HMAC
// peripherals can bind their accelerators without touching the codec. A
// software backend is compiled in unless the idtp_nosoftware build tag is set.
package integrity

import "github.com/danmuck/idtp/internal/protocol"

// TagSize is the length of an HMAC-SHA256 tag.
const TagSize = protocol.HMACSize

// CRC8Func computes the header CRC-8/AUTOSAR over data.
type CRC8Func func(data []byte) (uint8, error)

// CRC32Func computes the Safety trailer CRC-32/AUTOSAR over data.
type CRC32Func func(data []byte) (uint32, error)

// HMACFunc computes the Secure trailer HMAC-SHA256 tag over data. It reports
// protocol.ErrInvalidHMACKey when no key is bound and protocol.ErrInvalidHMAC
// when the backend rejects the key.
type HMACFunc func(data []byte) ([TagSize]byte, error)

// NoKey is an HMACFunc for callers that never send or accept Secure frames.
func NoKey(_ []byte) ([TagSize]byte, error) {
	return [TagSize]byte{}, protocol.ErrInvalidHMACKey
}

// Suite bundles one backend for each primitive, for layers that carry the
// choice around (stream writers, receivers).
type Suite struct {
	CRC8  CRC8Func
	CRC32 CRC32Func
	HMAC  HMACFunc
}
