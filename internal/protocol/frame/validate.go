package frame

import (
	"crypto/hmac"
	"encoding/binary"

	"github.com/danmuck/idtp/internal/protocol"
	"github.com/danmuck/idtp/internal/protocol/integrity"
)

// ValidateWith checks the integrity of the frame at the start of b without
// decoding it. Order of checks: length, header CRC-8, preamble, declared
// length, trailer. Unknown modes fail closed with ErrInvalidCRC.
func ValidateWith(b []byte, crc8 integrity.CRC8Func, crc32 integrity.CRC32Func, mac integrity.HMACFunc) error {
	if len(b) < protocol.HeaderSize {
		return protocol.ErrBufferUnderflow
	}
	sum8, err := crc8(b[:protocol.HeaderCRCOffset])
	if err != nil {
		return err
	}
	if sum8 != b[protocol.HeaderCRCOffset] {
		return protocol.ErrInvalidCRC
	}

	h, err := protocol.DecodeHeader(b)
	if err != nil {
		return err
	}
	// Covered by the CRC-8 already; this rejects foreign streams whose
	// header bytes happen to checksum.
	if !h.HasPreamble() {
		return protocol.ErrParse
	}

	mode := h.OpMode()
	if mode == protocol.ModeUnknown {
		return protocol.ErrInvalidCRC
	}
	if int(h.PayloadSize) > protocol.PayloadMaxSize {
		return protocol.ErrParse
	}
	dataEnd := protocol.HeaderSize + int(h.PayloadSize)
	size := dataEnd + mode.TrailerSize()
	if len(b) < size {
		return protocol.ErrBufferUnderflow
	}

	data, trailer := b[:dataEnd], b[dataEnd:size]
	switch mode {
	case protocol.ModeSafety:
		sum32, err := crc32(data)
		if err != nil {
			return err
		}
		if sum32 != binary.LittleEndian.Uint32(trailer) {
			return protocol.ErrInvalidCRC
		}
	case protocol.ModeSecure:
		tag, err := mac(data)
		if err != nil {
			return err
		}
		if !hmac.Equal(tag[:], trailer) {
			return protocol.ErrInvalidHMAC
		}
	}
	return nil
}
