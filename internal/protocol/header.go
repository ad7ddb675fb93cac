package protocol

import (
	"encoding/binary"
	"fmt"
)

// Header is the fixed 20-byte wire header. Field order and widths match the
// on-wire layout exactly; all multi-byte fields are little-endian.
type Header struct {
	Preamble    uint32
	Timestamp   uint32
	Sequence    uint32
	DeviceID    uint16
	PayloadSize uint16
	Version     uint8
	Mode        uint8
	PayloadType uint8
	CRC         uint8
}

// NewHeader returns a header with the preamble and current version set and
// the mode defaulted to Safety. CRC is filled in at pack time.
func NewHeader() Header {
	return Header{
		Preamble: Preamble,
		Version:  Version,
		Mode:     uint8(ModeSafety),
	}
}

// OpMode returns the decoded operating mode.
func (h Header) OpMode() Mode {
	return ModeFromByte(h.Mode)
}

// SetMode stores m in the mode byte.
func (h *Header) SetMode(m Mode) {
	h.Mode = uint8(m)
}

// TrailerSize is the trailer length implied by the mode byte.
func (h Header) TrailerSize() int {
	return h.OpMode().TrailerSize()
}

// FrameSize is header + payload + trailer as declared by this header.
func (h Header) FrameSize() int {
	return HeaderSize + int(h.PayloadSize) + h.TrailerSize()
}

// HasPreamble reports whether the preamble field carries the IDTP marker.
func (h Header) HasPreamble() bool {
	return h.Preamble == Preamble
}

func (h Header) VersionMajor() uint8 { return h.Version >> 4 }
func (h Header) VersionMinor() uint8 { return h.Version & 0x0F }

// Put writes the 20 header bytes into dst, including the CRC byte as held in
// the struct. dst must be at least HeaderSize long.
func (h Header) Put(dst []byte) error {
	if len(dst) < HeaderSize {
		return ErrBufferUnderflow
	}
	binary.LittleEndian.PutUint32(dst[offPreamble:], h.Preamble)
	binary.LittleEndian.PutUint32(dst[offTimestamp:], h.Timestamp)
	binary.LittleEndian.PutUint32(dst[offSequence:], h.Sequence)
	binary.LittleEndian.PutUint16(dst[offDeviceID:], h.DeviceID)
	binary.LittleEndian.PutUint16(dst[offPayloadSize:], h.PayloadSize)
	dst[offVersion] = h.Version
	dst[offMode] = h.Mode
	dst[offPayloadType] = h.PayloadType
	dst[offCRC] = h.CRC
	return nil
}

// Bytes returns the 20-byte wire representation.
func (h Header) Bytes() [HeaderSize]byte {
	var b [HeaderSize]byte
	_ = h.Put(b[:])
	return b
}

// DecodeHeader reads a header from the first HeaderSize bytes of src. It is a
// pure byte reinterpretation: no field is validated.
func DecodeHeader(src []byte) (Header, error) {
	if len(src) < HeaderSize {
		return Header{}, ErrBufferUnderflow
	}
	return Header{
		Preamble:    binary.LittleEndian.Uint32(src[offPreamble:]),
		Timestamp:   binary.LittleEndian.Uint32(src[offTimestamp:]),
		Sequence:    binary.LittleEndian.Uint32(src[offSequence:]),
		DeviceID:    binary.LittleEndian.Uint16(src[offDeviceID:]),
		PayloadSize: binary.LittleEndian.Uint16(src[offPayloadSize:]),
		Version:     src[offVersion],
		Mode:        src[offMode],
		PayloadType: src[offPayloadType],
		CRC:         src[offCRC],
	}, nil
}

func (h Header) String() string {
	return fmt.Sprintf("idtp v%d.%d dev=0x%04x seq=%d ts=%d mode=%s type=0x%02x size=%d",
		h.VersionMajor(), h.VersionMinor(), h.DeviceID, h.Sequence, h.Timestamp,
		h.OpMode(), h.PayloadType, h.PayloadSize)
}
