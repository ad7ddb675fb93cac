// Package frame assembles, validates and decodes IDTP frames.
//
// A Frame is a transient builder: set a header and a payload, then PackWith
// into a caller buffer. Decode goes the other way. Neither path allocates
// beyond the Frame value, and every buffer access is length-checked.
package frame

import (
	"github.com/danmuck/idtp/internal/protocol"
	"github.com/danmuck/idtp/internal/protocol/payload"
)

// Frame holds one header and up to protocol.PayloadMaxSize payload bytes.
type Frame struct {
	header  protocol.Header
	payload [protocol.PayloadMaxSize]byte
}

// New returns an empty frame with a zero header. Most callers follow it
// with SetHeader(protocol.NewHeader()).
func New() *Frame {
	return &Frame{}
}

// SetHeader replaces the whole header, payload_size and payload_type
// included, so call it before SetPayload. The CRC byte is recomputed at pack.
func (f *Frame) SetHeader(h protocol.Header) {
	f.header = h
}

// SetPayload copies p into the frame and records its type and size.
func (f *Frame) SetPayload(p payload.Payload) error {
	return f.SetPayloadRaw(p.Bytes(), p.TypeID())
}

// SetPayloadRaw copies b into the frame and records typeID and len(b) in the
// header. The frame is unchanged on error.
func (f *Frame) SetPayloadRaw(b []byte, typeID uint8) error {
	if len(b) > protocol.PayloadMaxSize {
		return protocol.ErrBufferOverflow
	}
	copy(f.payload[:], b)
	f.header.PayloadType = typeID
	f.header.PayloadSize = uint16(len(b))
	return nil
}

// Header returns the current header.
func (f *Frame) Header() protocol.Header {
	return f.header
}

// PayloadSize is the declared payload length.
func (f *Frame) PayloadSize() int {
	return int(f.header.PayloadSize)
}

// PayloadRaw returns the stored payload bytes. The slice aliases the frame
// and is valid until the next Set call.
func (f *Frame) PayloadRaw() ([]byte, error) {
	n := f.PayloadSize()
	if n > len(f.payload) {
		return nil, protocol.ErrParse
	}
	return f.payload[:n], nil
}

// TrailerSize is 0, 4 or 32 depending on the header mode.
func (f *Frame) TrailerSize() int {
	return f.header.TrailerSize()
}

// Size is the total encoded length: header + payload + trailer.
func (f *Frame) Size() int {
	return protocol.HeaderSize + f.PayloadSize() + f.TrailerSize()
}

// DecodePayload interprets the stored payload as T. The header type id is not
// compared against T; dispatch is the caller's decision.
func DecodePayload[T any, PT payload.Record[T]](f *Frame) (T, error) {
	var zero T
	raw, err := f.PayloadRaw()
	if err != nil {
		return zero, err
	}
	v, err := payload.Decode[T, PT](raw)
	if err != nil {
		return zero, protocol.ErrParse
	}
	return v, nil
}
