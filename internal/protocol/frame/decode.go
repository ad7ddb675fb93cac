package frame

import "github.com/danmuck/idtp/internal/protocol"

// Decode parses the frame at the start of b. It is structural only: CRC and
// HMAC are not checked, so untrusted input must pass ValidateWith first.
func Decode(b []byte) (*Frame, error) {
	f := New()
	if err := f.DecodeFrom(b); err != nil {
		return nil, err
	}
	return f, nil
}

// DecodeFrom is Decode into an existing frame, for callers that reuse one
// Frame per link. f is unchanged on error.
func (f *Frame) DecodeFrom(b []byte) error {
	h, err := protocol.DecodeHeader(b)
	if err != nil {
		return err
	}
	if !h.HasPreamble() || h.OpMode() == protocol.ModeUnknown {
		return protocol.ErrParse
	}
	if int(h.PayloadSize) > protocol.PayloadMaxSize {
		return protocol.ErrParse
	}
	if len(b) < h.FrameSize() {
		return protocol.ErrBufferUnderflow
	}

	dataEnd := protocol.HeaderSize + int(h.PayloadSize)
	f.header = h
	copy(f.payload[:], b[protocol.HeaderSize:dataEnd])
	return nil
}
