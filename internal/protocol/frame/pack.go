package frame

import (
	"encoding/binary"

	"github.com/danmuck/idtp/internal/protocol"
	"github.com/danmuck/idtp/internal/protocol/integrity"
)

// PackWith encodes the frame into out and returns the number of bytes
// written. Bytes past the returned length are left untouched. On error the
// contents of out are undefined and must not be transmitted.
func (f *Frame) PackWith(out []byte, crc8 integrity.CRC8Func, crc32 integrity.CRC32Func, mac integrity.HMACFunc) (int, error) {
	mode := f.header.OpMode()
	if mode == protocol.ModeUnknown {
		return 0, protocol.ErrParse
	}
	// SetHeader can carry any payload_size; only SetPayload* bounds it.
	if f.PayloadSize() > protocol.PayloadMaxSize {
		return 0, protocol.ErrBufferOverflow
	}
	size := f.Size()
	if len(out) < size {
		return 0, protocol.ErrBufferUnderflow
	}

	if err := f.header.Put(out[:protocol.HeaderSize]); err != nil {
		return 0, err
	}
	sum8, err := crc8(out[:protocol.HeaderCRCOffset])
	if err != nil {
		return 0, err
	}
	out[protocol.HeaderCRCOffset] = sum8

	dataEnd := protocol.HeaderSize + f.PayloadSize()
	copy(out[protocol.HeaderSize:dataEnd], f.payload[:f.PayloadSize()])

	trailer := out[dataEnd:size]
	switch mode {
	case protocol.ModeSafety:
		sum32, err := crc32(out[:dataEnd])
		if err != nil {
			return 0, err
		}
		binary.LittleEndian.PutUint32(trailer, sum32)
	case protocol.ModeSecure:
		tag, err := mac(out[:dataEnd])
		if err != nil {
			return 0, err
		}
		copy(trailer, tag[:])
	}
	return size, nil
}
