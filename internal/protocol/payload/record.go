package payload

import (
	"encoding/binary"
	"fmt"

	"github.com/danmuck/idtp/internal/protocol"
)

// SizeOf is the packed size of a fixed-layout record, or -1 if v contains
// variable-size fields.
func SizeOf(v any) int {
	return binary.Size(v)
}

// EncodeFixed packs v, a struct of fixed-size fields, little-endian with no
// padding.
func EncodeFixed(v any) []byte {
	n := binary.Size(v)
	if n <= 0 {
		return nil
	}
	buf := make([]byte, n)
	if _, err := binary.Encode(buf, binary.LittleEndian, v); err != nil {
		return nil
	}
	return buf
}

// DecodeFixed fills the record pointed to by v from the prefix of data.
func DecodeFixed(data []byte, v any) error {
	n := binary.Size(v)
	if n < 0 {
		return fmt.Errorf("%w: %T is not a fixed-layout record", protocol.ErrParse, v)
	}
	if len(data) < n {
		return protocol.ErrBufferUnderflow
	}
	if _, err := binary.Decode(data[:n], binary.LittleEndian, v); err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrParse, err)
	}
	return nil
}
