// Package payload defines the capability every IDTP payload kind implements
// and the fixed-layout record helpers the standard kinds are built from.
package payload

import "github.com/danmuck/idtp/internal/protocol"

// Payload is a fixed-layout record with a wire type identifier.
type Payload interface {
	// TypeID is the wire identifier stored in the header payload_type byte.
	TypeID() uint8
	// Size is the constant encoded size in bytes.
	Size() int
	// Bytes is the packed little-endian encoding, exactly Size bytes long.
	Bytes() []byte
}

// Decoder reads a record from the first Size bytes of data. It fails with
// protocol.ErrBufferUnderflow when data is shorter than the record.
type Decoder interface {
	UnmarshalBinary(data []byte) error
}

// Record ties a value type to its pointer decoder so generic callers can
// construct T from bytes.
type Record[T any] interface {
	*T
	Payload
	Decoder
}

// Decode builds a T from the prefix of data.
func Decode[T any, PT Record[T]](data []byte) (T, error) {
	var v T
	if err := PT(&v).UnmarshalBinary(data); err != nil {
		return v, err
	}
	return v, nil
}

// Raw is an opaque payload: vendor kinds and anything the caller has not
// registered a record type for.
type Raw struct {
	ID   uint8
	Data []byte
}

func (r Raw) TypeID() uint8 { return r.ID }
func (r Raw) Size() int     { return len(r.Data) }
func (r Raw) Bytes() []byte { return r.Data }

// UnmarshalBinary copies all of data. The type id is left untouched.
func (r *Raw) UnmarshalBinary(data []byte) error {
	if len(data) > protocol.PayloadMaxSize {
		return protocol.ErrBufferOverflow
	}
	r.Data = append(r.Data[:0], data...)
	return nil
}
