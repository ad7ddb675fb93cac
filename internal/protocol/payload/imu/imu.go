// Package imu provides the standard IDTP payload records. Importing it is the
// opt-in for the standard registry; the frame codec does not depend on it.
//
// All fields are float32, packed little-endian in declaration order.
package imu

import "github.com/danmuck/idtp/internal/protocol/payload"

// Standard payload type identifiers.
const (
	TypeImu3Acc uint8 = 0x00
	TypeImu3Gyr uint8 = 0x01
	TypeImu3Mag uint8 = 0x02
	TypeImu6    uint8 = 0x03
	TypeImu9    uint8 = 0x04
	TypeImu10   uint8 = 0x05
	TypeImuQuat uint8 = 0x06
)

// Encoded sizes in bytes.
const (
	SizeImu3Acc = 12
	SizeImu3Gyr = 12
	SizeImu3Mag = 12
	SizeImu6    = 24
	SizeImu9    = 36
	SizeImu10   = 40
	SizeImuQuat = 16
)

// Imu3Acc is a 3-axis accelerometer reading in m/s².
type Imu3Acc struct {
	AccX float32
	AccY float32
	AccZ float32
}

func (Imu3Acc) TypeID() uint8                     { return TypeImu3Acc }
func (Imu3Acc) Size() int                         { return SizeImu3Acc }
func (p Imu3Acc) Bytes() []byte                   { return payload.EncodeFixed(p) }
func (p *Imu3Acc) UnmarshalBinary(b []byte) error { return payload.DecodeFixed(b, p) }

// Imu3Gyr is a 3-axis gyroscope reading in rad/s.
type Imu3Gyr struct {
	GyrX float32
	GyrY float32
	GyrZ float32
}

func (Imu3Gyr) TypeID() uint8                     { return TypeImu3Gyr }
func (Imu3Gyr) Size() int                         { return SizeImu3Gyr }
func (p Imu3Gyr) Bytes() []byte                   { return payload.EncodeFixed(p) }
func (p *Imu3Gyr) UnmarshalBinary(b []byte) error { return payload.DecodeFixed(b, p) }

// Imu3Mag is a 3-axis magnetometer reading in μT.
type Imu3Mag struct {
	MagX float32
	MagY float32
	MagZ float32
}

func (Imu3Mag) TypeID() uint8                     { return TypeImu3Mag }
func (Imu3Mag) Size() int                         { return SizeImu3Mag }
func (p Imu3Mag) Bytes() []byte                   { return payload.EncodeFixed(p) }
func (p *Imu3Mag) UnmarshalBinary(b []byte) error { return payload.DecodeFixed(b, p) }

// Imu6 is accelerometer + gyroscope.
type Imu6 struct {
	Acc Imu3Acc
	Gyr Imu3Gyr
}

func (Imu6) TypeID() uint8                     { return TypeImu6 }
func (Imu6) Size() int                         { return SizeImu6 }
func (p Imu6) Bytes() []byte                   { return payload.EncodeFixed(p) }
func (p *Imu6) UnmarshalBinary(b []byte) error { return payload.DecodeFixed(b, p) }

// Imu9 is accelerometer + gyroscope + magnetometer.
type Imu9 struct {
	Acc Imu3Acc
	Gyr Imu3Gyr
	Mag Imu3Mag
}

func (Imu9) TypeID() uint8                     { return TypeImu9 }
func (Imu9) Size() int                         { return SizeImu9 }
func (p Imu9) Bytes() []byte                   { return payload.EncodeFixed(p) }
func (p *Imu9) UnmarshalBinary(b []byte) error { return payload.DecodeFixed(b, p) }

// Imu10 is Imu9 plus barometric pressure in Pa.
type Imu10 struct {
	Acc  Imu3Acc
	Gyr  Imu3Gyr
	Mag  Imu3Mag
	Baro float32
}

func (Imu10) TypeID() uint8                     { return TypeImu10 }
func (Imu10) Size() int                         { return SizeImu10 }
func (p Imu10) Bytes() []byte                   { return payload.EncodeFixed(p) }
func (p *Imu10) UnmarshalBinary(b []byte) error { return payload.DecodeFixed(b, p) }

// ImuQuat is a Hamiltonian attitude quaternion (w, x, y, z). Senders must
// normalise it; the codec does not check.
type ImuQuat struct {
	W float32
	X float32
	Y float32
	Z float32
}

func (ImuQuat) TypeID() uint8                     { return TypeImuQuat }
func (ImuQuat) Size() int                         { return SizeImuQuat }
func (p ImuQuat) Bytes() []byte                   { return payload.EncodeFixed(p) }
func (p *ImuQuat) UnmarshalBinary(b []byte) error { return payload.DecodeFixed(b, p) }

// Register installs the seven standard kinds into reg.
func Register(reg *payload.Registry) error {
	kinds := []struct {
		id   uint8
		name string
		new  func() payload.Decodable
	}{
		{TypeImu3Acc, "imu3acc", func() payload.Decodable { return &Imu3Acc{} }},
		{TypeImu3Gyr, "imu3gyr", func() payload.Decodable { return &Imu3Gyr{} }},
		{TypeImu3Mag, "imu3mag", func() payload.Decodable { return &Imu3Mag{} }},
		{TypeImu6, "imu6", func() payload.Decodable { return &Imu6{} }},
		{TypeImu9, "imu9", func() payload.Decodable { return &Imu9{} }},
		{TypeImu10, "imu10", func() payload.Decodable { return &Imu10{} }},
		{TypeImuQuat, "imuquat", func() payload.Decodable { return &ImuQuat{} }},
	}
	for _, k := range kinds {
		if err := reg.Register(k.id, k.name, k.new); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the standard kinds.
func NewRegistry() *payload.Registry {
	reg := payload.NewRegistry()
	_ = Register(reg)
	return reg
}
