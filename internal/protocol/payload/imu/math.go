package imu

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultUnitTolerance is the slack IsUnit allows on |q|.
const DefaultUnitTolerance = 1e-3

func (p Imu3Acc) Vec3() mgl32.Vec3 { return mgl32.Vec3{p.AccX, p.AccY, p.AccZ} }
func (p Imu3Gyr) Vec3() mgl32.Vec3 { return mgl32.Vec3{p.GyrX, p.GyrY, p.GyrZ} }
func (p Imu3Mag) Vec3() mgl32.Vec3 { return mgl32.Vec3{p.MagX, p.MagY, p.MagZ} }

func AccFromVec(v mgl32.Vec3) Imu3Acc { return Imu3Acc{AccX: v[0], AccY: v[1], AccZ: v[2]} }
func GyrFromVec(v mgl32.Vec3) Imu3Gyr { return Imu3Gyr{GyrX: v[0], GyrY: v[1], GyrZ: v[2]} }
func MagFromVec(v mgl32.Vec3) Imu3Mag { return Imu3Mag{MagX: v[0], MagY: v[1], MagZ: v[2]} }

// Quat converts to an mgl32 quaternion.
func (p ImuQuat) Quat() mgl32.Quat {
	return mgl32.Quat{W: p.W, V: mgl32.Vec3{p.X, p.Y, p.Z}}
}

// QuatFrom converts an mgl32 quaternion to the wire record.
func QuatFrom(q mgl32.Quat) ImuQuat {
	return ImuQuat{W: q.W, X: q.V[0], Y: q.V[1], Z: q.V[2]}
}

// Norm is |q|.
func (p ImuQuat) Norm() float32 {
	return p.Quat().Len()
}

// IsUnit reports whether |q| is within tol of 1.
func (p ImuQuat) IsUnit(tol float32) bool {
	n := p.Norm()
	return !math.IsNaN(float64(n)) && mgl32.Abs(n-1) <= tol
}

// Normalized returns q/|q|. The zero quaternion maps to identity.
func (p ImuQuat) Normalized() ImuQuat {
	return QuatFrom(p.Quat().Normalize())
}

// Rotate applies the attitude to a body-frame vector.
func (p ImuQuat) Rotate(v mgl32.Vec3) mgl32.Vec3 {
	return p.Quat().Rotate(v)
}
