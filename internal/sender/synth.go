package sender

import (
	"fmt"
	"math"
	"time"

	"github.com/danmuck/idtp/internal/protocol/payload"
	"github.com/danmuck/idtp/internal/protocol/payload/imu"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	gravity      = 9.80665
	seaLevelPa   = 101325
	earthFieldUT = 48.0
)

// Synthetic returns a sample of the named standard kind for a body slowly
// yawing about Z, elapsed into the run. Names match the standard registry.
func Synthetic(kind string, elapsed time.Duration) (payload.Payload, error) {
	t := float32(elapsed.Seconds())
	yawRate := float32(0.5)
	att := mgl32.QuatRotate(yawRate*t, mgl32.Vec3{0, 0, 1})
	world := att.Inverse()

	acc := imu.AccFromVec(world.Rotate(mgl32.Vec3{0, 0, gravity}))
	gyr := imu.GyrFromVec(mgl32.Vec3{0, 0, yawRate})
	mag := imu.MagFromVec(world.Rotate(mgl32.Vec3{earthFieldUT, 0, 0}))
	baro := float32(seaLevelPa + 20*math.Sin(float64(t)))

	switch kind {
	case "imu3acc":
		return acc, nil
	case "imu3gyr":
		return gyr, nil
	case "imu3mag":
		return mag, nil
	case "imu6":
		return imu.Imu6{Acc: acc, Gyr: gyr}, nil
	case "imu9":
		return imu.Imu9{Acc: acc, Gyr: gyr, Mag: mag}, nil
	case "imu10":
		return imu.Imu10{Acc: acc, Gyr: gyr, Mag: mag, Baro: baro}, nil
	case "imuquat":
		return imu.QuatFrom(att), nil
	default:
		return nil, fmt.Errorf("sender: unknown payload kind %q", kind)
	}
}
