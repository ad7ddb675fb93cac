package protocol

import "fmt"

// Mode selects the integrity trailer carried by a frame.
type Mode uint8

const (
	// ModeLite carries no trailer. Trusted channels only.
	ModeLite Mode = 0x00
	// ModeSafety carries a CRC-32/AUTOSAR trailer.
	ModeSafety Mode = 0x01
	// ModeSecure carries an HMAC-SHA256 trailer.
	ModeSecure Mode = 0x02
	// ModeUnknown stands in for any byte outside the defined modes.
	ModeUnknown Mode = 0xFF
)

// ModeFromByte maps a wire byte to a Mode. Anything undefined is ModeUnknown.
func ModeFromByte(b uint8) Mode {
	switch Mode(b) {
	case ModeLite, ModeSafety, ModeSecure:
		return Mode(b)
	default:
		return ModeUnknown
	}
}

// ParseMode accepts the names used in config files and CLI flags.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "lite", "l", "0":
		return ModeLite, nil
	case "safety", "s", "1", "":
		return ModeSafety, nil
	case "secure", "sec", "2":
		return ModeSecure, nil
	default:
		return ModeUnknown, fmt.Errorf("%w: unknown mode %q", ErrParse, s)
	}
}

// Valid reports whether m is one of the three encodable modes.
func (m Mode) Valid() bool {
	return ModeFromByte(uint8(m)) != ModeUnknown
}

// TrailerSize is the number of trailer bytes the mode appends after the
// payload. Unknown modes report 0; callers decide whether that is fatal.
func (m Mode) TrailerSize() int {
	switch ModeFromByte(uint8(m)) {
	case ModeSafety:
		return CRC32Size
	case ModeSecure:
		return HMACSize
	default:
		return 0
	}
}

func (m Mode) String() string {
	switch ModeFromByte(uint8(m)) {
	case ModeLite:
		return "lite"
	case ModeSafety:
		return "safety"
	case ModeSecure:
		return "secure"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(m))
	}
}
