package frame

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/idtp/internal/protocol"
	"github.com/danmuck/idtp/internal/protocol/integrity"
	"github.com/danmuck/idtp/internal/protocol/payload/imu"
)

func fakeCRC8(_ []byte) (uint8, error)   { return 0xDE, nil }
func fakeCRC32(_ []byte) (uint32, error) { return 0xDEADBEEF, nil }
func fakeHMAC(_ []byte) ([integrity.TagSize]byte, error) {
	return [integrity.TagSize]byte{}, nil
}

func safetyFrame(t *testing.T, p []byte) *Frame {
	t.Helper()
	f := New()
	f.SetHeader(protocol.NewHeader())
	if err := f.SetPayloadRaw(p, 0x7F); err != nil {
		t.Fatalf("set payload: %v", err)
	}
	return f
}

func TestPackWithCustomPrimitives(t *testing.T) {
	f := safetyFrame(t, []byte{1, 2, 3})
	out := make([]byte, 64)
	n, err := f.PackWith(out, fakeCRC8, fakeCRC32, fakeHMAC)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if n != 27 {
		t.Fatalf("size: got %d want 27", n)
	}
	if out[19] != 0xDE {
		t.Fatalf("header crc: got 0x%02x", out[19])
	}
	if !bytes.Equal(out[23:27], []byte{0xEF, 0xBE, 0xAD, 0xDE}) {
		t.Fatalf("trailer: % x", out[23:27])
	}
	if !bytes.Equal(out[20:23], []byte{1, 2, 3}) {
		t.Fatalf("payload: % x", out[20:23])
	}
}

func TestPackBufferUnderflow(t *testing.T) {
	f := New()
	f.SetHeader(protocol.NewHeader())
	if err := f.SetPayload(imu.Imu6{}); err != nil {
		t.Fatalf("set payload: %v", err)
	}
	if f.Size() != 48 {
		t.Fatalf("size: got %d", f.Size())
	}
	_, err := f.PackWith(make([]byte, 40), fakeCRC8, fakeCRC32, fakeHMAC)
	if !errors.Is(err, protocol.ErrBufferUnderflow) {
		t.Fatalf("expected ErrBufferUnderflow, got %v", err)
	}
	if _, err := f.PackWith(make([]byte, 48), fakeCRC8, fakeCRC32, fakeHMAC); err != nil {
		t.Fatalf("exact-size buffer: %v", err)
	}
}

func TestSetPayloadOverflowLeavesFrameUnchanged(t *testing.T) {
	f := safetyFrame(t, []byte("abc"))
	before := f.Header()
	err := f.SetPayloadRaw(make([]byte, 1000), 0x10)
	if !errors.Is(err, protocol.ErrBufferOverflow) {
		t.Fatalf("expected ErrBufferOverflow, got %v", err)
	}
	if f.Header() != before {
		t.Fatalf("header changed: %+v", f.Header())
	}
	raw, _ := f.PayloadRaw()
	if string(raw) != "abc" {
		t.Fatalf("payload changed: %q", raw)
	}
	if err := f.SetPayloadRaw(make([]byte, protocol.PayloadMaxSize), 0x10); err != nil {
		t.Fatalf("max payload rejected: %v", err)
	}
}

func TestPackRejectsUnknownMode(t *testing.T) {
	f := New()
	h := protocol.NewHeader()
	h.SetMode(protocol.ModeUnknown)
	f.SetHeader(h)
	_, err := f.PackWith(make([]byte, 64), fakeCRC8, fakeCRC32, fakeHMAC)
	if !errors.Is(err, protocol.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestPackRejectsOversizedHeaderDeclaration(t *testing.T) {
	f := New()
	h := protocol.NewHeader()
	h.PayloadSize = protocol.PayloadMaxSize + 1
	f.SetHeader(h)
	_, err := f.PackWith(make([]byte, 2048), fakeCRC8, fakeCRC32, fakeHMAC)
	if !errors.Is(err, protocol.ErrBufferOverflow) {
		t.Fatalf("expected ErrBufferOverflow, got %v", err)
	}
}

func TestSecureWithoutKey(t *testing.T) {
	f := New()
	h := protocol.NewHeader()
	h.SetMode(protocol.ModeSecure)
	f.SetHeader(h)
	_ = f.SetPayloadRaw([]byte("SecretData"), 0x20)
	_, err := f.PackWith(make([]byte, 64), fakeCRC8, fakeCRC32, integrity.NoKey)
	if !errors.Is(err, protocol.ErrInvalidHMACKey) {
		t.Fatalf("expected ErrInvalidHMACKey, got %v", err)
	}
}

func TestTrailerSizes(t *testing.T) {
	f := New()
	for mode, want := range map[protocol.Mode]int{
		protocol.ModeLite:    0,
		protocol.ModeSafety:  4,
		protocol.ModeSecure:  32,
		protocol.ModeUnknown: 0,
	} {
		h := protocol.NewHeader()
		h.SetMode(mode)
		f.SetHeader(h)
		if f.TrailerSize() != want {
			t.Fatalf("%s: got %d want %d", mode, f.TrailerSize(), want)
		}
	}
}

func TestValidateWithCustomPrimitives(t *testing.T) {
	f := safetyFrame(t, []byte{1, 2, 3})
	out := make([]byte, 64)
	n, _ := f.PackWith(out, fakeCRC8, fakeCRC32, fakeHMAC)
	if err := ValidateWith(out[:n], fakeCRC8, fakeCRC32, fakeHMAC); err != nil {
		t.Fatalf("validate: %v", err)
	}

	out[24] ^= 0x01
	if err := ValidateWith(out[:n], fakeCRC8, fakeCRC32, fakeHMAC); !errors.Is(err, protocol.ErrInvalidCRC) {
		t.Fatalf("expected ErrInvalidCRC, got %v", err)
	}
}

func TestValidateUnknownModeFailsClosed(t *testing.T) {
	f := safetyFrame(t, nil)
	out := make([]byte, 64)
	n, _ := f.PackWith(out, fakeCRC8, fakeCRC32, fakeHMAC)
	out[17] = 0x07 // fakeCRC8 still matches byte 19
	if err := ValidateWith(out[:n], fakeCRC8, fakeCRC32, fakeHMAC); !errors.Is(err, protocol.ErrInvalidCRC) {
		t.Fatalf("expected ErrInvalidCRC, got %v", err)
	}
}

func TestValidateShortInput(t *testing.T) {
	f := safetyFrame(t, []byte{1, 2, 3})
	out := make([]byte, 64)
	n, _ := f.PackWith(out, fakeCRC8, fakeCRC32, fakeHMAC)
	for _, l := range []int{0, 5, 19, 20, 26} {
		if l >= n {
			continue
		}
		if err := ValidateWith(out[:l], fakeCRC8, fakeCRC32, fakeHMAC); !errors.Is(err, protocol.ErrBufferUnderflow) {
			t.Fatalf("len %d: expected ErrBufferUnderflow, got %v", l, err)
		}
	}
}

func TestValidateForeignPreamble(t *testing.T) {
	f := safetyFrame(t, nil)
	out := make([]byte, 64)
	n, _ := f.PackWith(out, fakeCRC8, fakeCRC32, fakeHMAC)
	copy(out[0:4], "XXXX")
	if err := ValidateWith(out[:n], fakeCRC8, fakeCRC32, fakeHMAC); !errors.Is(err, protocol.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestDecodeRestoresHeaderAndPayload(t *testing.T) {
	in := imu.Imu6{Acc: imu.Imu3Acc{AccX: 0.001, AccY: 0.002, AccZ: 0.003}, Gyr: imu.Imu3Gyr{GyrX: 0.004, GyrY: 0.005, GyrZ: 0.006}}
	f := New()
	h := protocol.NewHeader()
	h.DeviceID = 0x00AB
	h.Timestamp = 12345678
	h.Sequence = 1
	f.SetHeader(h)
	if err := f.SetPayload(in); err != nil {
		t.Fatalf("set payload: %v", err)
	}
	out := make([]byte, protocol.FrameMaxSize)
	n, err := f.PackWith(out, fakeCRC8, fakeCRC32, fakeHMAC)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	got, err := Decode(out[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	gh := got.Header()
	if gh.DeviceID != 0x00AB || gh.Timestamp != 12345678 || gh.Sequence != 1 {
		t.Fatalf("header mismatch: %+v", gh)
	}
	if gh.PayloadType != imu.TypeImu6 || gh.PayloadSize != imu.SizeImu6 {
		t.Fatalf("payload descriptor mismatch: %+v", gh)
	}
	p, err := DecodePayload[imu.Imu6](got)
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p != in {
		t.Fatalf("payload mismatch: got=%+v want=%+v", p, in)
	}
}

func TestDecodeErrors(t *testing.T) {
	f := safetyFrame(t, []byte{1, 2, 3})
	out := make([]byte, 64)
	n, _ := f.PackWith(out, fakeCRC8, fakeCRC32, fakeHMAC)

	if _, err := Decode(out[:10]); !errors.Is(err, protocol.ErrBufferUnderflow) {
		t.Fatalf("short header: %v", err)
	}
	if _, err := Decode(out[:n-1]); !errors.Is(err, protocol.ErrBufferUnderflow) {
		t.Fatalf("short trailer: %v", err)
	}

	bad := append([]byte(nil), out[:n]...)
	bad[17] = 0x09
	if _, err := Decode(bad); !errors.Is(err, protocol.ErrParse) {
		t.Fatalf("unknown mode: %v", err)
	}

	bad = append([]byte(nil), out[:n]...)
	bad[0] = 0
	if _, err := Decode(bad); !errors.Is(err, protocol.ErrParse) {
		t.Fatalf("missing preamble: %v", err)
	}

	bad = make([]byte, 2048)
	h := protocol.NewHeader()
	h.PayloadSize = 1000
	_ = h.Put(bad)
	if _, err := Decode(bad); !errors.Is(err, protocol.ErrParse) {
		t.Fatalf("oversized payload: %v", err)
	}
}

func TestDecodePayloadShortRecord(t *testing.T) {
	f := safetyFrame(t, []byte{1, 2, 3})
	if _, err := DecodePayload[imu.Imu3Acc](f); !errors.Is(err, protocol.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestDecodeFromLeavesFrameOnError(t *testing.T) {
	f := safetyFrame(t, []byte("keep"))
	if err := f.DecodeFrom([]byte{1, 2}); err == nil {
		t.Fatalf("expected error")
	}
	raw, _ := f.PayloadRaw()
	if string(raw) != "keep" {
		t.Fatalf("frame mutated: %q", raw)
	}
}

func TestTruncationNeverPanics(t *testing.T) {
	f := New()
	h := protocol.NewHeader()
	h.SetMode(protocol.ModeSecure)
	f.SetHeader(h)
	_ = f.SetPayloadRaw(bytes.Repeat([]byte{0xA5}, 100), 0x40)
	out := make([]byte, protocol.FrameMaxSize)
	n, err := f.PackWith(out, fakeCRC8, fakeCRC32, fakeHMAC)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	for l := 0; l <= n; l++ {
		_ = ValidateWith(out[:l], fakeCRC8, fakeCRC32, fakeHMAC)
		_, _ = Decode(out[:l])
	}
}

func TestValidateRejectsOversizedDeclaration(t *testing.T) {
	b := make([]byte, 2048)
	h := protocol.NewHeader()
	h.SetMode(protocol.ModeLite)
	h.PayloadSize = protocol.PayloadMaxSize + 1
	h.CRC = 0xDE
	_ = h.Put(b)
	if err := ValidateWith(b, fakeCRC8, fakeCRC32, fakeHMAC); !errors.Is(err, protocol.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}
