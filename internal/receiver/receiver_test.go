package receiver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/danmuck/idtp/internal/keys"
	"github.com/danmuck/idtp/internal/protocol"
	"github.com/danmuck/idtp/internal/protocol/frame"
	"github.com/danmuck/idtp/internal/protocol/integrity"
	"github.com/danmuck/idtp/internal/protocol/payload"
	"github.com/danmuck/idtp/internal/protocol/payload/imu"
	"github.com/danmuck/idtp/internal/testutil/testlog"
	"github.com/danmuck/idtp/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type builder struct {
	device uint16
	mode   protocol.Mode
	key    []byte
}

func (b builder) frame(t *testing.T, seq uint32, p payload.Payload) []byte {
	t.Helper()
	h := protocol.NewHeader()
	h.DeviceID = b.device
	h.Sequence = seq
	h.SetMode(b.mode)
	f := frame.New()
	f.SetHeader(h)
	require.NoError(t, f.SetPayload(p))
	out := make([]byte, protocol.FrameMaxSize)
	n, err := f.Pack(out, b.key)
	require.NoError(t, err)
	return out[:n]
}

type memCapture struct{ frames [][]byte }

func (m *memCapture) Put(raw []byte) error {
	m.frames = append(m.frames, append([]byte(nil), raw...))
	return nil
}

func newService(t *testing.T, opts Options) *Service {
	t.Helper()
	if opts.Suite.CRC8 == nil {
		opts.Suite = integrity.Software(nil)
	}
	if opts.Registry == nil {
		opts.Registry = imu.NewRegistry()
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func TestHandleDecodesAndDispatches(t *testing.T) {
	testlog.Start(t)
	var got []Message
	capt := &memCapture{}
	s := newService(t, Options{
		Capture: capt,
		Handler: func(m Message) { got = append(got, m) },
	})

	b := builder{device: 0xAB, mode: protocol.ModeSafety}
	raw := b.frame(t, 0, imu.Imu6{Acc: imu.Imu3Acc{AccZ: 9.81}})
	msg, err := s.Handle(append(raw, 0xEE, 0xEE))
	require.NoError(t, err)

	rec, ok := msg.Payload.(*imu.Imu6)
	require.True(t, ok, "payload type %T", msg.Payload)
	assert.Equal(t, float32(9.81), rec.Acc.AccZ)
	assert.Equal(t, uint16(0xAB), msg.Header.DeviceID)
	assert.Len(t, msg.Raw, len(raw), "trailing bytes are not part of the frame")
	require.Len(t, got, 1)
	require.Len(t, capt.frames, 1)
	assert.Equal(t, raw, capt.frames[0])
	assert.Equal(t, Stats{Accepted: 1}, s.Stats())
}

func TestHandleRejectsCorruption(t *testing.T) {
	testlog.Start(t)
	called := false
	s := newService(t, Options{Handler: func(Message) { called = true }})
	raw := builder{device: 1, mode: protocol.ModeSafety}.frame(t, 0, imu.Imu3Mag{MagX: 1})
	raw[protocol.HeaderSize] ^= 0x01

	_, err := s.Handle(raw)
	assert.ErrorIs(t, err, protocol.ErrInvalidCRC)
	_, err = s.Handle(raw[:10])
	assert.ErrorIs(t, err, protocol.ErrBufferUnderflow)
	assert.False(t, called)
	assert.Equal(t, Stats{Rejected: 2}, s.Stats())
}

func TestSequenceGaps(t *testing.T) {
	testlog.Start(t)
	s := newService(t, Options{})
	a := builder{device: 1, mode: protocol.ModeLite}
	c := builder{device: 2, mode: protocol.ModeLite}
	for _, seq := range []uint32{0, 1, 4, 5} {
		_, err := s.Handle(a.frame(t, seq, imu.Imu3Acc{}))
		require.NoError(t, err)
	}
	for _, seq := range []uint32{10, 12, 0} {
		_, err := s.Handle(c.frame(t, seq, imu.Imu3Acc{}))
		require.NoError(t, err)
	}
	// device 1 misses 2,3; device 2 misses 11 then restarts at 0
	assert.Equal(t, uint64(3), s.Stats().Gaps)
	assert.Equal(t, uint64(7), s.Stats().Accepted)
}

func TestStrictVersion(t *testing.T) {
	testlog.Start(t)
	h := protocol.NewHeader()
	h.Version = 0x30
	f := frame.New()
	f.SetHeader(h)
	require.NoError(t, f.SetPayload(imu.Imu3Acc{}))
	out := make([]byte, protocol.FrameMaxSize)
	n, err := f.Pack(out, nil)
	require.NoError(t, err)

	lenient := newService(t, Options{})
	_, err = lenient.Handle(out[:n])
	assert.NoError(t, err)

	strict := newService(t, Options{StrictVersion: true})
	_, err = strict.Handle(out[:n])
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestUnregisteredTypeIsRaw(t *testing.T) {
	testlog.Start(t)
	s := newService(t, Options{})
	raw := builder{device: 3, mode: protocol.ModeSafety}.frame(t, 0, payload.Raw{ID: 0x80, Data: []byte{1, 2, 3}})
	msg, err := s.Handle(raw)
	require.NoError(t, err)
	r, ok := msg.Payload.(*payload.Raw)
	require.True(t, ok)
	assert.Equal(t, uint8(0x80), r.TypeID())
	assert.Equal(t, []byte{1, 2, 3}, r.Bytes())
}

func TestDerivedKeysPerDevice(t *testing.T) {
	testlog.Start(t)
	master := []byte("fleet master secret")
	lookups := 0
	s := newService(t, Options{HMACFor: func(id uint16) (integrity.HMACFunc, error) {
		lookups++
		k, err := keys.DeriveDeviceKey(master, id)
		if err != nil {
			return nil, err
		}
		return integrity.HMAC(k), nil
	}})

	k7, _ := keys.DeriveDeviceKey(master, 7)
	k8, _ := keys.DeriveDeviceKey(master, 8)
	d7 := builder{device: 7, mode: protocol.ModeSecure, key: k7}
	d8 := builder{device: 8, mode: protocol.ModeSecure, key: k8}

	_, err := s.Handle(d7.frame(t, 0, imu.ImuQuat{W: 1}))
	require.NoError(t, err)
	_, err = s.Handle(d7.frame(t, 1, imu.ImuQuat{W: 1}))
	require.NoError(t, err)
	_, err = s.Handle(d8.frame(t, 0, imu.ImuQuat{W: 1}))
	require.NoError(t, err)
	assert.Equal(t, 2, lookups, "keys are cached per device")

	spoof := builder{device: 8, mode: protocol.ModeSecure, key: k7}
	_, err = s.Handle(spoof.frame(t, 1, imu.ImuQuat{W: 1}))
	assert.ErrorIs(t, err, protocol.ErrInvalidHMAC)
}

func TestSecureWithoutKeyRejected(t *testing.T) {
	testlog.Start(t)
	s := newService(t, Options{})
	raw := builder{device: 1, mode: protocol.ModeSecure, key: []byte("k")}.frame(t, 0, imu.Imu3Acc{})
	_, err := s.Handle(raw)
	assert.ErrorIs(t, err, protocol.ErrInvalidHMACKey)
}

type streamLink struct{ io.Reader }

func (streamLink) Write(p []byte) (int, error) { return len(p), nil }
func (streamLink) Close() error                { return nil }
func (streamLink) Datagram() bool              { return false }

func TestRunStreamUntilEOF(t *testing.T) {
	testlog.Start(t)
	b := builder{device: 5, mode: protocol.ModeSafety}
	var wire bytes.Buffer
	wire.Write([]byte{0x00, 0x49, 0x44})
	for seq := uint32(0); seq < 4; seq++ {
		wire.Write(b.frame(t, seq, imu.Imu3Gyr{GyrX: float32(seq)}))
		wire.WriteByte(0x55)
	}

	var seqs []uint32
	s := newService(t, Options{Handler: func(m Message) { seqs = append(seqs, m.Header.Sequence) }})
	require.NoError(t, s.Run(context.Background(), streamLink{Reader: &wire}))
	assert.Equal(t, []uint32{0, 1, 2, 3}, seqs)
	assert.Equal(t, uint64(0), s.Stats().Gaps)
}

func TestRunDatagramStopsOnCancel(t *testing.T) {
	testlog.Start(t)
	rx, err := transport.Open(transport.Config{Kind: transport.KindUDP, Addr: "127.0.0.1:0"})
	require.NoError(t, err)
	addr := rx.(interface{ LocalAddr() net.Addr }).LocalAddr().String()

	received := make(chan Message, 4)
	s := newService(t, Options{Handler: func(m Message) { received <- m }})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, rx) }()

	tx, err := transport.Open(transport.Config{Kind: transport.KindUDP, Remote: addr})
	require.NoError(t, err)
	defer tx.Close()
	_, err = tx.Write(builder{device: 9, mode: protocol.ModeSafety}.frame(t, 0, imu.Imu3Acc{AccX: 1}))
	require.NoError(t, err)

	select {
	case m := <-received:
		assert.Equal(t, uint16(9), m.Header.DeviceID)
	case <-time.After(2 * time.Second):
		t.Fatal("no datagram received")
	}

	cancel()
	select {
	case err := <-done:
		assert.False(t, err != nil && !errors.Is(err, context.Canceled), "run error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop on cancel")
	}
}
