// Package sender turns payload records into a numbered, timestamped frame
// stream for one device.
package sender

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/danmuck/idtp/internal/observability"
	"github.com/danmuck/idtp/internal/protocol"
	"github.com/danmuck/idtp/internal/protocol/frame"
	"github.com/danmuck/idtp/internal/protocol/integrity"
	"github.com/danmuck/idtp/internal/protocol/payload"
	"github.com/danmuck/idtp/internal/protocol/stream"
)

var ErrNoSuite = errors.New("sender: integrity suite incomplete")

type Options struct {
	DeviceID uint16
	Mode     protocol.Mode
	// Suite must carry an HMAC bound to the device key for ModeSecure.
	Suite    integrity.Suite
	// Clock defaults to time.Now. Timestamps are milliseconds since New.
	Clock    func() time.Time
}

// Sender is safe for concurrent use; frames leave in sequence order.
type Sender struct {
	mu     sync.Mutex
	w      *stream.Writer
	header protocol.Header
	frame  *frame.Frame
	clock  func() time.Time
	start  time.Time
}

func New(w io.Writer, opts Options) (*Sender, error) {
	if !opts.Mode.Valid() {
		return nil, protocol.ErrParse
	}
	if opts.Suite.CRC8 == nil || opts.Suite.CRC32 == nil {
		return nil, ErrNoSuite
	}
	if opts.Suite.HMAC == nil {
		if opts.Mode == protocol.ModeSecure {
			return nil, protocol.ErrInvalidHMACKey
		}
		opts.Suite.HMAC = integrity.NoKey
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	h := protocol.NewHeader()
	h.DeviceID = opts.DeviceID
	h.SetMode(opts.Mode)
	return &Sender{
		w:      stream.NewWriter(w, opts.Suite),
		header: h,
		frame:  frame.New(),
		clock:  clock,
		start:  clock(),
	}, nil
}

// Send frames p with the next sequence number and writes it. The sequence
// only advances when the write succeeds.
func (s *Sender) Send(p payload.Payload) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.header
	h.Timestamp = uint32(s.clock().Sub(s.start).Milliseconds())
	s.frame.SetHeader(h)
	if err := s.frame.SetPayload(p); err != nil {
		observability.RecordFrame(observability.DirectionTx, h.OpMode(), 0, err)
		return 0, err
	}
	n, err := s.w.WriteFrame(s.frame)
	observability.RecordFrame(observability.DirectionTx, h.OpMode(), n, err)
	if err != nil {
		return n, err
	}
	s.header.Sequence++
	return n, nil
}

// Sequence is the number the next frame will carry.
func (s *Sender) Sequence() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header.Sequence
}
