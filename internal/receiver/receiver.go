// Package receiver consumes frames from a link, verifies and decodes them,
// and hands the typed payloads to the application.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/danmuck/idtp/internal/observability"
	"github.com/danmuck/idtp/internal/protocol"
	"github.com/danmuck/idtp/internal/protocol/frame"
	"github.com/danmuck/idtp/internal/protocol/integrity"
	"github.com/danmuck/idtp/internal/protocol/payload"
	"github.com/danmuck/idtp/internal/protocol/stream"
	"github.com/danmuck/idtp/internal/transport"
	"github.com/rs/zerolog"
)

var ErrVersionMismatch = errors.New("receiver: frame version mismatch")

// Message is one accepted frame. Raw aliases the receive buffer and is only
// valid for the duration of the Handler call.
type Message struct {
	Header  protocol.Header
	Payload payload.Payload
	Raw     []byte
}

type Handler func(Message)

// Capturer persists accepted frames. *capture.Store satisfies it.
type Capturer interface {
	Put(raw []byte) error
}

type Options struct {
	Suite         integrity.Suite
	// HMACFor, when set, supplies the Secure-mode backend per device and
	// overrides Suite.HMAC. Results are cached.
	HMACFor       func(deviceID uint16) (integrity.HMACFunc, error)
	Registry      *payload.Registry
	StrictVersion bool
	Capture       Capturer
	Handler       Handler
	Logger        zerolog.Logger
}

// Stats summarises what a Service has processed.
type Stats struct {
	Accepted uint64
	Rejected uint64
	Gaps     uint64
}

type Service struct {
	opts  Options
	frame *frame.Frame

	mu    sync.Mutex
	macs  map[uint16]integrity.HMACFunc
	seqs  map[uint16]uint32
	stats Stats
}

func New(opts Options) (*Service, error) {
	if opts.Suite.CRC8 == nil || opts.Suite.CRC32 == nil {
		return nil, fmt.Errorf("receiver: CRC backends required")
	}
	if opts.Suite.HMAC == nil {
		opts.Suite.HMAC = integrity.NoKey
	}
	if opts.Registry == nil {
		opts.Registry = payload.NewRegistry()
	}
	return &Service{
		opts:  opts,
		frame: frame.New(),
		macs:  map[uint16]integrity.HMACFunc{},
		seqs:  map[uint16]uint32{},
	}, nil
}

func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Handle verifies and dispatches one complete frame. Rejected frames are
// counted and returned as errors and never touch the sequence tracker. The
// Handler runs on the caller's goroutine.
func (s *Service) Handle(b []byte) (Message, error) {
	s.mu.Lock()
	msg, err := s.accept(b)
	if err != nil {
		s.stats.Rejected++
	} else {
		s.stats.Accepted++
	}
	s.mu.Unlock()

	mode := protocol.ModeUnknown
	if h, herr := protocol.DecodeHeader(b); herr == nil {
		mode = h.OpMode()
	}
	observability.RecordFrame(observability.DirectionRx, mode, len(b), err)
	if err != nil {
		s.opts.Logger.Debug().Err(err).Int("len", len(b)).Msg("frame rejected")
		return Message{}, err
	}

	if s.opts.Capture != nil {
		cerr := s.opts.Capture.Put(msg.Raw)
		observability.RecordCaptureWrite(cerr == nil)
		if cerr != nil {
			s.opts.Logger.Warn().Err(cerr).Msg("capture write failed")
		}
	}
	if s.opts.Handler != nil {
		s.opts.Handler(msg)
	}
	return msg, nil
}

func (s *Service) accept(b []byte) (Message, error) {
	h, err := protocol.DecodeHeader(b)
	if err != nil {
		return Message{}, err
	}
	mac, err := s.macFor(h)
	if err != nil {
		return Message{}, err
	}
	if err := frame.ValidateWith(b, s.opts.Suite.CRC8, s.opts.Suite.CRC32, mac); err != nil {
		return Message{}, err
	}
	if err := s.frame.DecodeFrom(b); err != nil {
		return Message{}, err
	}
	h = s.frame.Header()
	if s.opts.StrictVersion && h.Version != protocol.Version {
		return Message{}, fmt.Errorf("%w: got 0x%02x", ErrVersionMismatch, h.Version)
	}
	raw, err := s.frame.PayloadRaw()
	if err != nil {
		return Message{}, err
	}
	p, err := s.opts.Registry.Decode(h.PayloadType, raw)
	if err != nil {
		return Message{}, err
	}
	s.track(h)
	return Message{Header: h, Payload: p, Raw: b[:h.FrameSize()]}, nil
}

func (s *Service) macFor(h protocol.Header) (integrity.HMACFunc, error) {
	if s.opts.HMACFor == nil || h.OpMode() != protocol.ModeSecure {
		return s.opts.Suite.HMAC, nil
	}
	if mac, ok := s.macs[h.DeviceID]; ok {
		return mac, nil
	}
	mac, err := s.opts.HMACFor(h.DeviceID)
	if err != nil {
		return nil, err
	}
	s.macs[h.DeviceID] = mac
	return mac, nil
}

// track counts frames missing between consecutive sequence numbers of a
// device. Backwards jumps are treated as a sender restart.
func (s *Service) track(h protocol.Header) {
	last, seen := s.seqs[h.DeviceID]
	s.seqs[h.DeviceID] = h.Sequence
	if !seen {
		return
	}
	missed := h.Sequence - last - 1
	if missed == 0 || missed >= 1<<31 {
		return
	}
	s.stats.Gaps += uint64(missed)
	observability.RecordSequenceGap(h.DeviceID, missed)
	s.opts.Logger.Debug().Uint16("device", h.DeviceID).Uint32("missed", missed).Msg("sequence gap")
}

// Run reads frames from link until ctx is cancelled or the link ends. The
// link is closed when Run returns.
func (s *Service) Run(ctx context.Context, link transport.Link) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = link.Close()
	}()

	var err error
	if link.Datagram() {
		err = s.runDatagram(link)
	} else {
		err = s.runStream(link)
	}
	if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Service) runDatagram(r io.Reader) error {
	buf := make([]byte, protocol.FrameMaxSize)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return err
		}
		_, _ = s.Handle(buf[:n])
	}
}

func (s *Service) runStream(r io.Reader) error {
	sr := stream.NewReader(r, s.opts.Suite.CRC8)
	buf := make([]byte, protocol.FrameMaxSize)
	var resyncs uint64
	for {
		n, err := sr.Next(buf)
		if st := sr.Stats(); st.Resyncs != resyncs {
			observability.RecordResyncs(st.Resyncs - resyncs)
			resyncs = st.Resyncs
		}
		if err != nil {
			return err
		}
		_, _ = s.Handle(buf[:n])
	}
}
