// Package stream carries IDTP frames over byte-oriented links such as UART
// or TCP, where frame boundaries have to be recovered from the preamble.
package stream

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/idtp/internal/protocol"
	"github.com/danmuck/idtp/internal/protocol/integrity"
)

var ErrFrameTooLarge = errors.New("stream: frame larger than destination")

// Stats counts what a Reader has seen since construction.
type Stats struct {
	Frames       uint64
	Resyncs      uint64
	DroppedBytes uint64
}

// Reader recovers frame boundaries from a byte stream. It checks the header
// CRC-8 to reject false preambles but leaves trailer verification to the
// caller. Not safe for concurrent use.
type Reader struct {
	br    *bufio.Reader
	crc8  integrity.CRC8Func
	stats Stats
}

func NewReader(r io.Reader, crc8 integrity.CRC8Func) *Reader {
	return &Reader{
		br:   bufio.NewReaderSize(r, 2*protocol.FrameMaxSize),
		crc8: crc8,
	}
}

func (r *Reader) Stats() Stats {
	return r.stats
}

// Next copies the next complete frame into dst and returns its length.
// Garbage between frames is skipped. io.EOF is returned at a clean end of
// stream, io.ErrUnexpectedEOF when the stream ends inside a frame.
func (r *Reader) Next(dst []byte) (int, error) {
	for {
		pre, err := r.br.Peek(4)
		if err != nil {
			r.stats.DroppedBytes += uint64(len(pre))
			return 0, io.EOF
		}
		if binary.LittleEndian.Uint32(pre) != protocol.Preamble {
			r.skip()
			continue
		}

		hb, err := r.br.Peek(protocol.HeaderSize)
		if err != nil {
			return 0, unexpected(err)
		}
		sum, err := r.crc8(hb[:protocol.HeaderCRCOffset])
		if err != nil {
			return 0, err
		}
		if sum != hb[protocol.HeaderCRCOffset] {
			r.resync()
			continue
		}
		h, err := protocol.DecodeHeader(hb)
		if err != nil {
			return 0, err
		}
		if h.OpMode() == protocol.ModeUnknown || int(h.PayloadSize) > protocol.PayloadMaxSize {
			r.resync()
			continue
		}

		size := h.FrameSize()
		if len(dst) < size {
			n, _ := r.br.Discard(size)
			r.stats.DroppedBytes += uint64(n)
			return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrFrameTooLarge, size, len(dst))
		}
		fb, err := r.br.Peek(size)
		if err != nil {
			return 0, unexpected(err)
		}
		copy(dst, fb)
		_, _ = r.br.Discard(size)
		r.stats.Frames++
		return size, nil
	}
}

func (r *Reader) skip() {
	n, _ := r.br.Discard(1)
	r.stats.DroppedBytes += uint64(n)
}

func (r *Reader) resync() {
	r.stats.Resyncs++
	r.skip()
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
