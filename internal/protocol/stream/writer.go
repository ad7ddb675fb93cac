package stream

import (
	"io"

	"github.com/danmuck/idtp/internal/protocol"
	"github.com/danmuck/idtp/internal/protocol/frame"
	"github.com/danmuck/idtp/internal/protocol/integrity"
)

// Writer packs frames with a fixed Suite and emits each as a single Write.
// Not safe for concurrent use.
type Writer struct {
	w     io.Writer
	suite integrity.Suite
	buf   [protocol.FrameMaxSize]byte
}

func NewWriter(w io.Writer, suite integrity.Suite) *Writer {
	return &Writer{w: w, suite: suite}
}

// WriteFrame packs f and writes it. Nothing is written if packing fails.
func (w *Writer) WriteFrame(f *frame.Frame) (int, error) {
	n, err := f.PackWith(w.buf[:], w.suite.CRC8, w.suite.CRC32, w.suite.HMAC)
	if err != nil {
		return 0, err
	}
	return w.w.Write(w.buf[:n])
}
