package observability

import (
	"errors"
	"strconv"
	"sync"

	"github.com/danmuck/idtp/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DirectionTx = "tx"
	DirectionRx = "rx"
)

var (
	registerOnce sync.Once

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "idtp",
			Subsystem: "frames",
			Name:      "total",
			Help:      "Frames packed or received, by outcome.",
		},
		[]string{"direction", "mode", "result"},
	)
	frameBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "idtp",
			Subsystem: "frames",
			Name:      "bytes",
			Help:      "Encoded frame length in bytes.",
			Buckets:   []float64{20, 32, 48, 64, 96, 128, 256, 512, 1024},
		},
		[]string{"direction"},
	)
	sequenceGaps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "idtp",
			Subsystem: "sequence",
			Name:      "gaps_total",
			Help:      "Frames missing from a device sequence.",
		},
		[]string{"device"},
	)
	streamResyncs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "idtp",
			Subsystem: "stream",
			Name:      "resyncs_total",
			Help:      "False preambles skipped while recovering frame boundaries.",
		},
	)
	captureWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "idtp",
			Subsystem: "capture",
			Name:      "writes_total",
			Help:      "Frames persisted to the capture store.",
		},
		[]string{"success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesTotal, frameBytes, sequenceGaps, streamResyncs, captureWrites)
	})
}

// ResultLabel maps a codec error to a bounded metric label.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, protocol.ErrInvalidCRC):
		return "invalid_crc"
	case errors.Is(err, protocol.ErrInvalidHMAC):
		return "invalid_hmac"
	case errors.Is(err, protocol.ErrInvalidHMACKey):
		return "missing_key"
	case errors.Is(err, protocol.ErrBufferUnderflow):
		return "underflow"
	case errors.Is(err, protocol.ErrBufferOverflow):
		return "overflow"
	case errors.Is(err, protocol.ErrParse):
		return "parse"
	default:
		return "error"
	}
}

func RecordFrame(direction string, mode protocol.Mode, size int, err error) {
	RegisterMetrics()
	framesTotal.WithLabelValues(direction, mode.String(), ResultLabel(err)).Inc()
	if err == nil {
		frameBytes.WithLabelValues(direction).Observe(float64(size))
	}
}

func RecordSequenceGap(device uint16, missed uint32) {
	RegisterMetrics()
	sequenceGaps.WithLabelValues("0x" + strconv.FormatUint(uint64(device), 16)).Add(float64(missed))
}

func RecordResyncs(n uint64) {
	RegisterMetrics()
	if n > 0 {
		streamResyncs.Add(float64(n))
	}
}

func RecordCaptureWrite(success bool) {
	RegisterMetrics()
	captureWrites.WithLabelValues(strconv.FormatBool(success)).Inc()
}
