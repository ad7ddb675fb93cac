// Package transport opens the physical links IDTP frames travel over: a UART
// for byte streams and UDP for one-frame-per-datagram delivery.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

const (
	KindSerial = "serial"
	KindUDP    = "udp"

	DefaultBaud = 115200
)

var ErrNoRemote = errors.New("transport: no remote peer for write")

type Config struct {
	Kind   string
	Port   string
	Baud   int
	Addr   string
	Remote string
}

// Link is an open transport. Datagram links deliver exactly one frame per
// Read; stream links need a stream.Reader on top.
type Link interface {
	io.ReadWriteCloser
	Datagram() bool
}

func Open(cfg Config) (Link, error) {
	switch cfg.Kind {
	case KindSerial:
		return openSerial(cfg)
	case KindUDP:
		return openUDP(cfg)
	default:
		return nil, fmt.Errorf("transport: unknown kind %q", cfg.Kind)
	}
}

// OpenWithRetry retries Open with backoff until it succeeds or ctx ends.
// Serial adapters routinely disappear and come back on USB re-enumeration.
func OpenWithRetry(ctx context.Context, cfg Config, backoff BackoffConfig, logger zerolog.Logger) (Link, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for attempt := 1; ; attempt++ {
		link, err := Open(cfg)
		if err == nil {
			return link, nil
		}
		delay := NextBackoffDelay(backoff, attempt, rng)
		logger.Warn().Err(err).Str("kind", cfg.Kind).Int("attempt", attempt).Dur("retry_in", delay).Msg("transport open failed")
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
