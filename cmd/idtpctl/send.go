package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/idtp/internal/config"
	"github.com/danmuck/idtp/internal/observability"
	"github.com/danmuck/idtp/internal/protocol/integrity"
	"github.com/danmuck/idtp/internal/sender"
	"github.com/danmuck/idtp/internal/transport"
	"github.com/spf13/cobra"
)

func newSendCmd() *cobra.Command {
	var (
		path  string
		count int
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Stream synthetic IMU frames at the configured rate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadNodeConfig(path)
			if err != nil {
				return err
			}
			logger := observability.InitLogger("idtpctl-send")
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			key, err := cfg.Key.Resolve(cfg.DeviceID)
			if err != nil {
				return err
			}
			link, err := transport.OpenWithRetry(ctx, transportConfig(cfg), transport.DefaultBackoff(), logger)
			if err != nil {
				return err
			}
			defer link.Close()

			s, err := sender.New(link, sender.Options{
				DeviceID: cfg.DeviceID,
				Mode:     cfg.OpMode(),
				Suite:    integrity.Software(key),
			})
			if err != nil {
				return err
			}
			logger.Info().
				Uint16("device", cfg.DeviceID).
				Str("mode", cfg.OpMode().String()).
				Str("payload", cfg.Payload).
				Float64("rate_hz", cfg.RateHz).
				Msg("sending")
			return runSender(ctx, s, cfg.Payload, cfg.RateHz, count)
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "sender.toml", "node config path")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after n frames (0 = until interrupted)")
	return cmd
}

func runSender(ctx context.Context, s *sender.Sender, kind string, rateHz float64, count int) error {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rateHz))
	defer ticker.Stop()
	start := time.Now()
	for sent := 0; count == 0 || sent < count; sent++ {
		p, err := sender.Synthetic(kind, time.Since(start))
		if err != nil {
			return err
		}
		if _, err := s.Send(p); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}
