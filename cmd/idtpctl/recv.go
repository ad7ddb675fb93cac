package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/idtp/internal/capture"
	"github.com/danmuck/idtp/internal/config"
	"github.com/danmuck/idtp/internal/keys"
	"github.com/danmuck/idtp/internal/observability"
	"github.com/danmuck/idtp/internal/protocol/integrity"
	"github.com/danmuck/idtp/internal/protocol/payload/imu"
	"github.com/danmuck/idtp/internal/receiver"
	"github.com/danmuck/idtp/internal/transport"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRecvCmd() *cobra.Command {
	var (
		path  string
		quiet bool
	)
	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Receive, verify and decode frames",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadNodeConfig(path)
			if err != nil {
				return err
			}
			logger := observability.InitLogger("idtpctl-recv")
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runReceiver(ctx, cfg, quiet, logger)
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "receiver.toml", "node config path")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not log each accepted frame")
	return cmd
}

func runReceiver(ctx context.Context, cfg config.NodeConfig, quiet bool, logger zerolog.Logger) error {
	opts := receiver.Options{
		Registry:      imu.NewRegistry(),
		StrictVersion: cfg.Receiver.StrictVersion,
		Logger:        logger,
	}
	if cfg.Receiver.DeriveKeys {
		master, err := keys.ParseHex(cfg.Key.MasterHex)
		if err != nil {
			return err
		}
		opts.Suite = integrity.Software(nil)
		opts.HMACFor = func(id uint16) (integrity.HMACFunc, error) {
			k, err := keys.DeriveDeviceKey(master, id)
			if err != nil {
				return nil, err
			}
			return integrity.HMAC(k), nil
		}
	} else {
		key, err := cfg.Key.Resolve(cfg.DeviceID)
		if err != nil {
			return err
		}
		opts.Suite = integrity.Software(key)
	}

	if cfg.Capture.Enabled {
		if err := os.MkdirAll(cfg.Capture.Dir, 0o755); err != nil {
			return fmt.Errorf("capture dir: %w", err)
		}
		store, err := capture.Open(cfg.Capture.Dir)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Capture = store
		logger.Info().Str("dir", cfg.Capture.Dir).Str("session", store.Session().String()).Msg("capturing")
	}
	if !quiet {
		opts.Handler = func(m receiver.Message) {
			logger.Info().
				Uint16("device", m.Header.DeviceID).
				Uint32("seq", m.Header.Sequence).
				Uint32("ts", m.Header.Timestamp).
				Str("mode", m.Header.OpMode().String()).
				Str("payload", opts.Registry.Name(m.Header.PayloadType)).
				Interface("data", m.Payload).
				Msg("frame")
		}
	}

	svc, err := receiver.New(opts)
	if err != nil {
		return err
	}
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := observability.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	link, err := transport.OpenWithRetry(ctx, transportConfig(cfg), transport.DefaultBackoff(), logger)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	logger.Info().Str("kind", cfg.Transport.Kind).Msg("receiving")
	err = svc.Run(ctx, link)
	st := svc.Stats()
	logger.Info().Uint64("accepted", st.Accepted).Uint64("rejected", st.Rejected).Uint64("gaps", st.Gaps).Msg("receiver stopped")
	return err
}
