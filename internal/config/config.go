package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/idtp/internal/keys"
	"github.com/danmuck/idtp/internal/protocol"
)

const (
	TransportSerial = "serial"
	TransportUDP    = "udp"

	DefaultBaud        = 115200
	DefaultRateHz      = 100.0
	DefaultPayload     = "imu6"
	DefaultMetricsAddr = ":9464"
)

// NodeConfig is shared by the sender and receiver sides of idtpctl.
type NodeConfig struct {
	Name      string          `toml:"name"`
	DeviceID  uint16          `toml:"device_id"`
	Mode      string          `toml:"mode"`
	Payload   string          `toml:"payload"`
	RateHz    float64         `toml:"rate_hz"`
	Key       KeyConfig       `toml:"key"`
	Transport TransportConfig `toml:"transport"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Capture   CaptureConfig   `toml:"capture"`
	Receiver  ReceiverConfig  `toml:"receiver"`
}

// KeyConfig names where the Secure-mode key comes from. The first non-empty
// source wins: hex, file, then master_hex (derived per device).
type KeyConfig struct {
	Hex       string `toml:"hex"`
	File      string `toml:"file"`
	MasterHex string `toml:"master_hex"`
}

type TransportConfig struct {
	Kind   string `toml:"kind"`
	Port   string `toml:"port"`
	Baud   int    `toml:"baud"`
	Addr   string `toml:"addr"`
	Remote string `toml:"remote"`
}

type MetricsConfig struct {
	Addr string `toml:"addr"`
}

type CaptureConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ReceiverConfig struct {
	// StrictVersion drops frames whose version byte differs from ours.
	StrictVersion bool `toml:"strict_version"`
	// DeriveKeys derives each sender's key from key.master_hex by device id.
	DeriveKeys    bool `toml:"derive_keys"`
}

func LoadNodeConfig(path string) (NodeConfig, error) {
	var cfg NodeConfig
	if err := loadToml(path, &cfg); err != nil {
		return NodeConfig{}, err
	}
	ApplyDefaults(&cfg)
	if err := ValidateNodeConfig(cfg); err != nil {
		return NodeConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ApplyDefaults(cfg *NodeConfig) {
	if cfg.Name == "" {
		cfg.Name = "idtp-node"
	}
	if cfg.Mode == "" {
		cfg.Mode = "safety"
	}
	if cfg.Payload == "" {
		cfg.Payload = DefaultPayload
	}
	if cfg.RateHz == 0 {
		cfg.RateHz = DefaultRateHz
	}
	if cfg.Transport.Kind == "" {
		cfg.Transport.Kind = TransportUDP
	}
	if cfg.Transport.Kind == TransportSerial && cfg.Transport.Baud == 0 {
		cfg.Transport.Baud = DefaultBaud
	}
	if cfg.Capture.Enabled && cfg.Capture.Dir == "" {
		cfg.Capture.Dir = "./capture"
	}
}

func ValidateNodeConfig(cfg NodeConfig) error {
	mode, err := protocol.ParseMode(strings.ToLower(strings.TrimSpace(cfg.Mode)))
	if err != nil {
		return fmt.Errorf("node config mode invalid: %w", err)
	}
	if cfg.RateHz < 0 {
		return fmt.Errorf("node config rate_hz must be positive")
	}
	switch cfg.Transport.Kind {
	case TransportSerial:
		if strings.TrimSpace(cfg.Transport.Port) == "" {
			return fmt.Errorf("transport.port required for serial")
		}
		if cfg.Transport.Baud <= 0 {
			return fmt.Errorf("transport.baud must be positive")
		}
	case TransportUDP:
		if strings.TrimSpace(cfg.Transport.Addr) == "" && strings.TrimSpace(cfg.Transport.Remote) == "" {
			return fmt.Errorf("transport.addr or transport.remote required for udp")
		}
	default:
		return fmt.Errorf("transport.kind unknown: %q", cfg.Transport.Kind)
	}
	if mode == protocol.ModeSecure && !cfg.Key.Configured() {
		return fmt.Errorf("secure mode requires a key (key.hex, key.file or key.master_hex)")
	}
	if cfg.Receiver.DeriveKeys && strings.TrimSpace(cfg.Key.MasterHex) == "" {
		return fmt.Errorf("receiver.derive_keys requires key.master_hex")
	}
	return nil
}

// OpMode returns the parsed mode. Call after ValidateNodeConfig.
func (c NodeConfig) OpMode() protocol.Mode {
	m, _ := protocol.ParseMode(strings.ToLower(strings.TrimSpace(c.Mode)))
	return m
}

func (k KeyConfig) Configured() bool {
	return strings.TrimSpace(k.Hex) != "" || strings.TrimSpace(k.File) != "" || strings.TrimSpace(k.MasterHex) != ""
}

// Resolve returns the key for deviceID, or nil when none is configured.
func (k KeyConfig) Resolve(deviceID uint16) ([]byte, error) {
	switch {
	case strings.TrimSpace(k.Hex) != "":
		return keys.ParseHex(k.Hex)
	case strings.TrimSpace(k.File) != "":
		return keys.LoadFile(k.File)
	case strings.TrimSpace(k.MasterHex) != "":
		master, err := keys.ParseHex(k.MasterHex)
		if err != nil {
			return nil, err
		}
		return keys.DeriveDeviceKey(master, deviceID)
	default:
		return nil, nil
	}
}
