package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "sender":
		return senderTemplate, nil
	case "receiver":
		return receiverTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const senderTemplate = `name = "imu-node"
device_id = 171
mode = "safety"
payload = "imu6"
rate_hz = 100.0

[key]
hex = ""

[transport]
kind = "udp"
remote = "127.0.0.1:7400"
`

const receiverTemplate = `name = "imu-sink"
mode = "safety"

[key]
master_hex = ""

[transport]
kind = "udp"
addr = ":7400"

[metrics]
addr = ":9464"

[capture]
enabled = false
dir = "./capture"

[receiver]
strict_version = false
derive_keys = false
`
