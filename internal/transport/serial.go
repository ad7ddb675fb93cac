package transport

import (
	"fmt"

	"go.bug.st/serial"
)

type serialLink struct {
	serial.Port
}

func (serialLink) Datagram() bool { return false }

func openSerial(cfg Config) (Link, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("transport: serial port required")
	}
	baud := cfg.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", cfg.Port, err)
	}
	return serialLink{Port: port}, nil
}
