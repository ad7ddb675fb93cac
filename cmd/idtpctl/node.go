package main

import (
	"github.com/danmuck/idtp/internal/config"
	"github.com/danmuck/idtp/internal/transport"
)

func transportConfig(cfg config.NodeConfig) transport.Config {
	return transport.Config{
		Kind:   cfg.Transport.Kind,
		Port:   cfg.Transport.Port,
		Baud:   cfg.Transport.Baud,
		Addr:   cfg.Transport.Addr,
		Remote: cfg.Transport.Remote,
	}
}
