package transport

import (
	"fmt"
	"net"
)

// udpLink carries one frame per datagram. A link with only Remote set is
// connected; with Addr set it is bound and writes go to Remote if given.
type udpLink struct {
	conn      *net.UDPConn
	remote    *net.UDPAddr
	connected bool
}

func openUDP(cfg Config) (Link, error) {
	var remote *net.UDPAddr
	if cfg.Remote != "" {
		addr, err := net.ResolveUDPAddr("udp", cfg.Remote)
		if err != nil {
			return nil, fmt.Errorf("transport: resolve %s: %w", cfg.Remote, err)
		}
		remote = addr
	}
	if cfg.Addr == "" {
		if remote == nil {
			return nil, fmt.Errorf("transport: udp needs addr or remote")
		}
		conn, err := net.DialUDP("udp", nil, remote)
		if err != nil {
			return nil, fmt.Errorf("transport: dial %s: %w", cfg.Remote, err)
		}
		return &udpLink{conn: conn, remote: remote, connected: true}, nil
	}
	local, err := net.ResolveUDPAddr("udp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", cfg.Addr, err)
	}
	conn, err := net.ListenUDP("udp", local)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", cfg.Addr, err)
	}
	return &udpLink{conn: conn, remote: remote}, nil
}

// Read returns one datagram. A buffer smaller than the datagram truncates it,
// which the frame validator then rejects.
func (l *udpLink) Read(p []byte) (int, error) {
	n, _, err := l.conn.ReadFromUDP(p)
	return n, err
}

func (l *udpLink) Write(p []byte) (int, error) {
	if l.connected {
		return l.conn.Write(p)
	}
	if l.remote == nil {
		return 0, ErrNoRemote
	}
	return l.conn.WriteToUDP(p, l.remote)
}

func (l *udpLink) Close() error   { return l.conn.Close() }
func (l *udpLink) Datagram() bool { return true }

// LocalAddr reports the bound address; useful when Addr used port 0.
func (l *udpLink) LocalAddr() net.Addr { return l.conn.LocalAddr() }
