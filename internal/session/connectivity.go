package session

import (
	"context"
	"net"
	"time"
)

// Connectivity reports whether the device currently has network access.
type Connectivity interface {
	Online(ctx context.Context) bool
}

type ConnectivityFunc func(ctx context.Context) bool

func (f ConnectivityFunc) Online(ctx context.Context) bool {
	return f(ctx)
}

var AlwaysOnline Connectivity = ConnectivityFunc(func(context.Context) bool { return true })

// DialProbe treats the device as online when a TCP connection to Addr succeeds.
type DialProbe struct {
	Addr    string
	Timeout time.Duration
}

func (p DialProbe) Online(ctx context.Context) bool {
	if p.Addr == "" {
		return true
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
