// Package config defines the runtime configuration for udptcp: the
// local address the sessions bind to, remote endpoints, timing and
// output settings.
package config

import (
	"net"
	"net/netip"
	"time"

	ncerr "udptcp/internal/errors"
	"udptcp/util"
)

// Config holds every tuneable for one udptcp run.
type Config struct {
	// ── Local endpoint ───────────────────────────────────────────────
	LocalIP       string // address every session binds to
	UDPPort       int    // 0 = ephemeral
	TCPServerPort int    // 0 = ephemeral
	TCPClientPort int    // TCP client source port, 0 = ephemeral
	Broadcast     bool   // SO_BROADCAST on the UDP socket

	// ── Remotes ──────────────────────────────────────────────────────
	UDPRemote string // default destination for "send"
	TCPRemote string // server the TCP client connects to

	// ── Startup ──────────────────────────────────────────────────────
	StartUDP    bool
	StartServer bool
	Connect     bool // dial TCPRemote at startup

	// ── Timing ───────────────────────────────────────────────────────
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
	Tick         time.Duration

	// ── Output ───────────────────────────────────────────────────────
	Verbose    int
	Timestamps bool
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		LocalIP:      DefaultLocalIP,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		DialTimeout:  DefaultDialTimeout,
		Tick:         DefaultTick,
	}
}

// UDPAddr is the UDP session's bind address.
func (c *Config) UDPAddr() string {
	return util.FormatAddr(c.LocalIP, c.UDPPort)
}

// TCPServerAddr is the TCP server's listen address.
func (c *Config) TCPServerAddr() string {
	return util.FormatAddr(c.LocalIP, c.TCPServerPort)
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// Errors are *errors.ConfigError carrying a hint where one helps.
func (c *Config) Validate() error {
	ip, err := netip.ParseAddr(c.LocalIP)
	if err != nil {
		return &ncerr.ConfigError{
			Field:   "local-ip",
			Value:   c.LocalIP,
			Message: "not an IP address",
			Hint:    "use an interface address from 'netif', or 0.0.0.0 for all interfaces",
		}
	}

	for _, p := range []struct {
		field string
		port  int
	}{
		{"udp-port", c.UDPPort},
		{"tcp-server-port", c.TCPServerPort},
		{"tcp-client-port", c.TCPClientPort},
	} {
		if p.port < 0 || p.port > 65535 {
			return &ncerr.ConfigError{
				Field:   p.field,
				Value:   p.port,
				Message: "out of range 0-65535",
				Hint:    "use 0 for an ephemeral port",
			}
		}
	}

	if c.Broadcast && (ip.IsLoopback() || ip.IsUnspecified()) {
		return &ncerr.ConfigError{
			Field:   "broadcast",
			Value:   c.LocalIP,
			Message: "broadcast needs a LAN interface address",
			Hint:    "pick an address with a broadcast entry in 'netif'",
		}
	}

	for _, r := range []struct {
		field string
		addr  string
	}{
		{"udp-remote", c.UDPRemote},
		{"tcp-remote", c.TCPRemote},
	} {
		if r.addr == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(r.addr); err != nil {
			return &ncerr.ConfigError{
				Field:   r.field,
				Value:   r.addr,
				Message: err.Error(),
				Hint:    "expected host:port",
			}
		}
	}

	if c.Connect && c.TCPRemote == "" {
		return &ncerr.ConfigError{
			Field:   "connect",
			Message: "requires a remote server",
			Hint:    "set --tcp-remote host:port",
		}
	}

	for _, d := range []struct {
		field string
		v     time.Duration
	}{
		{"read-timeout", c.ReadTimeout},
		{"write-timeout", c.WriteTimeout},
		{"dial-timeout", c.DialTimeout},
		{"tick", c.Tick},
	} {
		if d.v <= 0 {
			return &ncerr.ConfigError{
				Field:   d.field,
				Value:   d.v,
				Message: "must be positive",
			}
		}
	}

	if c.ReadTimeout > time.Second {
		return &ncerr.ConfigError{
			Field:   "read-timeout",
			Value:   c.ReadTimeout,
			Message: "stop latency is bounded by this value",
			Hint:    "keep it at or below 1s; 100ms is the default",
		}
	}

	if c.Verbose < 0 || c.Verbose > 3 {
		return &ncerr.ConfigError{
			Field:   "verbose",
			Value:   c.Verbose,
			Message: "out of range 0-3",
		}
	}
	return nil
}
