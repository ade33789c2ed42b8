package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the UDPTCP_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("UDPTCP_LOCAL_IP"); v != "" {
		cfg.LocalIP = v
	}
	if v, ok := envInt("UDPTCP_UDP_PORT"); ok {
		cfg.UDPPort = v
	}
	if v, ok := envInt("UDPTCP_TCP_SERVER_PORT"); ok {
		cfg.TCPServerPort = v
	}
	if v, ok := envInt("UDPTCP_TCP_CLIENT_PORT"); ok {
		cfg.TCPClientPort = v
	}
	if envBool("UDPTCP_BROADCAST") {
		cfg.Broadcast = true
	}

	if v := os.Getenv("UDPTCP_UDP_REMOTE"); v != "" {
		cfg.UDPRemote = v
	}
	if v := os.Getenv("UDPTCP_TCP_REMOTE"); v != "" {
		cfg.TCPRemote = v
	}

	if v, ok := envInt("UDPTCP_READ_TIMEOUT_MS"); ok && v > 0 {
		cfg.ReadTimeout = msDuration(v)
	}
	if v, ok := envInt("UDPTCP_TICK_MS"); ok && v > 0 {
		cfg.Tick = msDuration(v)
	}

	// Output
	if v, ok := envInt("UDPTCP_VERBOSE"); ok && v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

// envInt reports the integer value of key and whether it was set to a
// valid number.  Ports need the distinction because 0 is meaningful.
func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
