package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_LocalEndpoint(t *testing.T) {
	t.Setenv("UDPTCP_LOCAL_IP", "192.168.1.20")
	t.Setenv("UDPTCP_UDP_PORT", "5000")
	t.Setenv("UDPTCP_TCP_SERVER_PORT", "6000")
	t.Setenv("UDPTCP_TCP_CLIENT_PORT", "7000")

	cfg := Default()
	LoadFromEnv(cfg)

	if cfg.LocalIP != "192.168.1.20" {
		t.Errorf("LocalIP = %q, want 192.168.1.20", cfg.LocalIP)
	}
	if cfg.UDPPort != 5000 || cfg.TCPServerPort != 6000 || cfg.TCPClientPort != 7000 {
		t.Errorf("ports = %d/%d/%d, want 5000/6000/7000", cfg.UDPPort, cfg.TCPServerPort, cfg.TCPClientPort)
	}
}

func TestLoadFromEnv_ZeroPortOverrides(t *testing.T) {
	t.Setenv("UDPTCP_UDP_PORT", "0")
	cfg := &Config{UDPPort: 9000}
	LoadFromEnv(cfg)
	if cfg.UDPPort != 0 {
		t.Errorf("UDPPort = %d, want 0", cfg.UDPPort)
	}
}

func TestLoadFromEnv_InvalidIntIgnored(t *testing.T) {
	t.Setenv("UDPTCP_UDP_PORT", "abc")
	cfg := &Config{UDPPort: 9000}
	LoadFromEnv(cfg)
	if cfg.UDPPort != 9000 {
		t.Errorf("UDPPort = %d, want 9000 (invalid env ignored)", cfg.UDPPort)
	}
}

func TestLoadFromEnv_Broadcast(t *testing.T) {
	for _, v := range []string{"1", "true", "yes", "TRUE", "Yes"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("UDPTCP_BROADCAST", v)
			cfg := &Config{}
			LoadFromEnv(cfg)
			if !cfg.Broadcast {
				t.Error("Broadcast should be true")
			}
		})
	}

	t.Run("no", func(t *testing.T) {
		t.Setenv("UDPTCP_BROADCAST", "no")
		cfg := &Config{}
		LoadFromEnv(cfg)
		if cfg.Broadcast {
			t.Error("Broadcast should stay false")
		}
	})
}

func TestLoadFromEnv_Remotes(t *testing.T) {
	t.Setenv("UDPTCP_UDP_REMOTE", "10.0.0.255:5000")
	t.Setenv("UDPTCP_TCP_REMOTE", "10.0.0.7:6000")
	cfg := &Config{}
	LoadFromEnv(cfg)
	if cfg.UDPRemote != "10.0.0.255:5000" {
		t.Errorf("UDPRemote = %q", cfg.UDPRemote)
	}
	if cfg.TCPRemote != "10.0.0.7:6000" {
		t.Errorf("TCPRemote = %q", cfg.TCPRemote)
	}
}

func TestLoadFromEnv_Timing(t *testing.T) {
	t.Setenv("UDPTCP_READ_TIMEOUT_MS", "250")
	t.Setenv("UDPTCP_TICK_MS", "20")
	cfg := Default()
	LoadFromEnv(cfg)
	if cfg.ReadTimeout != 250*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 250ms", cfg.ReadTimeout)
	}
	if cfg.Tick != 20*time.Millisecond {
		t.Errorf("Tick = %v, want 20ms", cfg.Tick)
	}
}

func TestLoadFromEnv_NegativeTimingIgnored(t *testing.T) {
	t.Setenv("UDPTCP_READ_TIMEOUT_MS", "-5")
	cfg := Default()
	LoadFromEnv(cfg)
	if cfg.ReadTimeout != DefaultReadTimeout {
		t.Errorf("ReadTimeout = %v, want default", cfg.ReadTimeout)
	}
}

func TestLoadFromEnv_Verbose(t *testing.T) {
	t.Setenv("UDPTCP_VERBOSE", "2")
	cfg := &Config{}
	LoadFromEnv(cfg)
	if cfg.Verbose != 2 {
		t.Errorf("Verbose = %d, want 2", cfg.Verbose)
	}
}

func TestLoadFromEnv_EmptyDoesNotOverride(t *testing.T) {
	cfg := &Config{LocalIP: "10.0.0.1", UDPPort: 5000}
	LoadFromEnv(cfg)
	if cfg.LocalIP != "10.0.0.1" || cfg.UDPPort != 5000 {
		t.Errorf("empty env changed config: %+v", cfg)
	}
}
