package transport

import (
	"context"
	"io"
	"net"
	"net/netip"
	"testing"
	"time"

	ncerr "udptcp/internal/errors"
)

// TestTCPDialer_Connect verifies that TCPDialer can reach a local
// TCP server and exchange data.
func TestTCPDialer_Connect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	// Server: accept, send greeting, close.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("hello from server\n")) //nolint:errcheck
	}()

	d := &TCPDialer{Timeout: 2 * time.Second}
	conn, err := d.Dial(context.Background(), "tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); got != "hello from server\n" {
		t.Errorf("got %q, want %q", got, "hello from server\n")
	}
}

// TestTCPDialer_ContextCancel verifies that a cancelled context stops the dial.
func TestTCPDialer_ContextCancel(t *testing.T) {
	d := &TCPDialer{Timeout: 5 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dial(ctx, "tcp", "127.0.0.1:1")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	var ne *ncerr.NetworkError
	if !ncerr.As(err, &ne) || ne.Op != "dial" {
		t.Errorf("expected dial NetworkError, got %v", err)
	}
}

// TestTCPDialer_Close verifies Close is a no-op and returns nil.
func TestTCPDialer_Close(t *testing.T) {
	d := &TCPDialer{}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestBindUDP_EphemeralPort(t *testing.T) {
	conn, err := BindUDP("127.0.0.1:0", false)
	if err != nil {
		t.Fatalf("BindUDP: %v", err)
	}
	defer conn.Close()

	if p := Port(conn.LocalAddr()); p == 0 {
		t.Error("expected a concrete non-zero port")
	}
}

func TestBindUDP_Broadcast(t *testing.T) {
	for _, want := range []bool{false, true} {
		conn, err := BindUDP("127.0.0.1:0", want)
		if err != nil {
			t.Fatalf("BindUDP: %v", err)
		}
		got, err := Broadcast(conn)
		conn.Close()
		if err != nil {
			t.Fatalf("Broadcast: %v", err)
		}
		if got != want {
			t.Errorf("SO_BROADCAST = %v, want %v", got, want)
		}
	}
}

func TestSetBroadcast_Toggle(t *testing.T) {
	conn, err := BindUDP("127.0.0.1:0", false)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := SetBroadcast(conn, true); err != nil {
		t.Fatalf("SetBroadcast(true): %v", err)
	}
	if on, _ := Broadcast(conn); !on {
		t.Error("broadcast should be on")
	}
	if err := SetBroadcast(conn, false); err != nil {
		t.Fatalf("SetBroadcast(false): %v", err)
	}
	if on, _ := Broadcast(conn); on {
		t.Error("broadcast should be off")
	}
}

func TestBindUDP_Errors(t *testing.T) {
	held, err := BindUDP("127.0.0.1:0", false)
	if err != nil {
		t.Fatal(err)
	}
	defer held.Close()

	tests := []struct {
		name string
		addr string
	}{
		{"in use", held.LocalAddr().String()},
		{"invalid", "not-an-address"},
		{"bad port", "127.0.0.1:99999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := BindUDP(tt.addr, false)
			if err == nil {
				conn.Close()
				t.Fatal("expected bind error")
			}
			if !ncerr.IsBind(err) {
				t.Errorf("expected BindError, got %T: %v", err, err)
			}
		})
	}
}

func TestListenTCP(t *testing.T) {
	ln, err := ListenTCP("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	if Port(ln.Addr()) == 0 {
		t.Error("expected a concrete non-zero port")
	}

	_, err = ListenTCP(ln.Addr().String())
	if !ncerr.IsBind(err) {
		t.Errorf("second listen: expected BindError, got %v", err)
	}
}

func TestAddrPort(t *testing.T) {
	tests := []struct {
		name string
		addr net.Addr
		want netip.AddrPort
	}{
		{"tcp v4", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 80}, netip.MustParseAddrPort("127.0.0.1:80")},
		{"udp v4", &net.UDPAddr{IP: net.ParseIP("10.1.2.3"), Port: 53}, netip.MustParseAddrPort("10.1.2.3:53")},
		{"tcp v6", &net.TCPAddr{IP: net.IPv6loopback, Port: 443}, netip.MustParseAddrPort("[::1]:443")},
		{"nil", nil, netip.AddrPort{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddrPort(tt.addr); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
