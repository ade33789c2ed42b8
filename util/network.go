package util

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// ParsePeer parses a numeric "ip:port" peer address.  IPv4-mapped IPv6
// forms are unmapped so they compare equal to what accept reports.
func ParsePeer(s string) (netip.AddrPort, error) {
	ap, err := netip.ParseAddrPort(strings.TrimSpace(s))
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("invalid peer address %q: %w", s, err)
	}
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port()), nil
}

// FindFreePort returns an available TCP port on 127.0.0.1.
func FindFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// DecodeLossy turns a received payload into printable text.  Invalid
// UTF-8 runs are replaced by U+FFFD instead of failing the decode.
func DecodeLossy(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
