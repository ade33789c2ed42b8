// Package transport acquires OS transport endpoints: bound UDP sockets,
// listening TCP sockets and connected TCP sockets.  It reports the
// concrete local address the OS actually assigned, which matters when
// the caller asked for port 0.
//
// Sessions own what this package returns; nothing here starts
// goroutines.
package transport

import (
	"context"
	"net"
	"net/netip"
	"strconv"
)

// Dialer opens outbound network connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer.
	// Stateless dialers return nil.
	Close() error
}

// AddrPort converts a socket address to its netip form, unmapping
// IPv4-in-IPv6 so it compares equal to a plain IPv4 peer.
func AddrPort(a net.Addr) netip.AddrPort {
	var ap netip.AddrPort
	switch v := a.(type) {
	case *net.TCPAddr:
		ap = v.AddrPort()
	case *net.UDPAddr:
		ap = v.AddrPort()
	case nil:
		return netip.AddrPort{}
	default:
		ap, _ = netip.ParseAddrPort(a.String())
	}
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

// Port returns the port of a socket address, or 0 if it has none.
func Port(a net.Addr) int {
	return int(AddrPort(a).Port())
}

// network picks the address-family-specific network name so that an
// IPv4 address never silently yields a dual-stack socket.
func network(base string, ip net.IP) string {
	if ip != nil && ip.To4() != nil {
		return base + "4"
	}
	return base
}

func itoa(n int) string { return strconv.Itoa(n) }
