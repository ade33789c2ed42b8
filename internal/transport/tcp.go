package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	ncerr "udptcp/internal/errors"
)

// ListenTCP opens a listening TCP socket at address.
func ListenTCP(address string) (*net.TCPListener, error) {
	laddr, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, ncerr.Bind(address, err)
	}
	ln, err := net.ListenTCP(network("tcp", laddr.IP), laddr)
	if err != nil {
		return nil, ncerr.Bind(address, err)
	}
	return ln, nil
}

// TCPDialer establishes plain TCP connections, optionally binding to a
// specific source port.
type TCPDialer struct {
	Timeout   time.Duration
	LocalPort int // optional source-port binding (0 = ephemeral)
}

// Dial connects to address over TCP.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout}

	if d.LocalPort > 0 {
		local := ":" + itoa(d.LocalPort)
		a, err := net.ResolveTCPAddr(network, local)
		if err != nil {
			return nil, fmt.Errorf("resolve local addr: %w", err)
		}
		dialer.LocalAddr = a
	}

	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, ncerr.Wrap("dial", address, err)
	}
	return conn, nil
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }
