package transport

import (
	"net"

	ncerr "udptcp/internal/errors"
)

// BindUDP binds a UDP socket at address (port 0 picks an ephemeral
// port) and sets SO_BROADCAST to broadcast.  The option is applied in
// both directions because the Go runtime enables it on every datagram
// socket it creates.
func BindUDP(address string, broadcast bool) (*net.UDPConn, error) {
	laddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, ncerr.Bind(address, err)
	}

	conn, err := net.ListenUDP(network("udp", laddr.IP), laddr)
	if err != nil {
		return nil, ncerr.Bind(address, err)
	}

	if err := SetBroadcast(conn, broadcast); err != nil {
		conn.Close()
		return nil, ncerr.Bind(address, err)
	}
	return conn, nil
}
