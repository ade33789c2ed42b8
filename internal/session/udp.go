package session

import (
	"fmt"
	"net"
	"net/netip"
	"sync"

	ncerr "udptcp/internal/errors"
	"udptcp/internal/events"
	"udptcp/internal/transport"
	"udptcp/util"
)

// UDP owns one bound datagram socket and its receive worker.
type UDP struct {
	opts Options

	mu        sync.Mutex
	conn      *net.UDPConn
	broadcast bool // desired SO_BROADCAST, applied at bind
	w         *worker

	running RunFlag
}

// NewUDP returns an unbound, stopped UDP session.
func NewUDP(opts Options) *UDP {
	return &UDP{opts: opts.withDefaults()}
}

// Bind binds the session's socket at address and returns the port the
// OS actually assigned.  The current broadcast flag is applied.
func (u *UDP) Bind(address string) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn != nil {
		return 0, ncerr.ErrAlreadyBound
	}
	conn, err := transport.BindUDP(address, u.broadcast)
	if err != nil {
		return 0, err
	}
	u.conn = conn
	u.opts.Sink.Infof(events.UDP, "socket bound to %s (broadcast %v)", conn.LocalAddr(), u.broadcast)
	return transport.Port(conn.LocalAddr()), nil
}

// Start spawns the receive worker on the bound socket.
func (u *UDP) Start() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.w != nil {
		return ncerr.ErrAlreadyRunning
	}
	if u.conn == nil {
		return ncerr.ErrNotBound
	}
	if !u.running.TrySet() {
		return ncerr.ErrAlreadyRunning
	}

	conn := u.conn
	u.w = spawn("udp", &u.running, func(*worker) { u.recvLoop(conn) })
	u.opts.Metrics.SessionStarted()
	u.opts.Logger.Verbose("udp: worker started on %s", conn.LocalAddr())
	return nil
}

// BindAndStart binds at address and starts the worker.  The socket is
// released again if the worker cannot be started.
func (u *UDP) BindAndStart(address string) (int, error) {
	port, err := u.Bind(address)
	if err != nil {
		return 0, err
	}
	if err := u.Start(); err != nil {
		u.Disconnect()
		return 0, err
	}
	return port, nil
}

// Stop clears the running flag and joins the worker.  The socket stays
// bound.  Calling Stop on a stopped session does nothing.
func (u *UDP) Stop() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stopLocked()
}

func (u *UDP) stopLocked() {
	if u.w == nil {
		return
	}
	u.running.Clear()
	if err := u.w.join(); err != nil {
		u.opts.Logger.Error("udp: worker termination: %v", err)
	} else {
		u.opts.Logger.Verbose("udp: worker joined")
	}
	u.w = nil
	u.opts.Metrics.SessionStopped()
}

// Disconnect stops the worker and releases the socket.
func (u *UDP) Disconnect() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.stopLocked()
	if u.conn == nil {
		return
	}
	addr := u.conn.LocalAddr()
	u.conn.Close()
	u.conn = nil
	u.opts.Sink.Infof(events.UDP, "socket %s released", addr)
}

// Close fully stops the session.  It never fails.
func (u *UDP) Close() error {
	u.Disconnect()
	return nil
}

// ToggleBroadcast sets the desired SO_BROADCAST state.  When a socket
// is bound the option is applied immediately and the flag is recorded
// only if the OS accepts it; otherwise the flag is used at next Bind.
func (u *UDP) ToggleBroadcast(on bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn != nil {
		if err := transport.SetBroadcast(u.conn, on); err != nil {
			return fmt.Errorf("set broadcast on %s: %w", u.conn.LocalAddr(), err)
		}
	}
	u.broadcast = on
	return nil
}

// Broadcast returns the desired broadcast flag.
func (u *UDP) Broadcast() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.broadcast
}

// BroadcastEnabled reads SO_BROADCAST back from the bound socket.
func (u *UDP) BroadcastEnabled() (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn == nil {
		return false, ncerr.ErrNotBound
	}
	return transport.Broadcast(u.conn)
}

// SendTo sends payload to destination.  The outcome is reported as a
// SEND or ERR event only.
func (u *UDP) SendTo(payload []byte, destination string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	text := util.DecodeLossy(payload)
	if u.conn == nil {
		u.fail("error sending %q to %s: %v", text, destination, ncerr.ErrNotBound)
		return
	}
	dst, err := net.ResolveUDPAddr("udp", destination)
	if err != nil {
		u.fail("error sending %q to %s: %v", text, destination, err)
		return
	}
	n, err := u.conn.WriteToUDP(payload, dst)
	if err != nil {
		u.fail("error sending %q to %s: %v", text, destination, err)
		return
	}
	u.opts.Metrics.Sent(n)
	u.opts.Sink.Sendf(events.UDP, "%q to %s", text, dst)
}

// IsUp reports whether a socket is bound and the worker is running.
func (u *UDP) IsUp() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.conn != nil && u.running.IsSet()
}

// LocalAddr returns the bound address, or nil.
func (u *UDP) LocalAddr() net.Addr {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil
	}
	return u.conn.LocalAddr()
}

func (u *UDP) recvLoop(conn *net.UDPConn) {
	buf := util.GetBuf()
	defer util.PutBuf(buf)

	for u.running.IsSet() {
		conn.SetReadDeadline(deadline(u.opts.ReadTimeout)) //nolint:errcheck
		n, from, err := conn.ReadFromUDPAddrPort(*buf)
		if err != nil {
			if ncerr.IsTimeout(err) {
				continue
			}
			u.fail("receiving error: %v", err)
			continue
		}
		from = netip.AddrPortFrom(from.Addr().Unmap(), from.Port())
		u.opts.Metrics.Received(n)
		u.opts.Sink.Recvf(events.UDP, "%q from %s", util.DecodeLossy((*buf)[:n]), from)
	}
}

func (u *UDP) fail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	u.opts.Metrics.RecordError(msg)
	u.opts.Sink.Errorf(events.UDP, "%s", msg)
}
