package session

import (
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	ncerr "udptcp/internal/errors"
	"udptcp/internal/events"
	"udptcp/internal/transport"
	"udptcp/util"
)

// TCPServer owns one listening socket, its accept worker and the
// registry of accepted peers.
//
// Each admitted peer gets a reader goroutine inside the accept
// worker's group, so a single join waits for the whole server.  A
// reader reports data and removes its peer once the connection fails
// or is closed by either end.
type TCPServer struct {
	opts Options

	mu sync.Mutex
	ln *net.TCPListener
	w  *worker

	running RunFlag
	peers   registry
}

// NewTCPServer returns a stopped server.
func NewTCPServer(opts Options) *TCPServer {
	return &TCPServer{opts: opts.withDefaults()}
}

// Begin listens on address and spawns the accept worker.  It returns
// the port actually bound.  Failures are also reported as ERR events.
func (s *TCPServer) Begin(address string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln != nil {
		s.fail("listen on %s: %v", address, ncerr.ErrAlreadyRunning)
		return 0, ncerr.ErrAlreadyRunning
	}
	ln, err := transport.ListenTCP(address)
	if err != nil {
		s.fail("%v", err)
		return 0, err
	}

	s.ln = ln
	s.running.Set()
	s.w = spawn("tcp-server", &s.running, func(w *worker) { s.acceptLoop(w, ln) })
	s.opts.Metrics.SessionStarted()
	s.opts.Logger.Verbose("tcp-server: worker started on %s", ln.Addr())
	s.opts.Sink.Infof(events.TCPServer, "listening on %s", ln.Addr())
	return transport.Port(ln.Addr()), nil
}

// Clients returns a snapshot of the connected peers in accept order.
func (s *TCPServer) Clients() []*Peer {
	return s.peers.snapshot()
}

// NumClients returns the number of connected peers.
func (s *TCPServer) NumClients() int {
	return s.peers.len()
}

// Peer looks up a connected peer by remote address.
func (s *TCPServer) Peer(addr netip.AddrPort) (*Peer, bool) {
	return s.peers.get(unmap(addr))
}

// CloseClient shuts down and removes the peer at addr.  Unknown
// addresses are ignored.
func (s *TCPServer) CloseClient(addr netip.AddrPort) {
	p := s.peers.removeAddr(unmap(addr))
	if p == nil {
		return
	}
	p.conn.Close()
	s.opts.Metrics.PeerRemoved()
	s.opts.Sink.Infof(events.TCPServer, "closed connection to %s", p.addr)
}

// SendData writes payload to peer.  Failures are reported as ERR
// events; the peer stays registered until its reader notices it is gone.
func (s *TCPServer) SendData(payload []byte, peer *Peer) {
	text := util.DecodeLossy(payload)
	if peer == nil {
		s.fail("error sending %q: %v", text, ncerr.ErrNoPeer)
		return
	}
	peer.conn.SetWriteDeadline(deadline(s.opts.WriteTimeout)) //nolint:errcheck
	n, err := peer.conn.Write(payload)
	if err != nil {
		s.fail("error sending %q to %s: %v", text, peer.addr, err)
		return
	}
	s.opts.Metrics.Sent(n)
	s.opts.Sink.Sendf(events.TCPServer, "%q to %s", text, peer.addr)
}

// Disconnect stops the accept worker, closes every peer and releases
// the listener.  It is a no-op on a stopped server.
func (s *TCPServer) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w != nil {
		s.running.Clear()
		if err := s.w.join(); err != nil {
			s.opts.Logger.Error("tcp-server: worker termination: %v", err)
		} else {
			s.opts.Logger.Verbose("tcp-server: worker joined")
		}
		s.w = nil
		s.opts.Metrics.SessionStopped()
	}

	for _, p := range s.peers.drain() {
		p.conn.Close()
		s.opts.Metrics.PeerRemoved()
	}

	if s.ln != nil {
		addr := s.ln.Addr()
		s.ln.Close()
		s.ln = nil
		s.opts.Sink.Infof(events.TCPServer, "stopped listening on %s", addr)
	}
}

// Close fully stops the server.  It never fails.
func (s *TCPServer) Close() error {
	s.Disconnect()
	return nil
}

// IsUp reports whether the listener exists and the worker is running.
func (s *TCPServer) IsUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ln != nil && s.running.IsSet()
}

// LocalAddr returns the listening address, or nil.
func (s *TCPServer) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *TCPServer) acceptLoop(w *worker, ln *net.TCPListener) {
	for s.running.IsSet() {
		ln.SetDeadline(deadline(s.opts.ReadTimeout)) //nolint:errcheck
		conn, err := ln.AcceptTCP()
		switch {
		case err == nil:
			p := s.admit(conn)
			w.goSub("peer "+p.addr.String(), func() { s.readLoop(p) })
		case ncerr.IsTimeout(err):
		default:
			s.fail("accept: %v", err)
			// Listener errors such as EMFILE return immediately.
			time.Sleep(s.opts.ReadTimeout)
		}
	}
}

func (s *TCPServer) admit(conn *net.TCPConn) *Peer {
	p := &Peer{
		addr:  transport.AddrPort(conn.RemoteAddr()),
		conn:  conn,
		since: time.Now(),
	}
	if old := s.peers.add(p); old != nil {
		old.conn.Close()
		s.opts.Metrics.PeerRemoved()
	}
	s.opts.Metrics.PeerAdded()
	s.opts.Sink.Infof(events.TCPServer, "new connection from %s", p.addr)
	return p
}

// readLoop receives from one peer until the server stops or the
// connection ends.  Any read error other than the poll deadline ends
// the connection.
func (s *TCPServer) readLoop(p *Peer) {
	buf := util.GetBuf()
	defer util.PutBuf(buf)

	for s.running.IsSet() {
		p.conn.SetReadDeadline(deadline(s.opts.ReadTimeout)) //nolint:errcheck
		n, err := p.conn.Read(*buf)
		if n > 0 {
			s.opts.Metrics.Received(n)
			s.opts.Sink.Recvf(events.TCPServer, "%q from %s", util.DecodeLossy((*buf)[:n]), p.addr)
		}
		if err == nil || ncerr.IsTimeout(err) {
			continue
		}
		// Already gone if CloseClient, Disconnect or a replacing
		// connection got there first.
		if !s.peers.remove(p) {
			return
		}
		p.conn.Close()
		s.opts.Metrics.PeerRemoved()
		if ncerr.IsClosed(err) {
			s.opts.Sink.Infof(events.TCPServer, "%s disconnected", p.addr)
		} else {
			s.fail("receiving error from %s: %v", p.addr, err)
		}
		return
	}
}

func (s *TCPServer) fail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.opts.Metrics.RecordError(msg)
	s.opts.Sink.Errorf(events.TCPServer, "%s", msg)
}

func unmap(a netip.AddrPort) netip.AddrPort {
	return netip.AddrPortFrom(a.Addr().Unmap(), a.Port())
}
