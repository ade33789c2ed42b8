package session

import (
	"net"
	"net/netip"
	"sync"
	"time"
)

// Peer is one connection accepted by a TCPServer.
type Peer struct {
	addr  netip.AddrPort
	conn  net.Conn
	since time.Time
}

// Addr returns the peer's remote address.
func (p *Peer) Addr() netip.AddrPort { return p.addr }

// Since returns when the connection was accepted.
func (p *Peer) Since() time.Time { return p.since }

func (p *Peer) String() string { return p.addr.String() }

// registry is the server's ordered set of peers, unique by address.
// Readers get copies of the slice so iteration never races with the
// accept worker.
type registry struct {
	mu    sync.Mutex
	peers []*Peer
}

// add appends p.  An entry already registered under the same address
// is replaced and returned so the caller can close it.
func (r *registry) add(p *Peer) (replaced *Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, old := range r.peers {
		if old.addr == p.addr {
			r.peers = append(r.peers[:i], r.peers[i+1:]...)
			replaced = old
			break
		}
	}
	r.peers = append(r.peers, p)
	return replaced
}

// remove deletes exactly p and reports whether it was present.
func (r *registry) remove(p *Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.peers {
		if cur == p {
			r.peers = append(r.peers[:i], r.peers[i+1:]...)
			return true
		}
	}
	return false
}

// removeAddr deletes and returns the peer at addr, or nil.
func (r *registry) removeAddr(addr netip.AddrPort) *Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.peers {
		if cur.addr == addr {
			r.peers = append(r.peers[:i], r.peers[i+1:]...)
			return cur
		}
	}
	return nil
}

func (r *registry) get(addr netip.AddrPort) (*Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.peers {
		if p.addr == addr {
			return p, true
		}
	}
	return nil, false
}

func (r *registry) snapshot() []*Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Peer, len(r.peers))
	copy(out, r.peers)
	return out
}

// drain empties the registry and returns what it held.
func (r *registry) drain() []*Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.peers
	r.peers = nil
	return out
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}
