package session

import (
	"fmt"
	"net/netip"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peerAt(addr string) *Peer {
	return &Peer{addr: netip.MustParseAddrPort(addr), conn: &failingConn{}}
}

func addrs(peers []*Peer) []string {
	out := make([]string, len(peers))
	for i, p := range peers {
		out[i] = p.String()
	}
	return out
}

func TestRegistry_KeepsAcceptOrder(t *testing.T) {
	var r registry
	for _, a := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.1:2"} {
		assert.Nil(t, r.add(peerAt(a)))
	}
	assert.Equal(t, []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.1:2"}, addrs(r.snapshot()))
	assert.Equal(t, 3, r.len())
}

func TestRegistry_DuplicateAddressReplaces(t *testing.T) {
	var r registry
	first := peerAt("10.0.0.1:1")
	r.add(first)
	r.add(peerAt("10.0.0.2:1"))

	second := peerAt("10.0.0.1:1")
	replaced := r.add(second)
	require.Same(t, first, replaced)

	assert.Equal(t, 2, r.len(), "addresses stay unique")
	assert.Equal(t, []string{"10.0.0.2:1", "10.0.0.1:1"}, addrs(r.snapshot()), "the new entry goes last")
	got, ok := r.get(second.addr)
	require.True(t, ok)
	assert.Same(t, second, got)

	assert.False(t, r.remove(first), "a replaced entry is no longer registered")
}

func TestRegistry_Remove(t *testing.T) {
	var r registry
	a, b := peerAt("10.0.0.1:1"), peerAt("10.0.0.2:1")
	r.add(a)
	r.add(b)

	assert.True(t, r.remove(a))
	assert.False(t, r.remove(a))
	assert.Nil(t, r.removeAddr(a.addr))
	assert.Same(t, b, r.removeAddr(b.addr))
	assert.Zero(t, r.len())

	_, ok := r.get(b.addr)
	assert.False(t, ok)
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	var r registry
	r.add(peerAt("10.0.0.1:1"))

	snap := r.snapshot()
	r.add(peerAt("10.0.0.2:1"))
	snap[0] = nil

	assert.Len(t, snap, 1)
	assert.NotNil(t, r.snapshot()[0])
}

func TestRegistry_Drain(t *testing.T) {
	var r registry
	r.add(peerAt("10.0.0.1:1"))
	r.add(peerAt("10.0.0.2:1"))

	assert.Len(t, r.drain(), 2)
	assert.Zero(t, r.len())
	assert.Empty(t, r.drain())
}

func TestRegistry_Concurrent(t *testing.T) {
	var r registry
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p := peerAt(fmt.Sprintf("10.0.%d.%d:%d", i, j%4, j))
				r.add(p)
				r.snapshot()
				r.get(p.addr)
				if j%2 == 0 {
					r.remove(p)
				} else {
					r.removeAddr(p.addr)
				}
			}
		}(i)
	}
	wg.Wait()
	assert.Zero(t, r.len())
}
