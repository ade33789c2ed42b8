// Package netif lists the local IPv4 interfaces a session can bind to.
//
// Enumeration goes through github.com/wlynxg/anet, which falls back to
// netlink route messages on Android where net.Interfaces is denied.
package netif

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/wlynxg/anet"
)

// AnyName is the label of the synthetic INADDR_ANY entry.
const AnyName = "INADDR_ANY"

// Netif is one bindable local IPv4 address.
type Netif struct {
	Name      string
	IP        netip.Addr
	Broadcast netip.Addr // zero for loopback and INADDR_ANY
}

func (n Netif) String() string {
	if n.Broadcast.IsValid() {
		return fmt.Sprintf("%s - %s ( bc = %s )", n.Name, n.IP, n.Broadcast)
	}
	return fmt.Sprintf("%s - %s", n.Name, n.IP)
}

// RemoteTemplate returns a starting point for typing a neighbour's
// address: the first three octets for a LAN address, the address
// itself for loopback, and 127.0.0.1 for INADDR_ANY.
func (n Netif) RemoteTemplate() string {
	switch {
	case n.IP.IsLoopback():
		return n.IP.String()
	case n.IP.IsUnspecified():
		return netip.AddrFrom4([4]byte{127, 0, 0, 1}).String()
	}
	o := n.IP.As4()
	return fmt.Sprintf("%d.%d.%d.", o[0], o[1], o[2])
}

// Local returns the first IPv4 address of every interface that is up,
// followed by an INADDR_ANY entry.  The INADDR_ANY entry is present
// even when enumeration fails.
func Local() ([]Netif, error) {
	ifaces, err := anet.Interfaces()
	if err != nil {
		return []Netif{anyAddr()}, fmt.Errorf("list interfaces: %w", err)
	}

	var out []Netif
	for i := range ifaces {
		iface := &ifaces[i]
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := anet.InterfaceAddrsByInterface(iface)
		if err != nil {
			continue
		}
		if n, ok := fromAddrs(iface.Name, iface.Flags, addrs); ok {
			out = append(out, n)
		}
	}
	return append(out, anyAddr()), nil
}

// fromAddrs builds the entry for the first IPv4 prefix in addrs.
func fromAddrs(name string, flags net.Flags, addrs []net.Addr) (Netif, bool) {
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipn.IP.To4()
		if ip4 == nil {
			continue
		}
		n := Netif{Name: name, IP: netip.AddrFrom4([4]byte(ip4))}
		if !n.IP.IsLoopback() && flags&net.FlagBroadcast != 0 {
			n.Broadcast = broadcast(ip4, ipn.Mask)
		}
		return n, true
	}
	return Netif{}, false
}

// broadcast returns the directed broadcast address of ip/mask.
func broadcast(ip net.IP, mask net.IPMask) netip.Addr {
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	var b [4]byte
	for i := range b {
		b[i] = ip[i] | ^mask[i]
	}
	return netip.AddrFrom4(b)
}

func anyAddr() Netif {
	return Netif{Name: AnyName, IP: netip.IPv4Unspecified()}
}
