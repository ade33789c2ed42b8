package core

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"sort"
	"strconv"
	"strings"
	"sync"

	"udptcp/config"
	ncerr "udptcp/internal/errors"
	"udptcp/internal/events"
	"udptcp/internal/metrics"
	"udptcp/internal/netif"
	"udptcp/internal/session"
	"udptcp/util"
)

// ErrQuit is returned by Exec when the user asked to leave.
var ErrQuit = errors.New("quit")

// Controller owns the three sessions, the sink they report into and
// the peer selection used when sending from the TCP server.  Exec and
// Tick may be called from different goroutines.
type Controller struct {
	cfg     *config.Config
	log     *util.Logger
	sink    *events.Sink
	metrics *metrics.Collector

	udp    *session.UDP
	server *session.TCPServer
	client *session.TCPClient

	mu        sync.Mutex
	selected  map[netip.AddrPort]struct{}
	udpRemote string     // host:port
	bcAddr    netip.Addr // broadcast address used while SO_BROADCAST is on
	out       io.Writer
}

// SetOutput redirects command output and drained events.
func (c *Controller) SetOutput(w io.Writer) {
	c.mu.Lock()
	c.out = w
	c.mu.Unlock()
}

// Sink returns the sink shared by the sessions.
func (c *Controller) Sink() *events.Sink { return c.sink }

// Autostart brings up whatever the configuration asks for.  Failures
// are already on the sink; the first one is also returned.
func (c *Controller) Autostart() error {
	var errs []error
	if c.cfg.StartUDP {
		if _, err := c.udp.BindAndStart(c.cfg.UDPAddr()); err != nil {
			c.sink.Errorf(events.UDP, "starting UDP failed: %v", err)
			errs = append(errs, err)
		}
	}
	if c.cfg.StartServer {
		if _, err := c.server.Begin(c.cfg.TCPServerAddr()); err != nil {
			errs = append(errs, err)
		}
	}
	if c.cfg.Connect {
		if _, err := c.client.Begin(c.cfg.TCPRemote); err != nil {
			errs = append(errs, err)
		}
	}
	return ncerr.Join(errs...)
}

// Tick is the periodic refresh: it forgets selections whose peer is
// gone and writes every queued event to the output.
func (c *Controller) Tick() {
	c.pruneSelection()

	evs := c.sink.Drain()
	if len(evs) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range evs {
		fmt.Fprintln(c.out, e.String())
	}
}

// Close disconnects every session.
func (c *Controller) Close() error {
	c.client.Disconnect()
	c.server.Disconnect()
	c.udp.Disconnect()
	return nil
}

// ── Selection ────────────────────────────────────────────────────────

// Select adds addr to the set of TCP server peers that receive sends.
func (c *Controller) Select(addr netip.AddrPort) error {
	if _, ok := c.server.Peer(addr); !ok {
		return fmt.Errorf("%s: %w", addr, ncerr.ErrNoPeer)
	}
	c.mu.Lock()
	c.selected[addr] = struct{}{}
	c.mu.Unlock()
	return nil
}

// Deselect removes addr from the selection.
func (c *Controller) Deselect(addr netip.AddrPort) {
	c.mu.Lock()
	delete(c.selected, addr)
	c.mu.Unlock()
}

// Selected returns the selected peer addresses in sorted order.
func (c *Controller) Selected() []netip.AddrPort {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]netip.AddrPort, 0, len(c.selected))
	for a := range c.selected {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

func (c *Controller) isSelected(addr netip.AddrPort) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.selected[addr]
	return ok
}

func (c *Controller) pruneSelection() {
	live := make(map[netip.AddrPort]struct{})
	for _, p := range c.server.Clients() {
		live[p.Addr()] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for a := range c.selected {
		if _, ok := live[a]; !ok {
			delete(c.selected, a)
		}
	}
}

// ── Sending ──────────────────────────────────────────────────────────

// Send fans msg out to every live destination: the UDP remote (or the
// broadcast address while broadcast is on), the TCP client connection
// and each selected TCP server peer.  It returns the number of
// destinations tried.
func (c *Controller) Send(msg string) (int, error) {
	if msg == "" {
		return 0, errors.New("empty message")
	}
	payload := []byte(msg)
	n := 0

	if c.udp.IsUp() {
		if dst, err := c.udpDestination(); err == nil {
			c.udp.SendTo(payload, dst)
			n++
		} else {
			c.sink.Errorf(events.UDP, "%v", err)
		}
	}
	if c.client.IsUp() {
		c.client.SendData(payload)
		n++
	}
	if c.server.IsUp() {
		for _, p := range c.server.Clients() {
			if c.isSelected(p.Addr()) {
				c.server.SendData(payload, p)
				n++
			}
		}
	}

	if n == 0 {
		return 0, errors.New("no destination: start a session, set 'udp remote' or select a peer")
	}
	return n, nil
}

// udpDestination resolves where fan-out UDP sends go.
func (c *Controller) udpDestination() (string, error) {
	c.mu.Lock()
	remote, bc := c.udpRemote, c.bcAddr
	c.mu.Unlock()

	if remote == "" {
		return "", errors.New("no UDP remote set (udp remote <host:port>)")
	}
	if !c.udp.Broadcast() {
		return remote, nil
	}
	if !bc.IsValid() {
		return "", errors.New("broadcast is on but no broadcast address is known (udp bcaddr <ip>)")
	}
	_, port, err := net.SplitHostPort(remote)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(bc.String(), port), nil
}

// ── Status ───────────────────────────────────────────────────────────

// Status renders one line per session.
func (c *Controller) Status() string {
	var b strings.Builder

	fmt.Fprintf(&b, "udp    %s", upDown(c.udp.IsUp()))
	if a := c.udp.LocalAddr(); a != nil {
		fmt.Fprintf(&b, "  local=%s", a)
	}
	c.mu.Lock()
	remote, bc := c.udpRemote, c.bcAddr
	c.mu.Unlock()
	fmt.Fprintf(&b, "  broadcast=%v", c.udp.Broadcast())
	if bc.IsValid() {
		fmt.Fprintf(&b, " (%s)", bc)
	}
	if remote != "" {
		fmt.Fprintf(&b, "  remote=%s", remote)
	}
	b.WriteByte('\n')

	fmt.Fprintf(&b, "tcp-s  %s", upDown(c.server.IsUp()))
	if a := c.server.LocalAddr(); a != nil {
		fmt.Fprintf(&b, "  local=%s  peers=%d  selected=%d", a, c.server.NumClients(), len(c.Selected()))
	}
	b.WriteByte('\n')

	fmt.Fprintf(&b, "tcp-c  %s", upDown(c.client.IsUp()))
	if c.client.IsUp() {
		fmt.Fprintf(&b, "  local=%s  remote=%s", c.client.LocalAddr(), c.client.RemoteAddr())
	}
	b.WriteByte('\n')
	return b.String()
}

func upDown(up bool) string {
	if up {
		return "up  "
	}
	return "down"
}

// ── Commands ─────────────────────────────────────────────────────────

// Exec runs one command line.  Control-path failures are returned;
// traffic outcomes arrive later as events.
func (c *Controller) Exec(line string) error {
	cmd, rest := next(line)
	switch cmd {
	case "":
		return nil
	case "udp":
		return c.execUDP(rest)
	case "tcps":
		return c.execServer(rest)
	case "tcpc":
		return c.execClient(rest)
	case "send":
		_, err := c.Send(rest)
		return err
	case "netif":
		return c.execNetif()
	case "stats":
		c.println(c.metrics.JSON())
	case "status":
		c.print(c.Status())
	case "clear":
		c.sink.Drain()
		c.sink.Infof(events.App, "--- reset log ---")
	case "help", "?":
		c.print(helpText)
	case "quit", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
	return nil
}

func (c *Controller) execUDP(args string) error {
	sub, rest := next(args)
	switch sub {
	case "bind", "start":
		addr := c.cfg.UDPAddr()
		if rest != "" {
			addr = rest
		}
		port, err := c.udp.BindAndStart(addr)
		if err != nil {
			return fmt.Errorf("starting UDP failed: %w", err)
		}
		c.println("udp: listening on port " + strconv.Itoa(port))
	case "stop":
		c.udp.Disconnect()
	case "bc":
		on, err := parseOnOff(rest)
		if err != nil {
			return err
		}
		if err := c.udp.ToggleBroadcast(on); err != nil {
			return fmt.Errorf("failed to set broadcast to %v: %w", on, err)
		}
		c.sink.Infof(events.UDP, "broadcast set to %v", on)
	case "bcaddr":
		ip, err := netip.ParseAddr(rest)
		if err != nil || !ip.Is4() {
			return fmt.Errorf("bcaddr: %q is not an IPv4 address", rest)
		}
		c.mu.Lock()
		c.bcAddr = ip
		c.mu.Unlock()
	case "remote":
		if _, _, err := net.SplitHostPort(rest); err != nil {
			return fmt.Errorf("remote: %w", err)
		}
		c.mu.Lock()
		c.udpRemote = rest
		c.mu.Unlock()
	case "send":
		dst, msg := next(rest)
		if dst == "" || msg == "" {
			return errors.New("usage: udp send <host:port> <message>")
		}
		c.udp.SendTo([]byte(msg), dst)
	default:
		return fmt.Errorf("usage: udp bind|stop|bc|bcaddr|remote|send")
	}
	return nil
}

func (c *Controller) execServer(args string) error {
	sub, rest := next(args)
	switch sub {
	case "begin", "start":
		addr := c.cfg.TCPServerAddr()
		if rest != "" {
			addr = rest
		}
		port, err := c.server.Begin(addr)
		if err != nil {
			return err
		}
		c.println("tcp-s: listening on port " + strconv.Itoa(port))
	case "stop":
		c.server.Disconnect()
		c.mu.Lock()
		c.selected = make(map[netip.AddrPort]struct{})
		c.mu.Unlock()
	case "peers":
		peers := c.server.Clients()
		if len(peers) == 0 {
			c.println("no peers")
			return nil
		}
		for i, p := range peers {
			mark := " "
			if c.isSelected(p.Addr()) {
				mark = "*"
			}
			c.println(fmt.Sprintf("%s %d  %s", mark, i, p.Addr()))
		}
	case "select", "deselect":
		if rest == "all" || rest == "none" {
			for _, p := range c.server.Clients() {
				if sub == "select" && rest == "all" {
					c.Select(p.Addr()) //nolint:errcheck
				} else {
					c.Deselect(p.Addr())
				}
			}
			return nil
		}
		addr, err := c.peerArg(rest)
		if err != nil {
			return err
		}
		if sub == "deselect" {
			c.Deselect(addr)
			return nil
		}
		return c.Select(addr)
	case "kick":
		addr, err := c.peerArg(rest)
		if err != nil {
			return err
		}
		c.server.CloseClient(addr)
		c.Deselect(addr)
	case "send":
		if rest == "" {
			return errors.New("usage: tcps send <message>")
		}
		n := 0
		for _, p := range c.server.Clients() {
			if c.isSelected(p.Addr()) {
				c.server.SendData([]byte(rest), p)
				n++
			}
		}
		if n == 0 {
			return errors.New("no destination peer selected")
		}
	default:
		return fmt.Errorf("usage: tcps begin|stop|peers|select|deselect|kick|send")
	}
	return nil
}

// peerArg accepts either a peer address or its index in 'tcps peers'.
func (c *Controller) peerArg(s string) (netip.AddrPort, error) {
	if i, err := strconv.Atoi(s); err == nil {
		peers := c.server.Clients()
		if i < 0 || i >= len(peers) {
			return netip.AddrPort{}, fmt.Errorf("peer #%d: %w", i, ncerr.ErrNoPeer)
		}
		return peers[i].Addr(), nil
	}
	return util.ParsePeer(s)
}

func (c *Controller) execClient(args string) error {
	sub, rest := next(args)
	switch sub {
	case "begin", "connect":
		remote := c.cfg.TCPRemote
		if rest != "" {
			remote = rest
		}
		if remote == "" {
			return errors.New("usage: tcpc begin <host:port>")
		}
		local, err := c.client.Begin(remote)
		if err != nil {
			return err
		}
		c.println("tcp-c: connected from " + local.String())
	case "stop":
		c.client.Disconnect()
	case "send":
		if rest == "" {
			return errors.New("usage: tcpc send <message>")
		}
		c.client.SendData([]byte(rest))
	default:
		return fmt.Errorf("usage: tcpc begin|stop|send")
	}
	return nil
}

func (c *Controller) execNetif() error {
	list, err := netif.Local()
	for i, n := range list {
		c.println(fmt.Sprintf("%d  %s  (remote %s)", i, n, n.RemoteTemplate()))
	}
	return err
}

// ── output helpers ───────────────────────────────────────────────────

func (c *Controller) print(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.out, s) //nolint:errcheck
}

func (c *Controller) println(s string) {
	c.print(s + "\n")
}

// next splits off the first whitespace-delimited word and returns the
// remainder with surrounding whitespace trimmed.
func next(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on|off, got %q", s)
}

const helpText = `commands:
  udp bind [addr]           bind and start the UDP session
  udp stop                  stop and release the UDP socket
  udp bc on|off             toggle SO_BROADCAST
  udp bcaddr <ip>           broadcast address used by 'send' while bc is on
  udp remote <host:port>    destination used by 'send'
  udp send <host:port> <m>  send one datagram
  tcps begin [addr]         start the TCP server
  tcps stop                 stop the server and drop every peer
  tcps peers                list peers (* = selected)
  tcps select <peer|#|all>  add a peer to the selection
  tcps deselect <peer|#|none>
  tcps kick <peer|#>        close one peer
  tcps send <m>             send to the selected peers
  tcpc begin [host:port]    connect the TCP client
  tcpc stop                 disconnect the TCP client
  tcpc send <m>             send on the client connection
  send <m>                  send to every live destination
  netif                     list local interfaces
  status | stats | clear | help | quit
`
