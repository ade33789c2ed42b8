package core

import (
	"io"
	"net/netip"

	"udptcp/config"
	"udptcp/internal/events"
	"udptcp/internal/metrics"
	"udptcp/internal/netif"
	"udptcp/internal/session"
	"udptcp/util"
)

// Build constructs a Controller from the given configuration.  The
// sessions share one sink and one metrics collector.  Nothing is bound
// or connected yet; see Controller.Autostart.
func Build(cfg *config.Config, logger *util.Logger, out io.Writer) *Controller {
	sink := events.NewSink()
	m := metrics.New()

	opts := session.Options{
		Sink:         sink,
		Logger:       logger,
		Metrics:      m,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		DialTimeout:  cfg.DialTimeout,
	}
	clientOpts := opts
	clientOpts.LocalPort = cfg.TCPClientPort

	c := &Controller{
		cfg:       cfg,
		log:       logger,
		sink:      sink,
		metrics:   m,
		udp:       session.NewUDP(opts),
		server:    session.NewTCPServer(opts),
		client:    session.NewTCPClient(clientOpts),
		selected:  make(map[netip.AddrPort]struct{}),
		udpRemote: cfg.UDPRemote,
		bcAddr:    broadcastFor(cfg.LocalIP, logger),
		out:       out,
	}
	if cfg.Broadcast {
		// Unbound, so this only records the flag for the first bind.
		c.udp.ToggleBroadcast(true) //nolint:errcheck
	}
	return c
}

// broadcastFor returns the broadcast address of the interface owning
// ip, or the zero Addr.
func broadcastFor(ip string, logger *util.Logger) netip.Addr {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return netip.Addr{}
	}
	list, err := netif.Local()
	if err != nil {
		logger.Warn("%v", err)
	}
	for _, n := range list {
		if n.IP == addr {
			return n.Broadcast
		}
	}
	return netip.Addr{}
}
