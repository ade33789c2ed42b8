// Package cmd wires up the CLI flags and starts the interactive console.
package cmd

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"udptcp/config"
	"udptcp/internal/core"
	"udptcp/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X udptcp/cmd.version=2.0.0"
var version = "0.1.0" //nolint:gochecknoglobals

// Execute parses args and runs the console until the user quits or
// ctx is cancelled.
func Execute(ctx context.Context, args []string) error {
	cfg := config.Default()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("udptcp", flag.ContinueOnError)

	// ── local endpoint ───────────────────────────────────────────
	fs.StringVarP(&cfg.LocalIP, "local-ip", "i", cfg.LocalIP, "Local address every session binds to")
	fs.IntVarP(&cfg.UDPPort, "udp-port", "u", cfg.UDPPort, "UDP local port (0 = ephemeral)")
	fs.IntVarP(&cfg.TCPServerPort, "tcp-server-port", "s", cfg.TCPServerPort, "TCP server port (0 = ephemeral)")
	fs.IntVarP(&cfg.TCPClientPort, "tcp-client-port", "p", cfg.TCPClientPort, "TCP client source port (0 = ephemeral)")
	fs.BoolVarP(&cfg.Broadcast, "broadcast", "b", cfg.Broadcast, "Enable SO_BROADCAST on the UDP socket")

	// ── remotes ──────────────────────────────────────────────────
	fs.StringVar(&cfg.UDPRemote, "udp-remote", cfg.UDPRemote, "Default UDP destination host:port")
	fs.StringVar(&cfg.TCPRemote, "tcp-remote", cfg.TCPRemote, "TCP server the client connects to")

	// ── startup ──────────────────────────────────────────────────
	fs.BoolVar(&cfg.StartUDP, "udp", false, "Start the UDP session at launch")
	fs.BoolVarP(&cfg.StartServer, "listen", "l", false, "Start the TCP server at launch")
	fs.BoolVarP(&cfg.Connect, "connect", "c", false, "Connect the TCP client to --tcp-remote at launch")

	// ── timing ───────────────────────────────────────────────────
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "Worker poll interval (bounds stop latency)")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "TCP write timeout")
	fs.DurationVarP(&cfg.DialTimeout, "dial-timeout", "w", cfg.DialTimeout, "TCP connect timeout")
	fs.DurationVar(&cfg.Tick, "tick", cfg.Tick, "Event refresh interval")

	// ── output ───────────────────────────────────────────────────
	envVerbose := cfg.Verbose
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.Timestamps, "timestamps", false, "Timestamp diagnostic log lines")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration and exit")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !fs.Changed("verbose") {
		cfg.Verbose = envVerbose
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("udptcp %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v (use --help for usage)", fs.Args())
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}
	if dryRun {
		fmt.Fprintf(os.Stderr, "configuration ok: udp=%s tcp-server=%s\n", cfg.UDPAddr(), cfg.TCPServerAddr())
		return nil
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	if cfg.Timestamps {
		logger.SetTimestamps(true)
	}

	ctrl := core.Build(cfg, logger, os.Stdout)
	if err := ctrl.Autostart(); err != nil {
		logger.Warn("autostart: %v", err)
	}

	var mode core.Mode = &core.Console{Ctrl: ctrl, Tick: cfg.Tick}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `udptcp – UDP / TCP test console v%s

Bind a UDP socket, run a multi-client TCP server and a TCP client side
by side, send typed messages to selected peers and watch traffic live.

Usage:
  udptcp [options]

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Environment:
  UDPTCP_LOCAL_IP, UDPTCP_UDP_PORT, UDPTCP_TCP_SERVER_PORT,
  UDPTCP_TCP_CLIENT_PORT, UDPTCP_BROADCAST, UDPTCP_UDP_REMOTE,
  UDPTCP_TCP_REMOTE, UDPTCP_READ_TIMEOUT_MS, UDPTCP_TICK_MS, UDPTCP_VERBOSE

Examples:
  udptcp --udp -l                             UDP + TCP server on 127.0.0.1
  udptcp -i 192.168.1.20 -b --udp \
         --udp-remote 192.168.1.255:5000      broadcast on the LAN
  udptcp -c --tcp-remote 10.0.0.7:6000        connect a TCP client

Type 'help' at the prompt for the command list.
`)
}
