package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultLocalIP is the address sessions bind to when none is given.
	DefaultLocalIP = "127.0.0.1"

	// DefaultReadTimeout bounds each worker's receive or accept, and
	// therefore how long a stop request can take to be noticed.
	DefaultReadTimeout = 100 * time.Millisecond

	// DefaultWriteTimeout bounds a single TCP send.
	DefaultWriteTimeout = time.Second

	// DefaultDialTimeout is the TCP client connection timeout.
	DefaultDialTimeout = 3 * time.Second

	// DefaultTick is how often the console drains the event sink.
	DefaultTick = 50 * time.Millisecond
)
