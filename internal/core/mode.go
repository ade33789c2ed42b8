// Package core is the orchestration layer.  It composes the transport
// sessions into the interactive front end: a Controller that owns the
// sessions and the peer selection, and a Console that feeds it
// commands and drains its events on a tick.
//
// Architecture layers (bottom → top):
//
//	transport  →  session  →  core  →  cmd (CLI)
//
// The builder in this package is the single point that turns a Config
// into a wired Controller.
package core

import "context"

// Mode is a complete front end that runs until its context ends or the
// user quits.
type Mode interface {
	Run(ctx context.Context) error
}
