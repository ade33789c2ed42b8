// udptcp - an interactive UDP / TCP test console.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"udptcp/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "udptcp: %v\n", err)
		os.Exit(1)
	}
}
