// Command showroomctl manages the showroom index and runs discovery queries
// against the configured backend.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(newCLI()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
