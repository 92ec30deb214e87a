// Command labelaudit reports reviewer-quality metrics from labeling platform
// logs: rejection rates per annotator and label type, task outcomes and the
// worst performers per watched label.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "labelaudit:", err)
		stop()
		os.Exit(1)
	}
}
