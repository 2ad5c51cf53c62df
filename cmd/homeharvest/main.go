package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/homeharvest/internal/cli"
)

func main() {
	// Cancel in-flight provider requests on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}
