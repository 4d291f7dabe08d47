package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/metro-mecard/mecard/cmd/mecard-loader/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.NewLoaderCommand(ctx).Execute(); err != nil {
		stop()
		os.Exit(1)
	}
}
