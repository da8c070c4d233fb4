// Package main is the entry point for the mole CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mole/internal/cli"
	"mole/internal/commands"
)

func main() {
	// Cancelled on interrupt; run --watch stops between passes.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, nil)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
