package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	probecmd "github.com/tabletoptools/vtt-bridge/internal/cmd/probe"
	"github.com/tabletoptools/vtt-bridge/internal/platform/config"
)

// main runs a one-shot connect/summary/disconnect probe.
func main() {
	cfg, err := probecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := probecmd.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("probe failed: %v", err)
	}
}
