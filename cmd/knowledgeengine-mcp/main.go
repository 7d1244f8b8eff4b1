// Package main provides the knowledgeengine-mcp command, an MCP server
// exposing the retrieval engine's five query entry points over stdio.
//
// Usage:
//
//	knowledgeengine-mcp [--root DIR] [--debug]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/goldentooth/knowledgeengine/internal/bootstrap"
	"github.com/goldentooth/knowledgeengine/internal/klog"
	"github.com/goldentooth/knowledgeengine/internal/mcp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	root := flag.String("root", ".", "project root to load configuration and the index from")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg := klog.DefaultConfig()
	if !*debug {
		cfg.Level = "warn"
	}
	logger, cleanup, err := klog.Setup(cfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	handle, err := bootstrap.Open(ctx, *root)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer handle.Close()

	srv, err := mcp.NewServer(handle.Engine, logger)
	if err != nil {
		return fmt.Errorf("create mcp server: %w", err)
	}
	defer func() { _ = srv.Close() }()

	return srv.Serve(ctx, "stdio")
}
