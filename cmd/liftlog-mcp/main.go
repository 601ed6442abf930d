package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/mcp"
	"github.com/meltforce/liftlog/internal/stats"
	"github.com/meltforce/liftlog/internal/storage"
	"github.com/meltforce/liftlog/internal/training"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Serves the LiftLog MCP tools over stdio, backed directly by the database.
// Logs go to stderr; stdout carries the MCP protocol.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	userID := flag.Int("user", 1, "user ID to scope all queries to")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	trainingSvc := training.New(db, log)
	analyzer := stats.NewAnalyzer(db)
	srv := mcp.New(db, analyzer, trainingSvc, Version, log)

	stdio := mcpserver.NewStdioServer(srv)
	stdio.SetContextFunc(func(ctx context.Context) context.Context {
		return mcp.WithUserID(ctx, *userID)
	})

	log.Info("LiftLog MCP server starting", "version", Version, "user", *userID)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
