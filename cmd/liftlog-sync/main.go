package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/sync"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "LiftLog server URL (e.g. https://liftlog.tail1234.ts.net)")
	token := flag.String("token", "", "bearer token (or set LIFTLOG_TOKEN)")
	interval := flag.Duration("interval", 30*time.Second, "active-session poll interval")
	once := flag.Bool("once", false, "flush queued completions and poll once, then exit")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftlog-sync", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *token == "" {
		*token = os.Getenv("LIFTLOG_TOKEN")
	}
	if *serverURL == "" || *token == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-sync -server <URL> -token <token> [-interval 30s] [-once]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	*serverURL = strings.TrimRight(*serverURL, "/")

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	state, err := sync.OpenStateDB(filepath.Join(homeDir, ".liftlog-sync"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	client := sync.NewClient(*serverURL, *token)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Flush any completions queued by a previous run before polling.
	if err := sync.Flush(ctx, client, state, log); err != nil {
		log.Error("flush failed", "error", err)
		os.Exit(1)
	}

	if *once {
		session, err := client.ActiveSession(ctx)
		if err != nil {
			log.Error("active-session query failed", "error", err)
			os.Exit(1)
		}
		printActive(session)
		return
	}

	poller := sync.NewPoller(client, *interval, log)
	poller.OnChange = func(session *models.Session) {
		printActive(session)
		if err := sync.Flush(ctx, client, state, log); err != nil {
			log.Warn("flush failed", "error", err)
		}
	}

	log.Info("polling for active session", "interval", interval.String())
	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("poller stopped", "error", err)
		os.Exit(1)
	}
	log.Info("sync stopped")
}

func printActive(session *models.Session) {
	if session == nil {
		fmt.Println("no active session")
		return
	}
	fmt.Printf("active session %s: started %s, %d/%d exercises completed\n",
		session.ID,
		session.StartedAt.Format(time.RFC3339),
		completedCount(session),
		len(session.Exercises),
	)
}

func completedCount(session *models.Session) int {
	n := 0
	for _, ex := range session.Exercises {
		if ex.Completed {
			n++
		}
	}
	return n
}
