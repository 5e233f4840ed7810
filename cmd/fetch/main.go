package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/gradefeed/internal/app"
	"github.com/vanshika/gradefeed/internal/config"
	"github.com/vanshika/gradefeed/internal/feed"
	"github.com/vanshika/gradefeed/internal/logging"
)

func main() {
	var (
		pretty = flag.Bool("pretty", true, "indent the JSON output")
		store  = flag.Bool("store", false, "persist the snapshot (requires GRAPH_URI)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Session.Enabled() {
		fmt.Fprintln(os.Stderr, "CAS_USERNAME, CAS_PASSWORD, CAS_URL and PORTAL_URL must be set")
		os.Exit(1)
	}
	if !*store {
		cfg.Graph.URI = ""
	}

	logger := logging.NewWithWriter(os.Stderr, cfg.Logging).With("component", "fetch")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Build(ctx, cfg, logger, app.Options{RequireGraph: *store, Login: true})
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	snap, err := a.Service.Refresh(ctx)
	if err != nil {
		attrs := []any{"error", err}
		if de, ok := feed.AsDecodeError(err); ok {
			attrs = append(attrs, "kind", de.Kind.String(), "path", de.Path.String())
		}
		logger.Error("refresh failed", attrs...)
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	if *pretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(snap); err != nil {
		logger.Error("failed to write snapshot", "error", err)
		os.Exit(1)
	}
}
