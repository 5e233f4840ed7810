package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/vanshika/gradefeed/internal/app"
	"github.com/vanshika/gradefeed/internal/config"
	"github.com/vanshika/gradefeed/internal/feed"
	"github.com/vanshika/gradefeed/internal/logging"
	"github.com/vanshika/gradefeed/internal/service"
)

var errEmptyDataset = errors.New("no feeds found")

func main() {
	var (
		datasetDir = flag.String("dir", "./data", "directory containing *.json blobs and *.html pages")
		workers    = flag.Int("workers", 4, "number of concurrent decode workers")
		store      = flag.Bool("store", false, "persist every decoded feed as a snapshot (requires GRAPH_URI)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	items, err := loadItems(*datasetDir)
	if err != nil {
		logger.Error("dataset resolution failed", "error", err, "dir", *datasetDir)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Build(ctx, cfg, logger, app.Options{RequireGraph: *store})
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	start := time.Now()
	logger.Info("decoding feeds", "count", len(items), "workers", *workers, "store", *store)
	outcomes, err := service.NewBulkDecoder(a.Service, *workers, *store).DecodeAll(ctx, items)

	failed := 0
	for _, out := range outcomes {
		if out.Err == nil {
			continue
		}
		failed++
		attrs := []any{"item", out.Name, "error", out.Err}
		if de, ok := feed.AsDecodeError(out.Err); ok {
			attrs = append(attrs, "kind", de.Kind.String(), "path", de.Path.String())
		}
		logger.Warn("feed rejected", attrs...)
	}

	var taskErr *service.TaskError
	if err != nil && !errors.As(err, &taskErr) {
		logger.Error("ingestion aborted", "error", err)
		os.Exit(1)
	}

	logger.Info("ingestion complete",
		"duration", time.Since(start).String(),
		"feeds", len(items),
		"decoded", len(items)-failed,
		"failed", failed,
	)
	if failed > 0 {
		os.Exit(2)
	}
}

// loadItems reads every feed file of dir in name order. manifest.json is the
// generator's index, not a feed.
func loadItems(dir string) ([]service.Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var items []service.Item
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == "manifest.json" {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".json" && ext != ".html" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		items = append(items, service.Item{Name: name, Data: data, Page: ext == ".html"})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w in %s", errEmptyDataset, dir)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}
