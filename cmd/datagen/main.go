package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/gradefeed/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		feeds            = flag.Int("feeds", cfg.NumFeeds, "number of feeds to generate")
		maxTables        = flag.Int("max-tables", cfg.MaxTables, "maximum grade tables per feed")
		maxColumns       = flag.Int("max-columns", cfg.MaxColumns, "maximum columns per grade table")
		corruptionChance = flag.Float64("corruption-chance", 0, "probability that a feed carries one defect")
		corruptions      = flag.String("corruptions", "missing-at,bad-flag,bad-envelope,unknown-type", "comma-separated defects to draw from")
		pages            = flag.Bool("pages", false, "also write each feed wrapped in an HTML page")
		seed             = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir        = flag.String("output-dir", "data", "directory to write the feeds to")
		writeStdout      = flag.Bool("stdout", false, "write the first feed blob to stdout instead of files")
	)
	flag.Parse()

	kinds, err := generator.ParseCorruptions(*corruptions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -corruptions: %v\n", err)
		os.Exit(1)
	}

	genCfg := generator.Config{
		NumFeeds:         *feeds,
		MaxTables:        *maxTables,
		MaxColumns:       *maxColumns,
		CorruptionChance: clampProbability(*corruptionChance),
		Corruptions:      kinds,
		Pages:            *pages,
		Seed:             *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dataset, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if _, err := os.Stdout.Write(append(dataset.Feeds[0].Blob, '\n')); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write feed to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	corrupted := 0
	for _, f := range dataset.Feeds {
		if f.Corruption != generator.CorruptNone {
			corrupted++
		}
	}
	fmt.Fprintf(os.Stdout, "Generated %d feeds (%d corrupted) into %s\n", len(dataset.Feeds), corrupted, *outputDir)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
