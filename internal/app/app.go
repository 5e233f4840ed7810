// Package app assembles the long-lived components shared by the commands.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vanshika/gradefeed/internal/config"
	"github.com/vanshika/gradefeed/internal/graph"
	"github.com/vanshika/gradefeed/internal/repository"
	"github.com/vanshika/gradefeed/internal/service"
	"github.com/vanshika/gradefeed/internal/session"
)

// App holds the wired components. Graph is nil when no graph URI is
// configured; CAS is nil when no credentials are.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Graph   graph.Client
	CAS     *session.CASClient
	Service *service.FeedService
}

// Options selects the optional components to start.
type Options struct {
	// RequireGraph fails Build when no graph URI is configured.
	RequireGraph bool
	// Login performs the CAS login during Build.
	Login bool
}

// Build connects the graph store, logs into CAS when requested and builds the
// feed service on top of them.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	svcOpts, err := service.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger}

	client, err := graph.FromConfig(ctx, cfg.Graph)
	if err != nil {
		return nil, fmt.Errorf("connect graph: %w", err)
	}
	if client == nil && opts.RequireGraph {
		return nil, graph.ErrMissingURI
	}
	var store service.SnapshotStore
	if client != nil {
		a.Graph = client
		store = repository.New(client)
		logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	}

	var sess session.Session
	if opts.Login && cfg.Session.Enabled() {
		cas, err := session.NewCASClient(session.Options{
			CASURL:  cfg.Session.CASURL,
			Timeout: cfg.Session.Timeout,
			Logger:  logger.With("component", "cas"),
		})
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		creds := session.Credentials{Username: cfg.Session.Username, Password: cfg.Session.Password}
		if err := cas.Login(ctx, creds); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("cas login: %w", err)
		}
		a.CAS = cas
		sess = cas
	}

	a.Service = service.NewFeedService(store, sess, svcOpts, logger)
	return a, nil
}

// Close releases the graph connection.
func (a *App) Close(ctx context.Context) {
	if a.Graph == nil {
		return
	}
	if err := a.Graph.Close(ctx); err != nil {
		a.Logger.Warn("closing graph client failed", "error", err)
	}
}
