package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/gradefeed/internal/config"
	"github.com/vanshika/gradefeed/internal/domain"
	"github.com/vanshika/gradefeed/internal/extract"
	"github.com/vanshika/gradefeed/internal/feed"
	"github.com/vanshika/gradefeed/internal/session"
)

// SnapshotStore is the persistence contract of the feed service.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap domain.Snapshot) error
	ListSnapshots(ctx context.Context, login string, limit int) ([]domain.SnapshotSummary, error)
	LoadSnapshot(ctx context.Context, id string) (domain.Snapshot, error)
}

var (
	// ErrBlobTooLarge is returned when a blob exceeds Options.MaxBlobBytes.
	ErrBlobTooLarge = errors.New("feed blob too large")
	// ErrNoSession is returned by Refresh when no portal session is configured.
	ErrNoSession = errors.New("no portal session configured")
	// ErrNoStore is returned when snapshots are requested without a store.
	ErrNoStore = errors.New("no snapshot store configured")
)

// Options configures a FeedService.
type Options struct {
	Decoder       feed.Options
	MaxBlobBytes  int64
	DecodeTimeout time.Duration
	PortalURL     string
}

// OptionsFromConfig maps the loaded configuration onto service options.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	policy, err := feed.ParseDuplicatePolicy(cfg.Feed.DuplicatePolicy)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Decoder: feed.Options{
			Duplicates:          policy,
			Workers:             cfg.Feed.Workers,
			ParallelThreshold:   cfg.Feed.ParallelThreshold,
			SkipMalformedTables: cfg.Feed.SkipMalformedTables,
		},
		MaxBlobBytes:  cfg.Feed.MaxBlobBytes,
		DecodeTimeout: cfg.Feed.DecodeTimeout,
		PortalURL:     cfg.Session.PortalURL,
	}, nil
}

// FeedService decodes feeds and manages their stored snapshots. The store and
// the session are optional; operations that need a missing one fail with
// ErrNoStore or ErrNoSession.
type FeedService struct {
	decoder *feed.Decoder
	store   SnapshotStore
	session session.Session
	opts    Options
	logger  *slog.Logger
	nowFn   func() time.Time
	idFn    func() string
}

// NewFeedService wires a service. store and sess may be nil.
func NewFeedService(store SnapshotStore, sess session.Session, opts Options, logger *slog.Logger) *FeedService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FeedService{
		decoder: feed.NewDecoder(opts.Decoder),
		store:   store,
		session: sess,
		opts:    opts,
		logger:  logger.With("component", "feed_service"),
		nowFn:   time.Now,
		idFn:    uuid.NewString,
	}
}

// WithClock overrides the time source, primarily for testing.
func (s *FeedService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// MaxBlobBytes is the configured size limit, zero when unlimited.
func (s *FeedService) MaxBlobBytes() int64 {
	return s.opts.MaxBlobBytes
}

// HasSession reports whether Refresh can reach the portal.
func (s *FeedService) HasSession() bool {
	return s.session != nil
}

// DecodeBlob decodes a raw pair-list blob. When DecodeTimeout or ctx expires
// DecodeBlob returns ctx.Err(), but the decode itself runs to completion in
// the background; the timeout bounds the wait, not the CPU spent on blobs up
// to MaxBlobBytes.
func (s *FeedService) DecodeBlob(ctx context.Context, blob []byte) (feed.Result, error) {
	if s.opts.MaxBlobBytes > 0 && int64(len(blob)) > s.opts.MaxBlobBytes {
		return feed.Result{}, fmt.Errorf("%w: %d bytes, limit %d", ErrBlobTooLarge, len(blob), s.opts.MaxBlobBytes)
	}
	if s.opts.DecodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.DecodeTimeout)
		defer cancel()
	}

	type outcome struct {
		res feed.Result
		err error
	}
	done := make(chan outcome, 1)
	start := s.nowFn()
	go func() {
		res, err := s.decoder.Decode(blob)
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		s.logger.Warn("feed decode abandoned", "bytes", len(blob), "error", ctx.Err())
		return feed.Result{}, ctx.Err()
	case out := <-done:
		s.logOutcome(out.res, out.err, len(blob), start)
		return out.res, out.err
	}
}

func (s *FeedService) logOutcome(res feed.Result, err error, size int, start time.Time) {
	elapsed := s.nowFn().Sub(start)
	if err != nil {
		attrs := []any{"bytes", size, "elapsed", elapsed, "error", err}
		if de, ok := feed.AsDecodeError(err); ok {
			attrs = append(attrs, "kind", de.Kind.String(), "path", de.Path.String())
		}
		s.logger.Info("feed rejected", attrs...)
		return
	}
	s.logger.Debug("feed decoded",
		"login", res.Record.Login,
		"tables", len(res.Record.Grades),
		"skipped", len(res.Skipped),
		"bytes", size,
		"elapsed", elapsed,
	)
}

// DecodePage extracts the feed from a portal page and decodes it.
func (s *FeedService) DecodePage(ctx context.Context, page string) (feed.Result, error) {
	blob, err := extract.ScriptBlob(page)
	if err != nil {
		return feed.Result{}, fmt.Errorf("extract feed: %w", err)
	}
	return s.DecodeBlob(ctx, []byte(blob))
}

// Save stores rec as a new snapshot stamped with the current time.
func (s *FeedService) Save(ctx context.Context, rec domain.Record) (domain.Snapshot, error) {
	if s.store == nil {
		return domain.Snapshot{}, ErrNoStore
	}
	snap := domain.Snapshot{
		ID:        s.idFn(),
		Login:     rec.Login,
		FetchedAt: s.nowFn().UTC(),
		Record:    rec,
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return domain.Snapshot{}, err
	}
	s.logger.Info("snapshot stored", "snapshot_id", snap.ID, "login", snap.Login, "tables", len(rec.Grades))
	return snap, nil
}

// Refresh fetches the portal page through the session, decodes it and stores
// a snapshot when a store is configured.
func (s *FeedService) Refresh(ctx context.Context) (domain.Snapshot, error) {
	if s.session == nil {
		return domain.Snapshot{}, ErrNoSession
	}
	page, err := s.session.FetchAuthenticated(ctx, s.opts.PortalURL)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetch portal page: %w", err)
	}
	res, err := s.DecodePage(ctx, page)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if s.store == nil {
		return domain.Snapshot{
			ID:        s.idFn(),
			Login:     res.Record.Login,
			FetchedAt: s.nowFn().UTC(),
			Record:    res.Record,
		}, nil
	}
	return s.Save(ctx, res.Record)
}

// Snapshots lists stored snapshot headers for login, newest first.
func (s *FeedService) Snapshots(ctx context.Context, login string, limit int) ([]domain.SnapshotSummary, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	if login == "" {
		return nil, fmt.Errorf("login is required")
	}
	return s.store.ListSnapshots(ctx, login, limit)
}

// Snapshot returns one stored snapshot.
func (s *FeedService) Snapshot(ctx context.Context, id string) (domain.Snapshot, error) {
	if s.store == nil {
		return domain.Snapshot{}, ErrNoStore
	}
	return s.store.LoadSnapshot(ctx, id)
}
