package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vanshika/gradefeed/internal/config"
	"github.com/vanshika/gradefeed/internal/domain"
	"github.com/vanshika/gradefeed/internal/feed"
	"github.com/vanshika/gradefeed/internal/generator"
)

type stubStore struct {
	mu        sync.Mutex
	saved     []domain.Snapshot
	saveErr   error
	summaries []domain.SnapshotSummary
	lastLimit int
}

func (s *stubStore) SaveSnapshot(_ context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, snap)
	return nil
}

func (s *stubStore) ListSnapshots(_ context.Context, login string, limit int) ([]domain.SnapshotSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit = limit
	return s.summaries, nil
}

func (s *stubStore) LoadSnapshot(_ context.Context, id string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range s.saved {
		if snap.ID == id {
			return snap, nil
		}
	}
	return domain.Snapshot{}, errors.New("not found")
}

type stubSession struct {
	page string
	err  error
	url  string
}

func (s *stubSession) FetchAuthenticated(_ context.Context, serviceURL string) (string, error) {
	s.url = serviceURL
	return s.page, s.err
}

func genFeed(t *testing.T, corruption generator.Corruption) generator.Feed {
	t.Helper()
	f, err := generator.New(generator.Config{Seed: 11, Pages: true}).Feed("p1234567", corruption)
	require.NoError(t, err)
	return f
}

var fixedNow = time.Date(2024, 10, 3, 8, 30, 0, 0, time.UTC)

func newTestService(store SnapshotStore, sess *stubSession, opts Options) *FeedService {
	var svc *FeedService
	if sess == nil {
		svc = NewFeedService(store, nil, opts, nil)
	} else {
		svc = NewFeedService(store, sess, opts, nil)
	}
	svc.WithClock(func() time.Time { return fixedNow })
	return svc
}

func TestDecodeBlob(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := newTestService(nil, nil, Options{DecodeTimeout: time.Second})
	res, err := svc.DecodeBlob(context.Background(), genFeed(t, generator.CorruptNone).Blob)
	require.NoError(t, err)
	assert.Equal(t, "p1234567", res.Record.Login)
}

func TestDecodeBlobRejectsLargeInput(t *testing.T) {
	svc := newTestService(nil, nil, Options{MaxBlobBytes: 16})
	_, err := svc.DecodeBlob(context.Background(), genFeed(t, generator.CorruptNone).Blob)
	assert.ErrorIs(t, err, ErrBlobTooLarge)
}

func TestDecodeBlobHonoursContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newTestService(nil, nil, Options{})
	_, err := svc.DecodeBlob(ctx, genFeed(t, generator.CorruptNone).Blob)
	// The decoder may win the race against the cancelled context.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestDecodeBlobReturnsDecodeError(t *testing.T) {
	svc := newTestService(nil, nil, Options{})
	_, err := svc.DecodeBlob(context.Background(), genFeed(t, generator.CorruptMissingAt).Blob)
	de, ok := feed.AsDecodeError(err)
	require.True(t, ok)
	assert.Equal(t, "Names[2]", de.Path.String())
}

func TestDecodePage(t *testing.T) {
	svc := newTestService(nil, nil, Options{})
	f := genFeed(t, generator.CorruptNone)

	res, err := svc.DecodePage(context.Background(), f.Page)
	require.NoError(t, err)
	assert.Equal(t, f.Login, res.Record.Login)

	_, err = svc.DecodePage(context.Background(), "<html></html>")
	assert.Error(t, err)
}

func TestRefresh(t *testing.T) {
	store := &stubStore{}
	sess := &stubSession{page: genFeed(t, generator.CorruptNone).Page}
	svc := newTestService(store, sess, Options{PortalURL: "https://portal.example"})

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example", sess.url)
	assert.Equal(t, "p1234567", snap.Login)
	assert.Equal(t, fixedNow, snap.FetchedAt)
	assert.NotEmpty(t, snap.ID)
	require.Len(t, store.saved, 1)
	assert.Equal(t, snap.ID, store.saved[0].ID)

	loaded, err := svc.Snapshot(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Record.Login, loaded.Record.Login)
}

func TestRefreshErrors(t *testing.T) {
	_, err := newTestService(&stubStore{}, nil, Options{}).Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	boom := errors.New("portal down")
	_, err = newTestService(&stubStore{}, &stubSession{err: boom}, Options{}).Refresh(context.Background())
	assert.ErrorIs(t, err, boom)

	store := &stubStore{saveErr: errors.New("disk full")}
	sess := &stubSession{page: genFeed(t, generator.CorruptNone).Page}
	_, err = newTestService(store, sess, Options{}).Refresh(context.Background())
	assert.ErrorIs(t, err, store.saveErr)
}

func TestSnapshots(t *testing.T) {
	store := &stubStore{summaries: []domain.SnapshotSummary{{ID: "a", Login: "p1234567"}}}
	svc := newTestService(store, nil, Options{})

	got, err := svc.Snapshots(context.Background(), "p1234567", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 5, store.lastLimit)

	_, err = svc.Snapshots(context.Background(), "", 5)
	assert.Error(t, err)

	_, err = newTestService(nil, nil, Options{}).Snapshots(context.Background(), "p1234567", 5)
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Feed.DuplicatePolicy = "reject"
	cfg.Feed.SkipMalformedTables = true

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, feed.RejectDuplicates, opts.Decoder.Duplicates)
	assert.True(t, opts.Decoder.SkipMalformedTables)
	assert.Equal(t, cfg.Feed.MaxBlobBytes, opts.MaxBlobBytes)
	assert.Equal(t, cfg.Session.PortalURL, opts.PortalURL)

	cfg.Feed.DuplicatePolicy = "sometimes"
	_, err = OptionsFromConfig(cfg)
	assert.Error(t, err)
}
