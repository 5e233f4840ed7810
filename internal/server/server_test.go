package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vanshika/gradefeed/internal/config"
)

func TestServerRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := config.Defaults().HTTP
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.ShutdownTimeout = time.Second
	srv := New(discardLogger(), cfg, NewRouter(discardLogger(), RouterDependencies{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		assert.Fail(t, "server did not stop")
	}
}
