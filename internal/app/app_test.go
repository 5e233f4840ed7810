package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/gradefeed/internal/config"
	"github.com/vanshika/gradefeed/internal/graph"
	"github.com/vanshika/gradefeed/internal/logging"
	"github.com/vanshika/gradefeed/internal/service"
)

func TestBuildWithoutOptionalComponents(t *testing.T) {
	a, err := Build(context.Background(), config.Defaults(), logging.Discard(), Options{Login: true})
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Nil(t, a.Graph)
	assert.Nil(t, a.CAS)
	assert.False(t, a.Service.HasSession())

	_, err = a.Service.Snapshots(context.Background(), "p1234567", 1)
	assert.ErrorIs(t, err, service.ErrNoStore)
}

func TestBuildRequiresGraph(t *testing.T) {
	_, err := Build(context.Background(), config.Defaults(), logging.Discard(), Options{RequireGraph: true})
	assert.ErrorIs(t, err, graph.ErrMissingURI)
}

func TestBuildRejectsBadPolicy(t *testing.T) {
	cfg := config.Defaults()
	cfg.Feed.DuplicatePolicy = "coin-flip"
	_, err := Build(context.Background(), cfg, logging.Discard(), Options{})
	assert.Error(t, err)
}

func TestBuildLogsIn(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cas/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<form method="post"><input type="password" name="password"><input type="hidden" name="lt" value="LT-1"></form>`)
	})
	mux.HandleFunc("POST /cas/login", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "TGC", Value: "TGT-9", Path: "/"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.Defaults()
	cfg.Session.CASURL = srv.URL + "/cas"
	cfg.Session.PortalURL = srv.URL + "/portal"
	cfg.Session.Username = "p1234567"
	cfg.Session.Password = "secret"

	a, err := Build(context.Background(), cfg, logging.Discard(), Options{Login: true})
	require.NoError(t, err)
	assert.True(t, a.CAS.Authenticated())
	assert.True(t, a.Service.HasSession())

	cfg.Session.Password = "wrong"
	_, err = Build(context.Background(), cfg, logging.Discard(), Options{Login: true})
	assert.Error(t, err)
}
