package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body>
<form id="search" action="/search"><input type="text" name="q"></form>
<form id="fm1" method="post" action="/cas/login">
  <input type="text" name="username">
  <input type="password" name="password">
  <input type="hidden" name="execution" value="e1s1">
  <input type="hidden" name="_eventId" value="submit">
</form>
</body></html>`

type fakeCAS struct {
	*httptest.Server
	posted url.Values
}

func newFakeCAS(t *testing.T) *fakeCAS {
	t.Helper()
	f := &fakeCAS{}
	mux := http.NewServeMux()
	mux.HandleFunc("/cas/login", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			require.NoError(t, r.ParseForm())
			f.posted = r.PostForm
			if r.PostForm.Get("username") == "p1234567" && r.PostForm.Get("password") == "secret" && r.PostForm.Get("execution") == "e1s1" {
				http.SetCookie(w, &http.Cookie{Name: ticketCookie, Value: "TGT-1", Path: "/"})
				fmt.Fprint(w, "<html>logged in</html>")
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, loginPage)
		default:
			service := r.URL.Query().Get("service")
			if _, err := r.Cookie(ticketCookie); err == nil && service != "" {
				http.Redirect(w, r, service+"?ticket=ST-42", http.StatusFound)
				return
			}
			fmt.Fprint(w, loginPage)
		}
	})
	mux.HandleFunc("/tomuss", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ticket") != "ST-42" {
			http.Error(w, "no ticket", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `<script>display_update(\x5B\x5D,"Top",0);</script>`)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func TestCASLoginAndFetch(t *testing.T) {
	srv := newFakeCAS(t)
	client, err := NewCASClient(Options{CASURL: srv.URL + "/cas/"})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Login(ctx, Credentials{Username: "p1234567", Password: "secret"}))
	assert.True(t, client.Authenticated())
	assert.Equal(t, "submit", srv.posted.Get("_eventId"))
	assert.Empty(t, srv.posted.Get("q"))

	page, err := client.FetchAuthenticated(ctx, srv.URL+"/tomuss")
	require.NoError(t, err)
	assert.Contains(t, page, "display_update(")
}

func TestCASInvalidCredentials(t *testing.T) {
	srv := newFakeCAS(t)
	client, err := NewCASClient(Options{CASURL: srv.URL + "/cas"})
	require.NoError(t, err)

	err = client.Login(context.Background(), Credentials{Username: "p1234567", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, client.Authenticated())
}

func TestCASFetchRequiresLogin(t *testing.T) {
	srv := newFakeCAS(t)
	client, err := NewCASClient(Options{CASURL: srv.URL + "/cas"})
	require.NoError(t, err)

	_, err = client.FetchAuthenticated(context.Background(), srv.URL+"/tomuss")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestNewCASClientRequiresURL(t *testing.T) {
	_, err := NewCASClient(Options{})
	assert.ErrorIs(t, err, ErrMissingCASURL)
}

func TestLoginForm(t *testing.T) {
	action, fields, err := loginForm(loginPage)
	require.NoError(t, err)
	assert.Equal(t, "/cas/login", action)
	assert.Equal(t, url.Values{"execution": {"e1s1"}, "_eventId": {"submit"}}, fields)

	_, _, err = loginForm(`<form><input name="q"></form>`)
	assert.Error(t, err)
}
