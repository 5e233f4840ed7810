package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"
)

// Session fetches portal pages on behalf of a logged-in user.
type Session interface {
	FetchAuthenticated(ctx context.Context, serviceURL string) (string, error)
}

// Credentials are the CAS username and password.
type Credentials struct {
	Username string
	Password string
}

// Options configures a CASClient.
type Options struct {
	CASURL  string
	Timeout time.Duration
	Logger  *slog.Logger
}

var (
	// ErrInvalidCredentials is returned when CAS rejects the login.
	ErrInvalidCredentials = errors.New("cas: invalid credentials")
	// ErrNotAuthenticated is returned by fetches made before a successful Login.
	ErrNotAuthenticated = errors.New("cas: session not authenticated")
	// ErrMissingCASURL indicates the CAS base URL is not configured.
	ErrMissingCASURL = errors.New("cas: base URL is required")
)

const (
	ticketCookie   = "TGC"
	maxPageBytes   = 16 << 20
	defaultTimeout = 30 * time.Second
)

// CASClient logs into a CAS server and keeps the ticket-granting cookie in
// its jar so that later service requests are authenticated.
type CASClient struct {
	http          *http.Client
	casURL        *url.URL
	logger        *slog.Logger
	authenticated atomic.Bool
}

// NewCASClient builds a client with its own cookie jar.
func NewCASClient(opts Options) (*CASClient, error) {
	if opts.CASURL == "" {
		return nil, ErrMissingCASURL
	}
	base, err := url.Parse(strings.TrimRight(opts.CASURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse cas url: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CASClient{
		http:   &http.Client{Jar: jar, Timeout: timeout},
		casURL: base,
		logger: logger,
	}, nil
}

// Authenticated reports whether Login succeeded.
func (c *CASClient) Authenticated() bool {
	return c.authenticated.Load()
}

func (c *CASClient) loginURL() *url.URL {
	u := *c.casURL
	u.Path = strings.TrimRight(u.Path, "/") + "/login"
	return &u
}

// Login submits the CAS login form with creds.
func (c *CASClient) Login(ctx context.Context, creds Credentials) error {
	loginURL := c.loginURL()
	page, _, err := c.get(ctx, loginURL.String())
	if err != nil {
		return fmt.Errorf("load login form: %w", err)
	}

	action, fields, err := loginForm(page)
	if err != nil {
		return err
	}
	target := loginURL
	if action != "" {
		ref, err := url.Parse(action)
		if err != nil {
			return fmt.Errorf("parse form action %q: %w", action, err)
		}
		target = loginURL.ResolveReference(ref)
	}
	fields.Set("username", creds.Username)
	fields.Set("password", creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(fields.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))

	if resp.StatusCode >= http.StatusBadRequest || !c.hasTicket() {
		c.authenticated.Store(false)
		c.logger.Warn("cas login rejected", "status", resp.StatusCode, "user", creds.Username)
		return ErrInvalidCredentials
	}
	c.authenticated.Store(true)
	c.logger.Info("cas login succeeded", "user", creds.Username)
	return nil
}

func (c *CASClient) hasTicket() bool {
	for _, ck := range c.http.Jar.Cookies(c.loginURL()) {
		if ck.Name == ticketCookie && ck.Value != "" {
			return true
		}
	}
	return false
}

// FetchAuthenticated asks CAS for a service ticket for serviceURL, follows
// the redirect to the service and returns the page body.
func (c *CASClient) FetchAuthenticated(ctx context.Context, serviceURL string) (string, error) {
	if !c.Authenticated() {
		return "", ErrNotAuthenticated
	}
	u := c.loginURL()
	q := u.Query()
	q.Set("service", serviceURL)
	u.RawQuery = q.Encode()

	body, final, err := c.get(ctx, u.String())
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", serviceURL, err)
	}
	if final.Path == c.loginURL().Path && final.Host == c.casURL.Host {
		c.authenticated.Store(false)
		return "", ErrNotAuthenticated
	}
	c.logger.Debug("service page fetched", "service", serviceURL, "bytes", len(body))
	return body, nil
}

func (c *CASClient) get(ctx context.Context, target string) (string, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return string(body), resp.Request.URL, nil
}

// loginForm returns the action and the pre-filled inputs of the first form
// that has a password field.
func loginForm(page string) (string, url.Values, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", nil, fmt.Errorf("parse login page: %w", err)
	}
	var (
		action string
		fields url.Values
	)
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "form" {
			values := url.Values{}
			hasPassword := false
			collectInputs(n, values, &hasPassword)
			if hasPassword {
				action = getAttr(n, "action")
				fields = values
				return true
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if walk(child) {
				return true
			}
		}
		return false
	}
	if !walk(doc) {
		return "", nil, errors.New("cas: login form not found")
	}
	return action, fields, nil
}

func collectInputs(n *html.Node, values url.Values, hasPassword *bool) {
	if n.Type == html.ElementNode && n.Data == "input" {
		name := getAttr(n, "name")
		switch strings.ToLower(getAttr(n, "type")) {
		case "password":
			*hasPassword = true
		case "hidden":
			if name != "" {
				values.Set(name, getAttr(n, "value"))
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectInputs(child, values, hasPassword)
	}
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
