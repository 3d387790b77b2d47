package auth

import (
	"context"
	"crypto/rsa"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Middleware resolves the caller from, in order: dev headers (when
// enabled), the assertion cookie, the session API.
type Middleware struct {
	httpClient HTTPDoer
	sessionAPI string
	cookieName string
	adminRole  string
	devBypass  bool

	assertCookieName string
	assertKeyURL     string
	assertKeyKID     string
	assertIssuer     string
	assertAudience   string
	assertLeeway     time.Duration

	// guarded by mu
	mu         sync.RWMutex
	assertKey  *rsa.PublicKey
	assertETag string
	cacheTTL   time.Duration
}

// Options configure the middleware. Zero values disable the matching source.
type Options struct {
	SessionAPI    string
	SessionCookie string
	AdminRole     string
	DevBypass     bool // NEVER enable in prod

	AssertCookie   string
	AssertKeyURL   string // JWKS or PEM endpoint
	AssertKeyKID   string
	AssertIssuer   string
	AssertAudience string
	AssertLeeway   time.Duration
}

// OptionsFromEnv reads SESSION_*, ADMIN_ROLE_NAME, AUTH_DEV_BYPASS and ASSERTION_*.
func OptionsFromEnv() Options {
	leeway := 60 * time.Second
	if v := strings.TrimSpace(os.Getenv("ASSERTION_LEEWAY_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			leeway = time.Duration(n) * time.Second
		}
	}
	return Options{
		SessionAPI:     strings.TrimSpace(os.Getenv("SESSION_STATE_API")),
		SessionCookie:  strings.TrimSpace(os.Getenv("SESSION_COOKIE_NAME")),
		AdminRole:      strings.TrimSpace(os.Getenv("ADMIN_ROLE_NAME")),
		DevBypass:      os.Getenv("AUTH_DEV_BYPASS") == "true",
		AssertCookie:   strings.TrimSpace(os.Getenv("ASSERTION_COOKIE_NAME")),
		AssertKeyURL:   strings.TrimSpace(os.Getenv("ASSERTION_KEY_URL")),
		AssertKeyKID:   strings.TrimSpace(os.Getenv("ASSERTION_KEY_KID")),
		AssertIssuer:   strings.TrimSpace(os.Getenv("ASSERTION_ISSUER")),
		AssertAudience: strings.TrimSpace(os.Getenv("ASSERTION_AUDIENCE")),
		AssertLeeway:   leeway,
	}
}

// New builds a middleware without touching the network.
func New(o Options, hc HTTPDoer) *Middleware {
	if hc == nil {
		hc = defaultHTTPClient()
	}
	if o.AssertCookie == "" {
		o.AssertCookie = "assert"
	}
	return &Middleware{
		httpClient:       hc,
		sessionAPI:       o.SessionAPI,
		cookieName:       o.SessionCookie,
		adminRole:        o.AdminRole,
		devBypass:        o.DevBypass,
		assertCookieName: o.AssertCookie,
		assertKeyURL:     o.AssertKeyURL,
		assertKeyKID:     o.AssertKeyKID,
		assertIssuer:     o.AssertIssuer,
		assertAudience:   o.AssertAudience,
		assertLeeway:     o.AssertLeeway,
		cacheTTL:         1 * time.Hour, // overridable by Cache-Control
	}
}

func defaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:    10,
			IdleConnTimeout: 30 * time.Second,
		},
		Timeout: 8 * time.Second,
	}
}

// ProvideAuthentication wires env config and non-fatally fetches the
// assertion key, refreshing it in the background after a first success.
func ProvideAuthentication() *Middleware {
	m := New(OptionsFromEnv(), nil)
	if m.assertKeyURL != "" {
		if err := m.refreshAssertionKey(context.Background()); err == nil {
			go m.backgroundRefresh()
		}
	}
	return m
}

// AdminRole is the role that passes every role guard.
func (m *Middleware) AdminRole() string { return m.adminRole }
