package api

import (
	"context"
	"sync"
)

// Token endpoint paths. The fallback path is kept for deployments that
// still mount the token route under /api/auth.
const (
	CSRFTokenPath         = "/api/csrf-token"
	CSRFTokenFallbackPath = "/api/auth/csrf"
)

// TokenState describes the acquisition state of the CSRF token.
type TokenState int

const (
	// TokenUnset means no token is cached and no fetch is in flight.
	TokenUnset TokenState = iota
	// TokenFetching means an acquisition is in flight.
	TokenFetching
	// TokenReady means a token is cached and attached to mutating requests.
	TokenReady
)

// tokenFetch is one in-flight acquisition. Result fields are written
// before done is closed, so waiters may read them after <-done.
type tokenFetch struct {
	done  chan struct{}
	token string
	err   error
}

// csrfManager owns the anti-forgery token lifecycle: lazy acquisition,
// caching, and refresh. Acquisition is single-flight: concurrent callers
// share the pending fetch instead of issuing duplicate network calls.
type csrfManager struct {
	mu      sync.Mutex
	token   string
	pending *tokenFetch

	// fetch performs the actual network acquisition (primary endpoint,
	// then fallback). Injected by the client; swapped out in tests.
	fetch func(ctx context.Context) (string, error)
}

func newCSRFManager(fetch func(ctx context.Context) (string, error)) *csrfManager {
	return &csrfManager{fetch: fetch}
}

// CurrentToken returns the cached token, or "" if none is ready.
func (m *csrfManager) CurrentToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// State reports the current acquisition state.
func (m *csrfManager) State() TokenState {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.token != "":
		return TokenReady
	case m.pending != nil:
		return TokenFetching
	default:
		return TokenUnset
	}
}

// EnsureToken returns the cached token, joining or starting an acquisition
// as needed. Exactly one fetch is in flight at a time; concurrent callers
// block on the same pending result.
func (m *csrfManager) EnsureToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.token != "" {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}

	if f := m.pending; f != nil {
		m.mu.Unlock()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-f.done:
			return f.token, f.err
		}
	}

	f := &tokenFetch{done: make(chan struct{})}
	m.pending = f
	m.mu.Unlock()

	token, err := m.fetch(ctx)

	m.mu.Lock()
	m.pending = nil
	if err == nil {
		m.token = token
	}
	m.mu.Unlock()

	f.token = token
	f.err = err
	close(f.done)

	return token, err
}

// RefreshToken discards the cached token and re-runs acquisition. Used as
// the one-shot reaction to a CSRF rejection; also safe to call directly.
func (m *csrfManager) RefreshToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.token = ""
	pending := m.pending
	m.mu.Unlock()

	// Let any in-flight fetch settle first so the refresh starts a fresh
	// acquisition rather than joining a fetch for the invalidated token.
	if pending != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-pending.done:
		}
		m.mu.Lock()
		m.token = ""
		m.mu.Unlock()
	}

	return m.EnsureToken(ctx)
}

// Invalidate drops the cached token without fetching a replacement.
func (m *csrfManager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
}
