// Package transport wraps outbound HTTP so that every authenticated
// request presents a valid bearer token, recovering from token expiry
// without surfacing the failure to unrelated in-flight calls.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quiznox/quiznox-client/internal/apperr"
	"github.com/quiznox/quiznox-client/internal/model"
	"github.com/quiznox/quiznox-client/internal/response"
	"github.com/quiznox/quiznox-client/internal/token"
)

// refreshOutcome is what one completed refresh attempt hands to every
// request that was waiting on it.
type refreshOutcome struct {
	accessToken string
	err         error
}

// Transport is an http.RoundTripper that attaches bearer tokens and, on a
// 401, performs a single-flight token refresh shared by all concurrent
// requests. The mutex and waiter queue are instance-owned: separate
// Transport instances (and tests) never share refresh state.
type Transport struct {
	base       http.RoundTripper
	store      *token.Store
	refreshURL string
	onLogout   func()
	log        zerolog.Logger

	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshOutcome
}

// New creates a Transport over the default HTTP transport. onLogout is
// invoked (once per failed refresh) after tokens are cleared, and is the
// caller's hook for returning to the login boundary. It may be nil.
func New(store *token.Store, refreshURL string, onLogout func(), log zerolog.Logger) *Transport {
	return &Transport{
		base:       http.DefaultTransport,
		store:      store,
		refreshURL: refreshURL,
		onLogout:   onLogout,
		log:        log.With().Str("component", "transport").Logger(),
	}
}

// Client returns an http.Client using this transport.
func (t *Transport) Client(timeout time.Duration) *http.Client {
	return &http.Client{Transport: t, Timeout: timeout}
}

// authExempt reports whether a path must never trigger a token refresh:
// the credential endpoints themselves reply 401 for bad credentials, and
// recursing on the refresh endpoint would loop.
func authExempt(path string) bool {
	return strings.Contains(path, "/auth/login") ||
		strings.Contains(path, "/auth/register") ||
		strings.Contains(path, "/auth/refresh")
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Buffer the body once so the request can be replayed after a refresh.
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	if tok := t.store.AccessToken(); token.IsValid(tok) {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	// No token or an expired one: send without the header and let the
	// server reject.

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || authExempt(req.URL.Path) {
		return resp, nil
	}

	// 401 on an authenticated call. Join or start the single refresh.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	newTok, err := t.refresh(req.Context())
	if err != nil {
		return nil, err
	}

	retry := req.Clone(req.Context())
	if bodyBytes != nil {
		retry.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		retry.ContentLength = int64(len(bodyBytes))
	}
	retry.Header.Set("Authorization", "Bearer "+newTok)

	// The retry goes straight to the base transport, so a second 401 on
	// the same request is returned as-is and cannot loop back into refresh.
	return t.base.RoundTrip(retry)
}

// refresh returns a fresh access token, running at most one refresh call
// at a time. Concurrent callers are queued and share the outcome.
func (t *Transport) refresh(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.refreshing {
		ch := make(chan refreshOutcome, 1)
		t.waiters = append(t.waiters, ch)
		t.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", apperr.Network("waiting for token refresh", ctx.Err())
		case out := <-ch:
			return out.accessToken, out.err
		}
	}
	t.refreshing = true
	t.mu.Unlock()

	var out refreshOutcome
	// The flag and the queue are released in a defer so the in-progress
	// state cannot leak, whatever path doRefresh takes.
	defer func() {
		t.mu.Lock()
		t.refreshing = false
		waiters := t.waiters
		t.waiters = nil
		t.mu.Unlock()

		for _, ch := range waiters {
			ch <- out
		}
	}()

	out = t.doRefresh(ctx)
	return out.accessToken, out.err
}

// doRefresh exchanges the stored refresh token for a new pair. Any
// failure — missing token, network error, rejection — is fatal to the
// authenticated session: tokens are cleared and the logout hook fires.
func (t *Transport) doRefresh(ctx context.Context) refreshOutcome {
	refreshTok := t.store.RefreshToken()
	if refreshTok == "" {
		t.log.Warn().Msg("401 received with no refresh token stored, logging out")
		t.logout()
		return refreshOutcome{err: apperr.Auth(0, "no refresh token available")}
	}

	payload, err := json.Marshal(model.RefreshRequest{RefreshToken: refreshTok})
	if err != nil {
		t.logout()
		return refreshOutcome{err: apperr.Auth(0, "encode refresh request: "+err.Error())}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.refreshURL, bytes.NewReader(payload))
	if err != nil {
		t.logout()
		return refreshOutcome{err: apperr.Auth(0, "build refresh request: "+err.Error())}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		// A network failure mid-refresh is indistinguishable from a
		// rejection for session purposes: the pair may already be rotated
		// server-side, so retrying indefinitely risks a loop. Log out.
		t.log.Warn().Err(err).Msg("token refresh request failed, logging out")
		t.logout()
		return refreshOutcome{err: apperr.Auth(0, "token refresh failed")}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.logout()
		return refreshOutcome{err: apperr.Auth(resp.StatusCode, "read refresh response")}
	}

	var env response.Envelope
	if resp.StatusCode != http.StatusOK || json.Unmarshal(raw, &env) != nil || !env.Success {
		t.log.Warn().Int("status", resp.StatusCode).Msg("token refresh rejected, logging out")
		t.logout()
		return refreshOutcome{err: apperr.Auth(resp.StatusCode, "token refresh rejected")}
	}

	var pair model.TokenPair
	if err := json.Unmarshal(env.Data, &pair); err != nil || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.logout()
		return refreshOutcome{err: apperr.Auth(resp.StatusCode, "malformed refresh response")}
	}

	if err := t.store.SetPair(pair); err != nil {
		t.logout()
		return refreshOutcome{err: apperr.Auth(0, "persist rotated tokens: "+err.Error())}
	}

	t.log.Debug().Msg("access token refreshed")
	return refreshOutcome{accessToken: pair.AccessToken}
}

func (t *Transport) logout() {
	if err := t.store.Clear(); err != nil {
		t.log.Error().Err(err).Msg("clearing tokens failed")
	}
	if t.onLogout != nil {
		t.onLogout()
	}
}
