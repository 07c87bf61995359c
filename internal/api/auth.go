// Package api provides typed clients for the two quiznox gateways. Both
// ride on the refreshing transport, so callers never see a recoverable
// token expiry.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quiznox/quiznox-client/internal/apperr"
	"github.com/quiznox/quiznox-client/internal/model"
	"github.com/quiznox/quiznox-client/internal/response"
	"github.com/quiznox/quiznox-client/internal/token"
)

// AuthClient talks to the auth gateway.
type AuthClient struct {
	base  string
	http  *http.Client
	store *token.Store
	log   zerolog.Logger
}

// NewAuthClient creates an AuthClient for the given gateway base URL.
func NewAuthClient(baseURL string, httpClient *http.Client, store *token.Store, log zerolog.Logger) *AuthClient {
	return &AuthClient{
		base:  baseURL,
		http:  httpClient,
		store: store,
		log:   log.With().Str("component", "auth_api").Logger(),
	}
}

// Login authenticates and persists the issued token pair.
func (c *AuthClient) Login(ctx context.Context, creds model.LoginRequest) (*model.AuthPayload, error) {
	var payload model.AuthPayload
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &payload); err != nil {
		return nil, err
	}
	if err := c.store.SetPair(payload.Tokens); err != nil {
		return nil, fmt.Errorf("persist tokens: %w", err)
	}
	return &payload, nil
}

// Register creates an account and persists the issued token pair.
func (c *AuthClient) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthPayload, error) {
	var payload model.AuthPayload
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &payload); err != nil {
		return nil, err
	}
	if err := c.store.SetPair(payload.Tokens); err != nil {
		return nil, fmt.Errorf("persist tokens: %w", err)
	}
	return &payload, nil
}

// Me returns the current user, used to resume a session from stored tokens.
func (c *AuthClient) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout revokes the refresh token server-side and clears local storage.
// Without a stored refresh token there is nothing to revoke and logout
// counts as already done.
func (c *AuthClient) Logout(ctx context.Context) error {
	refreshTok := c.store.RefreshToken()
	if refreshTok == "" {
		return c.store.Clear()
	}

	err := c.do(ctx, http.MethodPost, "/auth/logout", model.LogoutRequest{RefreshToken: refreshTok}, nil)
	// Local tokens go regardless: a failed revocation must not keep the
	// client logged in.
	if cerr := c.store.Clear(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// UpdateUsername changes the account's username.
func (c *AuthClient) UpdateUsername(ctx context.Context, req model.UpdateUsernameRequest) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodPut, "/auth/username", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword changes the account's password.
func (c *AuthClient) UpdatePassword(ctx context.Context, req model.UpdatePasswordRequest) error {
	return c.do(ctx, http.MethodPut, "/auth/password", req, nil)
}

// do issues one enveloped request and decodes its data section into out.
// Every failure leaves as a tagged apperr.Error.
func (c *AuthClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if apperr.KindOf(err) != "" {
			return err // Already tagged by the transport.
		}
		return apperr.Network(method+" "+path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Network("read response", err)
	}

	var env response.Envelope
	if jerr := json.Unmarshal(raw, &env); jerr != nil {
		return apperr.DataFormat("malformed gateway response", jerr)
	}

	if resp.StatusCode >= 400 || !env.Success {
		return statusError(resp.StatusCode, env.Message)
	}

	if out != nil {
		if jerr := json.Unmarshal(env.Data, out); jerr != nil {
			return apperr.DataFormat("malformed gateway payload", jerr)
		}
	}
	return nil
}

// statusError maps an HTTP failure onto the tagged error taxonomy.
func statusError(status int, message string) *apperr.Error {
	if message == "" {
		message = http.StatusText(status)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.Auth(status, message)
	case status >= 500:
		return &apperr.Error{Kind: apperr.KindNetwork, StatusCode: status, Message: message}
	default:
		return &apperr.Error{Kind: apperr.KindDataFormat, StatusCode: status, Message: message}
	}
}
