// Package token owns the client-side access/refresh token pair: durable
// storage and the local expiry checks that drive the refresh interceptor.
package token

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/quiznox/quiznox-client/internal/model"
)

const tokensFile = "tokens.json"

// Store persists the token pair in a single JSON file under the state
// directory. It is pure storage: the durable file is the source of truth
// and is re-read on every get, so concurrent processes observe writes.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a Store rooted at dir. The directory is created lazily
// on the first write.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, tokensFile)}
}

type diskTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SetAccessToken persists a new access token, overwriting the prior value.
func (s *Store) SetAccessToken(tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.read()
	cur.AccessToken = tok
	return s.write(cur)
}

// SetRefreshToken persists a new refresh token, overwriting the prior value.
func (s *Store) SetRefreshToken(tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.read()
	cur.RefreshToken = tok
	return s.write(cur)
}

// SetPair persists both tokens atomically, as issued by login or refresh.
func (s *Store) SetPair(p model.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(diskTokens{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken})
}

// AccessToken returns the stored access token, or "" if none.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read().AccessToken
}

// RefreshToken returns the stored refresh token, or "" if none.
func (s *Store) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read().RefreshToken
}

// Clear removes both tokens. Idempotent: clearing an empty store is not
// an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// read loads the token file, resolving any failure to an empty pair.
func (s *Store) read() diskTokens {
	var t diskTokens
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return t
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return diskTokens{}
	}
	return t
}

func (s *Store) write(t diskTokens) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	// Write-then-rename keeps a crash from leaving a truncated file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
