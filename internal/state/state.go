// Package state persists client session state across restarts and
// rehydrates it through one explicit load step at startup — never
// implicitly inside a lifecycle hook.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/quiznox/quiznox-client/internal/exam"
	"github.com/quiznox/quiznox-client/internal/quiz"
	"github.com/quiznox/quiznox-client/internal/token"
)

const stateFile = "session_state.json"

// ErrCorrupt marks persisted state that cannot be decoded. The caller
// discards it and starts clean rather than attempting a partial repair.
var ErrCorrupt = errors.New("corrupt persisted state")

// AuthSnapshot is the persisted slice of authentication state. The flag
// is advisory: rehydration reconciles it against actual token presence.
type AuthSnapshot struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	Username        string `json:"username,omitempty"`
}

// Snapshot is everything the client persists between runs.
type Snapshot struct {
	Auth     AuthSnapshot   `json:"auth"`
	MockExam *exam.Snapshot `json:"mock_exam,omitempty"`
	Quiz     *quiz.Snapshot `json:"quiz,omitempty"`
}

// Store reads and writes the snapshot file under the state directory.
type Store struct {
	path   string
	tokens *token.Store
	log    zerolog.Logger
}

// NewStore creates a Store rooted at dir. The token store is consulted
// during Load to reconcile the persisted auth flag.
func NewStore(dir string, tokens *token.Store, log zerolog.Logger) *Store {
	return &Store{
		path:   filepath.Join(dir, stateFile),
		tokens: tokens,
		log:    log.With().Str("component", "state_store").Logger(),
	}
}

// Save persists the snapshot, replacing any prior one.
func (s *Store) Save(snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Load reads the persisted snapshot. A missing file yields a zero
// snapshot; an undecodable one yields ErrCorrupt. A persisted
// authenticated flag is forced off when no token survived in storage, so
// a stale flag can never present the client as logged in.
func (s *Store) Load() (Snapshot, error) {
	var snap Snapshot

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return snap, nil
		}
		return snap, fmt.Errorf("read state: %w", err)
	}

	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if snap.Auth.IsAuthenticated &&
		s.tokens.AccessToken() == "" && s.tokens.RefreshToken() == "" {
		s.log.Warn().Msg("persisted auth flag without tokens, forcing unauthenticated")
		snap.Auth = AuthSnapshot{}
	}

	return snap, nil
}

// Clear removes the persisted snapshot. Idempotent.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
