// Package quiz holds the free-practice session: a topic's question list
// browsed at the user's own pace, with the scroll position preserved
// across reloads. Unlike the mock exam there is no timer and no grading.
package quiz

import (
	"sync"

	"github.com/quiznox/quiznox-client/internal/model"
)

// Session is the free-practice aggregate.
type Session struct {
	mu        sync.Mutex
	topicID   string
	questions []model.Question
	scroll    int
}

// NewSession creates an empty practice session.
func NewSession() *Session {
	return &Session{}
}

// SetTopic installs a topic's question list and rewinds the scroll cursor.
func (s *Session) SetTopic(topicID string, qs []model.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.topicID = topicID
	s.questions = make([]model.Question, len(qs))
	copy(s.questions, qs)
	s.scroll = 0
}

// TopicID returns the active topic, or "" when none is loaded.
func (s *Session) TopicID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topicID
}

// Questions returns a copy of the loaded question list.
func (s *Session) Questions() []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// ScrollIndex returns the remembered browse position.
func (s *Session) ScrollIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scroll
}

// SetScrollIndex remembers the browse position, clamped to the question
// list bounds.
func (s *Session) SetScrollIndex(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 {
		i = 0
	}
	if max := len(s.questions) - 1; max >= 0 && i > max {
		i = max
	}
	s.scroll = i
}

// Reset discards the session.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topicID = ""
	s.questions = nil
	s.scroll = 0
}

// Snapshot is the persisted form of a practice session.
type Snapshot struct {
	TopicID     string           `json:"topic_id"`
	Questions   []model.Question `json:"questions"`
	ScrollIndex int              `json:"scroll_index"`
}

// Snapshot captures the session for persistence.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{TopicID: s.topicID, ScrollIndex: s.scroll}
	snap.Questions = make([]model.Question, len(s.questions))
	copy(snap.Questions, s.questions)
	return snap
}

// Restore rebuilds the session from a persisted snapshot. An out-of-range
// scroll position is clamped rather than rejected.
func (s *Session) Restore(snap Snapshot) {
	s.mu.Lock()
	s.topicID = snap.TopicID
	s.questions = make([]model.Question, len(snap.Questions))
	copy(s.questions, snap.Questions)
	s.scroll = 0
	s.mu.Unlock()

	s.SetScrollIndex(snap.ScrollIndex)
}
