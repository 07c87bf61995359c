// Package exam owns the mock-exam session: the timed state machine that
// carries a drawn question set from start through submission or timeout,
// and the scoring of the finished attempt.
package exam

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quiznox/quiznox-client/internal/model"
)

// Phase enumerates the session states. Transitions only ever move forward:
// NOT_STARTED → RUNNING → TIMED_OUT or SUBMITTED. A timed-out session may
// still be promoted to SUBMITTED from the review flow.
type Phase string

const (
	PhaseNotStarted Phase = "NOT_STARTED"
	PhaseRunning    Phase = "RUNNING"
	PhaseTimedOut   Phase = "TIMED_OUT"
	PhaseSubmitted  Phase = "SUBMITTED"
)

// Session state machine errors.
var (
	ErrNotConfigured    = errors.New("exam type not configured")
	ErrNoQuestions      = errors.New("no questions loaded")
	ErrAlreadyStarted   = errors.New("exam already started")
	ErrNotStarted       = errors.New("exam not started")
	ErrAlreadySubmitted = errors.New("exam already submitted")
	ErrTerminal         = errors.New("exam session is finished")
	ErrIndexOutOfRange  = errors.New("question index out of range")
	// ErrExamData marks an unrecoverable invariant violation (answer/question
	// count mismatch, unknown exam type). The session must be restarted.
	ErrExamData = errors.New("exam data error")
)

// Session is the mock-exam aggregate. All methods are safe for use from
// the timer goroutine and the UI loop concurrently.
type Session struct {
	mu         sync.Mutex
	examType   model.ExamType
	configured bool
	phase      Phase
	remaining  int
	questions  []model.Question
	answers    []*string
	current    int
	startTime  time.Time
	endTime    time.Time
	onExpire   func()
	log        zerolog.Logger
}

// NewSession creates an empty session in NOT_STARTED.
func NewSession(log zerolog.Logger) *Session {
	return &Session{
		phase: PhaseNotStarted,
		log:   log.With().Str("component", "exam_session").Logger(),
	}
}

// OnExpire registers the callback fired exactly once when the countdown
// reaches zero. It routes the user to the review/result boundary and runs
// outside the session lock.
func (s *Session) OnExpire(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = fn
}

// Configure binds the session to an exam profile and fully resets any
// previous, unsubmitted state: answers, questions, cursor and countdown.
// Restarting over a finished session is also legal; the caller is expected
// to have shown its result first.
func (s *Session) Configure(et model.ExamType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.examType = et
	s.configured = true
	s.phase = PhaseNotStarted
	s.remaining = et.TimeLimitMinutes * 60
	s.questions = nil
	s.answers = nil
	s.current = 0
	s.startTime = time.Time{}
	s.endTime = time.Time{}
}

// LoadQuestions installs the drawn question set and sizes the answer
// slice to match. Legal only before the exam starts.
func (s *Session) LoadQuestions(qs []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.configured {
		return ErrNotConfigured
	}
	if s.phase != PhaseNotStarted {
		return ErrAlreadyStarted
	}
	if len(qs) == 0 {
		return ErrNoQuestions
	}

	s.questions = make([]model.Question, len(qs))
	copy(s.questions, qs)
	s.answers = make([]*string, len(qs))
	s.current = 0
	return nil
}

// Start begins the countdown. Legal only from NOT_STARTED with questions
// loaded.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.configured {
		return ErrNotConfigured
	}
	if s.phase != PhaseNotStarted {
		return ErrAlreadyStarted
	}
	if len(s.questions) == 0 {
		return ErrNoQuestions
	}
	if len(s.answers) != len(s.questions) {
		return ErrExamData
	}

	s.phase = PhaseRunning
	s.startTime = time.Now()
	s.log.Info().Str("exam_type", s.examType.ID).Int("questions", len(s.questions)).Msg("exam started")
	return nil
}

// Tick decrements the countdown by one second. When it reaches zero the
// session times out, EndTime is recorded and the expiry callback fires —
// once, even if ticks keep arriving. Returns true while the session is
// still running after the tick.
func (s *Session) Tick() bool {
	s.mu.Lock()
	if s.phase != PhaseRunning {
		s.mu.Unlock()
		return false
	}

	s.remaining--
	if s.remaining > 0 {
		s.mu.Unlock()
		return true
	}

	s.remaining = 0
	s.phase = PhaseTimedOut
	s.endTime = time.Now()
	expire := s.onExpire
	s.log.Info().Str("exam_type", s.examType.ID).Msg("exam timed out")
	s.mu.Unlock()

	if expire != nil {
		expire()
	}
	return false
}

// RunTimer drives Tick on a one-second period until the session leaves
// RUNNING or ctx is cancelled. Run it in its own goroutine; cancelling the
// context is how a departing view stops the timer without leaking ticks.
func (s *Session) RunTimer(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.Tick() {
				return
			}
		}
	}
}

// SetAnswer records (or, with nil, clears) the answer for a question
// index. Answer content is not validated; any string of choice letters is
// accepted. Once the session is terminal the answer sheet is immutable.
func (s *Session) SetAnswer(index int, answer *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseSubmitted || s.phase == PhaseTimedOut {
		return ErrTerminal
	}
	if index < 0 || index >= len(s.answers) {
		return ErrIndexOutOfRange
	}

	if answer == nil {
		s.answers[index] = nil
		return nil
	}
	v := *answer
	s.answers[index] = &v
	return nil
}

// SetCurrentQuestionIndex moves the cursor. The index must be inside
// [0, question count); navigation never wraps. Legal in any phase so the
// review and result views can browse a finished session.
func (s *Session) SetCurrentQuestionIndex(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.questions) {
		return ErrIndexOutOfRange
	}
	s.current = i
	return nil
}

// Submit ends the exam manually. Legal from RUNNING, and from TIMED_OUT
// (the review flow confirming a timed-out attempt); the timeout's EndTime
// is preserved in that case. Terminal: no further answer mutation.
func (s *Session) Submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseNotStarted:
		return ErrNotStarted
	case PhaseSubmitted:
		return ErrAlreadySubmitted
	case PhaseTimedOut:
		s.phase = PhaseSubmitted
		return nil
	}

	s.phase = PhaseSubmitted
	s.endTime = time.Now()
	s.log.Info().Str("exam_type", s.examType.ID).Int("answered", s.answeredLocked()).Msg("exam submitted")
	return nil
}

// Abandon discards an in-progress, unsubmitted session (the navigating-
// away path). It is a guarded no-op on a finished session so a completed
// exam is never thrown away before its result has been shown. Reports
// whether the session was actually reset.
func (s *Session) Abandon() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseSubmitted || s.phase == PhaseTimedOut {
		return false
	}
	s.resetLocked()
	return true
}

// Reset unconditionally returns the session to its initial empty state.
// Called after the result view is done with a finished session.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.examType = model.ExamType{}
	s.configured = false
	s.phase = PhaseNotStarted
	s.remaining = 0
	s.questions = nil
	s.answers = nil
	s.current = 0
	s.startTime = time.Time{}
	s.endTime = time.Time{}
}

func (s *Session) answeredLocked() int {
	n := 0
	for _, a := range s.answers {
		if a != nil && *a != "" {
			n++
		}
	}
	return n
}

// ─── Accessors ─────────────────────────────────────────────────────────

// Phase returns the current state.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// IsStarted reports whether the exam has ever been started.
func (s *Session) IsStarted() bool {
	return s.Phase() != PhaseNotStarted
}

// IsCompleted reports whether the session reached either terminal event,
// timeout or submission.
func (s *Session) IsCompleted() bool {
	p := s.Phase()
	return p == PhaseTimedOut || p == PhaseSubmitted
}

// IsSubmitted reports whether the exam was submitted.
func (s *Session) IsSubmitted() bool {
	return s.Phase() == PhaseSubmitted
}

// Remaining returns the countdown in seconds.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// ExamType returns the configured exam profile.
func (s *Session) ExamType() model.ExamType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.examType
}

// CurrentQuestionIndex returns the cursor position.
func (s *Session) CurrentQuestionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Questions returns a copy of the loaded question set.
func (s *Session) Questions() []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Answers returns a copy of the answer sheet.
func (s *Session) Answers() []*string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*string, len(s.answers))
	for i, a := range s.answers {
		if a != nil {
			v := *a
			out[i] = &v
		}
	}
	return out
}

// AnsweredCount returns how many questions carry a non-empty answer.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answeredLocked()
}

// Result scores the finished session. Only legal once the session is
// terminal; the same session always yields the same result.
func (s *Session) Result() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseTimedOut && s.phase != PhaseSubmitted {
		return nil, ErrNotStarted
	}
	return Score(s.questions, s.answers, s.examType.PassThreshold, s.startTime, s.endTime)
}
