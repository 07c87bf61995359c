package exam

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/quiznox/quiznox-client/internal/model"
)

func makeQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			QuestionNumber:         i + 1,
			QuestionText:           fmt.Sprintf("question %d", i+1),
			Choices:                []string{"A. one", "B. two", "C. three", "D. four"},
			MostVotedAnswer:        "A",
			OriginalQuestionNumber: i + 1,
			TopicID:                "AWS_DVA",
		}
	}
	return qs
}

func startedSession(t *testing.T, n int) *Session {
	t.Helper()
	s := NewSession(zerolog.Nop())
	et, _ := model.ExamTypeByID("AWS_DVA")
	s.Configure(et)
	if err := s.LoadQuestions(makeQuestions(n)); err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func strptr(s string) *string { return &s }

func TestStartTransitions(t *testing.T) {
	s := NewSession(zerolog.Nop())

	if err := s.Start(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Start before Configure = %v, want ErrNotConfigured", err)
	}

	et, _ := model.ExamTypeByID("AWS_DVA")
	s.Configure(et)
	if err := s.Start(); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("Start without questions = %v, want ErrNoQuestions", err)
	}

	if err := s.LoadQuestions(makeQuestions(3)); err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := s.Phase(); got != PhaseRunning {
		t.Fatalf("phase = %s, want RUNNING", got)
	}
	if s.Remaining() != et.TimeLimitMinutes*60 {
		t.Fatalf("remaining = %d, want %d", s.Remaining(), et.TimeLimitMinutes*60)
	}

	if err := s.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestTimerInvariant(t *testing.T) {
	s := startedSession(t, 3)

	var expirations int
	s.OnExpire(func() { expirations++ })

	// Shrink the countdown to something testable.
	s.mu.Lock()
	s.remaining = 60
	s.mu.Unlock()

	for i := 0; i < 59; i++ {
		if !s.Tick() {
			t.Fatalf("session stopped running after %d ticks", i+1)
		}
	}
	if s.IsCompleted() {
		t.Fatalf("completed before the countdown reached zero")
	}

	if s.Tick() {
		t.Fatalf("final tick reported the session still running")
	}
	if !s.IsCompleted() || s.Phase() != PhaseTimedOut {
		t.Fatalf("phase = %s, want TIMED_OUT", s.Phase())
	}
	if s.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", s.Remaining())
	}
	if expirations != 1 {
		t.Fatalf("expiry callback fired %d times, want 1", expirations)
	}

	// Further ticks neither decrement nor re-fire.
	s.Tick()
	s.Tick()
	if s.Remaining() != 0 {
		t.Fatalf("remaining decremented past zero: %d", s.Remaining())
	}
	if expirations != 1 {
		t.Fatalf("expiry callback re-fired, total %d", expirations)
	}
}

func TestTimeoutOnLastQuestionStillExpires(t *testing.T) {
	s := startedSession(t, 3)
	if err := s.SetCurrentQuestionIndex(2); err != nil {
		t.Fatalf("SetCurrentQuestionIndex: %v", err)
	}

	var fired bool
	s.OnExpire(func() { fired = true })

	s.mu.Lock()
	s.remaining = 1
	s.mu.Unlock()

	s.Tick()
	if !fired {
		t.Fatalf("expiry callback did not fire on the last question")
	}
	if s.Phase() != PhaseTimedOut {
		t.Fatalf("phase = %s, want TIMED_OUT", s.Phase())
	}
}

func TestSubmitIsTerminal(t *testing.T) {
	s := startedSession(t, 3)

	if err := s.SetAnswer(0, strptr("A")); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !s.IsSubmitted() || !s.IsCompleted() {
		t.Fatalf("submitted session reports submitted=%v completed=%v", s.IsSubmitted(), s.IsCompleted())
	}

	before := s.Answers()
	if err := s.SetAnswer(1, strptr("B")); !errors.Is(err, ErrTerminal) {
		t.Fatalf("SetAnswer after submit = %v, want ErrTerminal", err)
	}
	after := s.Answers()

	for i := range before {
		switch {
		case before[i] == nil && after[i] == nil:
		case before[i] != nil && after[i] != nil && *before[i] == *after[i]:
		default:
			t.Fatalf("answers changed after submission at index %d", i)
		}
	}

	if err := s.Submit(); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("second Submit = %v, want ErrAlreadySubmitted", err)
	}
}

func TestSubmitBeforeStart(t *testing.T) {
	s := NewSession(zerolog.Nop())
	if err := s.Submit(); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Submit before start = %v, want ErrNotStarted", err)
	}
}

func TestSubmitAfterTimeoutPromotesPhase(t *testing.T) {
	s := startedSession(t, 3)

	s.mu.Lock()
	s.remaining = 1
	s.mu.Unlock()
	s.Tick()

	endAtTimeout := s.Snapshot().EndTime
	if endAtTimeout == nil {
		t.Fatalf("timeout did not record an end time")
	}

	if err := s.Submit(); err != nil {
		t.Fatalf("Submit after timeout: %v", err)
	}
	if s.Phase() != PhaseSubmitted {
		t.Fatalf("phase = %s, want SUBMITTED", s.Phase())
	}
	if end := s.Snapshot().EndTime; end == nil || !end.Equal(*endAtTimeout) {
		t.Fatalf("submit after timeout overwrote the timeout end time")
	}
}

func TestAbandonIsGuardedWhenFinished(t *testing.T) {
	s := startedSession(t, 3)
	if err := s.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if s.Abandon() {
		t.Fatalf("Abandon reset a submitted session")
	}
	if s.Phase() != PhaseSubmitted || len(s.Questions()) != 3 {
		t.Fatalf("submitted session was discarded before its result was shown")
	}
}

func TestAbandonDiscardsRunningSession(t *testing.T) {
	s := startedSession(t, 3)

	if !s.Abandon() {
		t.Fatalf("Abandon refused to reset a running session")
	}
	if s.Phase() != PhaseNotStarted || len(s.Questions()) != 0 {
		t.Fatalf("abandoned session retains state")
	}
}

func TestReconfigureResetsPreviousSession(t *testing.T) {
	s := startedSession(t, 3)
	if err := s.SetAnswer(0, strptr("A")); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	et, _ := model.ExamTypeByID("AWS_DOP")
	s.Configure(et)

	if s.Phase() != PhaseNotStarted {
		t.Fatalf("phase after reconfigure = %s, want NOT_STARTED", s.Phase())
	}
	if len(s.Questions()) != 0 || len(s.Answers()) != 0 {
		t.Fatalf("reconfigure kept the previous question or answer state")
	}
	if s.Remaining() != et.TimeLimitMinutes*60 {
		t.Fatalf("remaining = %d, want %d", s.Remaining(), et.TimeLimitMinutes*60)
	}
}

func TestCursorBounds(t *testing.T) {
	s := startedSession(t, 3)

	if err := s.SetCurrentQuestionIndex(2); err != nil {
		t.Fatalf("SetCurrentQuestionIndex(2): %v", err)
	}
	if err := s.SetCurrentQuestionIndex(3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("SetCurrentQuestionIndex(3) = %v, want ErrIndexOutOfRange", err)
	}
	if err := s.SetCurrentQuestionIndex(-1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("SetCurrentQuestionIndex(-1) = %v, want ErrIndexOutOfRange", err)
	}
	if got := s.CurrentQuestionIndex(); got != 2 {
		t.Fatalf("cursor moved by rejected index, now %d", got)
	}
}

func TestAnswerClearAndOverwrite(t *testing.T) {
	s := startedSession(t, 3)

	if err := s.SetAnswer(1, strptr("BD")); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer(1, strptr("C")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got := s.Answers()[1]; got == nil || *got != "C" {
		t.Fatalf("answer = %v, want C", got)
	}

	if err := s.SetAnswer(1, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := s.Answers()[1]; got != nil {
		t.Fatalf("cleared answer still set: %q", *got)
	}

	if err := s.SetAnswer(7, strptr("A")); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("out-of-range SetAnswer = %v, want ErrIndexOutOfRange", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := startedSession(t, 5)
	if err := s.SetAnswer(0, strptr("A")); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer(3, strptr("BD")); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetCurrentQuestionIndex(3); err != nil {
		t.Fatalf("SetCurrentQuestionIndex: %v", err)
	}

	// Through JSON, the same way the state store persists it.
	raw, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}

	restored := NewSession(zerolog.Nop())
	if err := restored.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if restored.CurrentQuestionIndex() != 3 {
		t.Fatalf("cursor = %d, want 3", restored.CurrentQuestionIndex())
	}
	if restored.Phase() != PhaseRunning {
		t.Fatalf("phase = %s, want RUNNING", restored.Phase())
	}

	want := s.Answers()
	got := restored.Answers()
	if len(got) != len(want) {
		t.Fatalf("answers length %d, want %d", len(got), len(want))
	}
	for i := range want {
		switch {
		case want[i] == nil && got[i] == nil:
		case want[i] != nil && got[i] != nil && *want[i] == *got[i]:
		default:
			t.Fatalf("answer %d differs after round trip", i)
		}
	}
}

func TestRestoreRejectsInvariantViolations(t *testing.T) {
	base := Snapshot{
		ExamTypeID:       "AWS_DVA",
		Phase:            PhaseRunning,
		RemainingSeconds: 100,
		Questions:        makeQuestions(3),
		Answers:          make([]*string, 3),
	}

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{name: "answer count mismatch", mutate: func(s *Snapshot) { s.Answers = make([]*string, 2) }},
		{name: "unknown exam type", mutate: func(s *Snapshot) { s.ExamTypeID = "AWS_XXX" }},
		{name: "unknown phase", mutate: func(s *Snapshot) { s.Phase = "PAUSED" }},
		{name: "cursor out of range", mutate: func(s *Snapshot) { s.CurrentQuestionIndex = 3 }},
		{name: "negative remaining", mutate: func(s *Snapshot) { s.RemainingSeconds = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := base
			snap.Questions = makeQuestions(3)
			snap.Answers = make([]*string, 3)
			tt.mutate(&snap)

			s := NewSession(zerolog.Nop())
			if err := s.Restore(snap); !errors.Is(err, ErrExamData) {
				t.Fatalf("Restore = %v, want ErrExamData", err)
			}
		})
	}
}
