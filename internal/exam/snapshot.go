package exam

import (
	"fmt"
	"time"

	"github.com/quiznox/quiznox-client/internal/model"
)

// Snapshot is the persisted form of a Session, durable across client
// restarts.
type Snapshot struct {
	ExamTypeID           string           `json:"exam_type_id"`
	Phase                Phase            `json:"phase"`
	RemainingSeconds     int              `json:"remaining_seconds"`
	Questions            []model.Question `json:"questions"`
	Answers              []*string        `json:"answers"`
	CurrentQuestionIndex int              `json:"current_question_index"`
	StartTime            *time.Time       `json:"start_time,omitempty"`
	EndTime              *time.Time       `json:"end_time,omitempty"`
}

// Snapshot captures the session for persistence.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ExamTypeID:           s.examType.ID,
		Phase:                s.phase,
		RemainingSeconds:     s.remaining,
		CurrentQuestionIndex: s.current,
	}
	snap.Questions = make([]model.Question, len(s.questions))
	copy(snap.Questions, s.questions)
	snap.Answers = make([]*string, len(s.answers))
	for i, a := range s.answers {
		if a != nil {
			v := *a
			snap.Answers[i] = &v
		}
	}
	if !s.startTime.IsZero() {
		t := s.startTime
		snap.StartTime = &t
	}
	if !s.endTime.IsZero() {
		t := s.endTime
		snap.EndTime = &t
	}
	return snap
}

// Restore rebuilds the session from a persisted snapshot, enforcing every
// session invariant first. A violation yields ErrExamData and leaves the
// session untouched; the caller should offer a restart instead of
// attempting a partial repair.
func (s *Session) Restore(snap Snapshot) error {
	if snap.ExamTypeID == "" {
		// An empty snapshot is a session that was never configured.
		s.Reset()
		return nil
	}

	et, ok := model.ExamTypeByID(snap.ExamTypeID)
	if !ok {
		return fmt.Errorf("%w: unknown exam type %q", ErrExamData, snap.ExamTypeID)
	}
	switch snap.Phase {
	case PhaseNotStarted, PhaseRunning, PhaseTimedOut, PhaseSubmitted:
	default:
		return fmt.Errorf("%w: unknown phase %q", ErrExamData, snap.Phase)
	}
	if len(snap.Answers) != len(snap.Questions) {
		return fmt.Errorf("%w: %d answers for %d questions", ErrExamData, len(snap.Answers), len(snap.Questions))
	}
	if len(snap.Questions) > 0 {
		if snap.CurrentQuestionIndex < 0 || snap.CurrentQuestionIndex >= len(snap.Questions) {
			return fmt.Errorf("%w: cursor %d out of range", ErrExamData, snap.CurrentQuestionIndex)
		}
	} else if snap.CurrentQuestionIndex != 0 {
		return fmt.Errorf("%w: cursor %d with no questions", ErrExamData, snap.CurrentQuestionIndex)
	}
	if snap.RemainingSeconds < 0 {
		return fmt.Errorf("%w: negative remaining time", ErrExamData)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.examType = et
	s.configured = true
	s.phase = snap.Phase
	s.remaining = snap.RemainingSeconds
	s.questions = make([]model.Question, len(snap.Questions))
	copy(s.questions, snap.Questions)
	s.answers = make([]*string, len(snap.Answers))
	for i, a := range snap.Answers {
		if a != nil {
			v := *a
			s.answers[i] = &v
		}
	}
	s.current = snap.CurrentQuestionIndex
	s.startTime = time.Time{}
	s.endTime = time.Time{}
	if snap.StartTime != nil {
		s.startTime = *snap.StartTime
	}
	if snap.EndTime != nil {
		s.endTime = *snap.EndTime
	}
	return nil
}
