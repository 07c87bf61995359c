package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/quiznox/quiznox-client/internal/exam"
	"github.com/quiznox/quiznox-client/internal/model"
	"github.com/quiznox/quiznox-client/internal/token"
)

func newTestStore(t *testing.T) (*Store, *token.Store, string) {
	t.Helper()
	dir := t.TempDir()
	tokens := token.NewStore(dir)
	return NewStore(dir, tokens, zerolog.Nop()), tokens, dir
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, tokens, _ := newTestStore(t)

	if err := tokens.SetPair(model.TokenPair{AccessToken: "a1", RefreshToken: "r1"}); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}

	answer := "BD"
	snap := Snapshot{
		Auth: AuthSnapshot{IsAuthenticated: true, Username: "alice"},
		MockExam: &exam.Snapshot{
			ExamTypeID:       "AWS_DVA",
			Phase:            exam.PhaseRunning,
			RemainingSeconds: 4200,
			Questions: []model.Question{
				{QuestionNumber: 1, QuestionText: "q1", Choices: []string{"A. x", "B. y"}, MostVotedAnswer: "A"},
				{QuestionNumber: 2, QuestionText: "q2", Choices: []string{"A. x", "B. y"}, MostVotedAnswer: "B"},
			},
			Answers:              []*string{&answer, nil},
			CurrentQuestionIndex: 1,
		},
	}

	if err := store.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Auth.IsAuthenticated || got.Auth.Username != "alice" {
		t.Fatalf("auth = %+v, want authenticated alice", got.Auth)
	}
	if got.MockExam == nil {
		t.Fatalf("mock exam snapshot not persisted")
	}
	if got.MockExam.RemainingSeconds != 4200 || got.MockExam.CurrentQuestionIndex != 1 {
		t.Fatalf("mock exam = %+v", got.MockExam)
	}
	if got.MockExam.Answers[0] == nil || *got.MockExam.Answers[0] != "BD" {
		t.Fatalf("answer 0 lost in round trip")
	}
	if got.MockExam.Answers[1] != nil {
		t.Fatalf("nil answer became %q", *got.MockExam.Answers[1])
	}
}

func TestLoadMissingFile(t *testing.T) {
	store, _, _ := newTestStore(t)

	snap, err := store.Load()
	if err != nil {
		t.Fatalf("Load with no file: %v", err)
	}
	if snap.Auth.IsAuthenticated || snap.MockExam != nil || snap.Quiz != nil {
		t.Fatalf("missing file yielded non-zero snapshot: %+v", snap)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	store, _, dir := newTestStore(t)

	if err := os.WriteFile(filepath.Join(dir, "session_state.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	if _, err := store.Load(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Load = %v, want ErrCorrupt", err)
	}
}

func TestLoadReconcilesAuthFlag(t *testing.T) {
	store, tokens, _ := newTestStore(t)

	snap := Snapshot{Auth: AuthSnapshot{IsAuthenticated: true, Username: "alice"}}
	if err := store.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// No tokens in storage: the flag must not survive the load.
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Auth.IsAuthenticated {
		t.Fatalf("auth flag survived without tokens")
	}

	// With tokens present the flag is kept.
	if err := tokens.SetPair(model.TokenPair{AccessToken: "a1", RefreshToken: "r1"}); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}
	got, err = store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Auth.IsAuthenticated || got.Auth.Username != "alice" {
		t.Fatalf("auth flag lost despite tokens: %+v", got.Auth)
	}
}

func TestClearIdempotent(t *testing.T) {
	store, _, _ := newTestStore(t)

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear with no file: %v", err)
	}
	if err := store.Save(Snapshot{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}
