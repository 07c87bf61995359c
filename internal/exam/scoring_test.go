package exam

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/quiznox/quiznox-client/internal/model"
)

func questionsWithAnswers(correct ...string) []model.Question {
	qs := make([]model.Question, len(correct))
	for i, c := range correct {
		qs[i] = model.Question{
			QuestionNumber:  i + 1,
			QuestionText:    "q",
			Choices:         []string{"A. one", "B. two", "C. three", "D. four"},
			MostVotedAnswer: c,
		}
	}
	return qs
}

func TestScoreMixedSheet(t *testing.T) {
	qs := questionsWithAnswers("A", "BD", "C")
	answers := []*string{strptr("A"), strptr("B"), strptr("C")}

	r, err := Score(qs, answers, 2, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if r.CorrectCount != 2 || r.IncorrectCount != 1 || r.UnansweredCount != 0 {
		t.Fatalf("counts = %d/%d/%d, want 2/1/0", r.CorrectCount, r.IncorrectCount, r.UnansweredCount)
	}
	if r.Score != 2 {
		t.Fatalf("score = %d, want 2", r.Score)
	}
	if !r.IsPassed {
		t.Fatalf("score 2 against threshold 2 should pass")
	}

	wantStatus := []AnswerStatus{AnswerCorrect, AnswerIncorrect, AnswerCorrect}
	for i, d := range r.Details {
		if d.Status != wantStatus[i] {
			t.Errorf("detail %d status = %s, want %s", i, d.Status, wantStatus[i])
		}
	}
}

func TestScorePassThreshold(t *testing.T) {
	const total, threshold, correct = 65, 45, 50

	qs := questionsWithAnswers(make([]string, total)...)
	answers := make([]*string, total)
	for i := range qs {
		qs[i].MostVotedAnswer = "A"
		if i < correct {
			answers[i] = strptr("A")
		} else {
			answers[i] = strptr("B")
		}
	}

	r, err := Score(qs, answers, threshold, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if r.Score != correct {
		t.Fatalf("score = %d, want %d", r.Score, correct)
	}
	if !r.IsPassed {
		t.Fatalf("score %d against threshold %d should pass", correct, threshold)
	}

	// One below the threshold fails.
	answers[0] = strptr("B")
	answers[1] = strptr("B")
	answers[2] = strptr("B")
	answers[3] = strptr("B")
	answers[4] = strptr("B")
	answers[5] = strptr("B")
	r, err = Score(qs, answers, threshold, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if r.Score != correct-6 || r.IsPassed {
		t.Fatalf("score %d passed=%v, want %d failed", r.Score, r.IsPassed, correct-6)
	}
}

func TestScoreMultiAnswerSetSemantics(t *testing.T) {
	qs := questionsWithAnswers("BD")

	tests := []struct {
		answer string
		status AnswerStatus
	}{
		{answer: "BD", status: AnswerCorrect},
		{answer: "DB", status: AnswerCorrect},
		{answer: "bd", status: AnswerCorrect},
		{answer: "BDD", status: AnswerCorrect},
		{answer: "B", status: AnswerIncorrect},
		{answer: "BDC", status: AnswerIncorrect},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			r, err := Score(qs, []*string{strptr(tt.answer)}, 1, time.Time{}, time.Time{})
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			if got := r.Details[0].Status; got != tt.status {
				t.Fatalf("%q graded %s, want %s", tt.answer, got, tt.status)
			}
		})
	}
}

func TestScoreUnanswered(t *testing.T) {
	qs := questionsWithAnswers("A", "B", "C")
	answers := []*string{nil, strptr(""), strptr("  ")}

	r, err := Score(qs, answers, 1, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if r.UnansweredCount != 3 || r.CorrectCount != 0 || r.IncorrectCount != 0 {
		t.Fatalf("counts = %d/%d/%d, want 0/0/3", r.CorrectCount, r.IncorrectCount, r.UnansweredCount)
	}
}

func TestScoreTimeSpent(t *testing.T) {
	qs := questionsWithAnswers("A")
	answers := []*string{strptr("A")}

	start := time.Now()
	end := start.Add(90 * time.Second)

	r, err := Score(qs, answers, 1, start, end)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if r.TimeSpentSeconds != 90 {
		t.Fatalf("time spent = %d, want 90", r.TimeSpentSeconds)
	}

	// Missing timestamps report zero instead of a nonsense duration.
	r, err = Score(qs, answers, 1, time.Time{}, end)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if r.TimeSpentSeconds != 0 {
		t.Fatalf("time spent without start = %d, want 0", r.TimeSpentSeconds)
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	qs := questionsWithAnswers("A", "BD", "C", "D")
	answers := []*string{strptr("A"), strptr("DB"), nil, strptr("B")}
	start := time.Now()
	end := start.Add(time.Minute)

	r1, err := Score(qs, answers, 2, start, end)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	r2, err := Score(qs, answers, 2, start, end)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !reflect.DeepEqual(r1, r2) {
		t.Fatalf("recomputed result differs:\n%+v\n%+v", r1, r2)
	}
}

func TestScoreLengthMismatch(t *testing.T) {
	qs := questionsWithAnswers("A", "B")
	if _, err := Score(qs, make([]*string, 3), 1, time.Time{}, time.Time{}); !errors.Is(err, ErrExamData) {
		t.Fatalf("Score with mismatched lengths = %v, want ErrExamData", err)
	}
}
