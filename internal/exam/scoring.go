package exam

import (
	"math"
	"strings"
	"time"

	"github.com/quiznox/quiznox-client/internal/model"
)

// AnswerStatus classifies one answered question.
type AnswerStatus string

const (
	AnswerCorrect    AnswerStatus = "CORRECT"
	AnswerIncorrect  AnswerStatus = "INCORRECT"
	AnswerUnanswered AnswerStatus = "UNANSWERED"
)

// Detail is the per-question row of an exam result.
type Detail struct {
	QuestionIndex int          `json:"question_index"`
	QuestionText  string       `json:"question_text"`
	Choices       []string     `json:"choices"`
	UserAnswer    *string      `json:"user_answer"`
	CorrectAnswer string       `json:"correct_answer"`
	Status        AnswerStatus `json:"status"`
}

// Result is derived from a finished session, never stored, and carries
// everything the result view renders.
type Result struct {
	Score            int      `json:"score"`
	TotalQuestions   int      `json:"total_questions"`
	CorrectCount     int      `json:"correct_count"`
	IncorrectCount   int      `json:"incorrect_count"`
	UnansweredCount  int      `json:"unanswered_count"`
	PassThreshold    int      `json:"pass_threshold"`
	IsPassed         bool     `json:"is_passed"`
	TimeSpentSeconds int      `json:"time_spent_seconds"`
	Details          []Detail `json:"details"`
}

// Score grades an answer sheet against its question set. A pure function:
// no state is read or written, so recomputation over the same inputs is
// idempotent. A correct answer means the selected choice letters equal the
// canonical set exactly — "BD" requires B and D and nothing else, in any
// order.
func Score(questions []model.Question, answers []*string, passThreshold int, start, end time.Time) (*Result, error) {
	if len(questions) != len(answers) {
		return nil, ErrExamData
	}

	r := &Result{
		TotalQuestions: len(questions),
		PassThreshold:  passThreshold,
		Details:        make([]Detail, 0, len(questions)),
	}

	for i, q := range questions {
		d := Detail{
			QuestionIndex: i,
			QuestionText:  q.QuestionText,
			Choices:       q.Choices,
			UserAnswer:    answers[i],
			CorrectAnswer: q.MostVotedAnswer,
		}

		switch {
		case answers[i] == nil || strings.TrimSpace(*answers[i]) == "":
			d.Status = AnswerUnanswered
			r.UnansweredCount++
		case sameChoiceSet(*answers[i], q.MostVotedAnswer):
			d.Status = AnswerCorrect
			r.CorrectCount++
		default:
			d.Status = AnswerIncorrect
			r.IncorrectCount++
		}

		r.Details = append(r.Details, d)
	}

	r.Score = r.CorrectCount
	r.IsPassed = r.Score >= passThreshold

	if !start.IsZero() && !end.IsZero() {
		r.TimeSpentSeconds = int(math.Round(end.Sub(start).Seconds()))
	}

	return r, nil
}

// sameChoiceSet compares two answer strings as sets of single-letter
// choice codes, ignoring order, case and duplicates.
func sameChoiceSet(a, b string) bool {
	return choiceSetKey(a) == choiceSetKey(b)
}

func choiceSetKey(s string) string {
	seen := [26]bool{}
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		if r >= 'A' && r <= 'Z' {
			seen[r-'A'] = true
		}
	}
	var sb strings.Builder
	for i, ok := range seen {
		if ok {
			sb.WriteByte(byte('A' + i))
		}
	}
	return sb.String()
}
