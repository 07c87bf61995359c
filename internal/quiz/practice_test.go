package quiz

import (
	"fmt"
	"testing"

	"github.com/quiznox/quiznox-client/internal/model"
)

func topicQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			QuestionNumber:  i + 1,
			QuestionText:    fmt.Sprintf("question %d", i+1),
			Choices:         []string{"A. one", "B. two"},
			MostVotedAnswer: "A",
			TopicID:         "AWS_SAA",
		}
	}
	return qs
}

func TestScrollClamp(t *testing.T) {
	s := NewSession()
	s.SetTopic("AWS_SAA", topicQuestions(10))

	s.SetScrollIndex(7)
	if got := s.ScrollIndex(); got != 7 {
		t.Fatalf("scroll = %d, want 7", got)
	}

	s.SetScrollIndex(99)
	if got := s.ScrollIndex(); got != 9 {
		t.Fatalf("scroll clamped to %d, want 9", got)
	}

	s.SetScrollIndex(-3)
	if got := s.ScrollIndex(); got != 0 {
		t.Fatalf("scroll clamped to %d, want 0", got)
	}
}

func TestSetTopicRewindsScroll(t *testing.T) {
	s := NewSession()
	s.SetTopic("AWS_SAA", topicQuestions(10))
	s.SetScrollIndex(5)

	s.SetTopic("AWS_DVA", topicQuestions(4))
	if got := s.ScrollIndex(); got != 0 {
		t.Fatalf("scroll = %d after topic change, want 0", got)
	}
	if got := s.TopicID(); got != "AWS_DVA" {
		t.Fatalf("topic = %q, want AWS_DVA", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewSession()
	s.SetTopic("AWS_SOA", topicQuestions(6))
	s.SetScrollIndex(4)

	restored := NewSession()
	restored.Restore(s.Snapshot())

	if got := restored.TopicID(); got != "AWS_SOA" {
		t.Fatalf("topic = %q, want AWS_SOA", got)
	}
	if got := restored.ScrollIndex(); got != 4 {
		t.Fatalf("scroll = %d, want 4", got)
	}
	if got := len(restored.Questions()); got != 6 {
		t.Fatalf("questions = %d, want 6", got)
	}
}

func TestRestoreClampsScroll(t *testing.T) {
	s := NewSession()
	s.Restore(Snapshot{
		TopicID:     "AWS_SAA",
		Questions:   topicQuestions(3),
		ScrollIndex: 42,
	})

	if got := s.ScrollIndex(); got != 2 {
		t.Fatalf("restored scroll = %d, want clamped 2", got)
	}
}
