package exam

import (
	"math/rand"

	"github.com/quiznox/quiznox-client/internal/model"
)

// Draw selects n questions at random from a topic bank and renumbers them
// 1..n for the mock exam, preserving each question's original bank number
// and topic. The bank itself is left untouched. If the bank holds fewer
// than n questions, every question is used.
func Draw(bank []model.Question, n int, rng *rand.Rand) []model.Question {
	shuffled := make([]model.Question, len(bank))
	copy(shuffled, bank)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if n > len(shuffled) {
		n = len(shuffled)
	}
	drawn := shuffled[:n]

	for i := range drawn {
		drawn[i].QuestionNumber = i + 1
	}
	return drawn
}
