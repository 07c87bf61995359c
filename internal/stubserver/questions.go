package stubserver

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/quiznox/quiznox-client/internal/model"
)

const bankSize = 120

var choiceLetters = []string{"A", "B", "C", "D", "E"}

// questionBank generates a deterministic sample bank for a topic. The
// same topic ID always yields the same questions, so client runs against
// the stub are reproducible.
func questionBank(topicID string) []model.RawQuestion {
	h := fnv.New64a()
	h.Write([]byte(topicID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	bank := make([]model.RawQuestion, 0, bankSize)
	for i := 1; i <= bankSize; i++ {
		nChoices := 4 + rng.Intn(2)
		choices := make([]string, nChoices)
		for j := range choices {
			choices[j] = fmt.Sprintf("%s. Sample choice %d for question %d", choiceLetters[j], j+1, i)
		}

		// Roughly one in four questions requires two selections.
		answer := choiceLetters[rng.Intn(nChoices)]
		if rng.Intn(4) == 0 {
			second := choiceLetters[rng.Intn(nChoices)]
			if second != answer {
				if second < answer {
					answer, second = second, answer
				}
				answer += second
			}
		}

		bank = append(bank, model.RawQuestion{
			TopicID:         topicID,
			QuestionNumber:  i,
			QuestionText:    fmt.Sprintf("Sample question %d for topic %s?", i, topicID),
			Choices:         choices,
			MostVotedAnswer: answer,
		})
	}
	return bank
}
