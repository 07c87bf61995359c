package model

// Question is a single quiz question as used by the client. Immutable
// once fetched.
type Question struct {
	// QuestionNumber is the 1-based position inside the drawn mock exam.
	QuestionNumber int      `json:"question_number"`
	QuestionText   string   `json:"question_text"`
	Choices        []string `json:"choices"`
	// MostVotedAnswer is the canonical correct-answer string, one or more
	// concatenated choice letters (e.g. "BD").
	MostVotedAnswer string `json:"most_voted_answer"`
	// OriginalQuestionNumber preserves the number the question carries in
	// its source bank, independent of the drawn position.
	OriginalQuestionNumber int    `json:"original_question_number"`
	TopicID                string `json:"topic_id"`
}

// RawQuestion mirrors the quiz gateway wire format for a question.
// Validation tags enforce the shape the client depends on.
type RawQuestion struct {
	TopicID         string   `json:"topic_id" validate:"required"`
	QuestionNumber  int      `json:"question_number" validate:"min=0"`
	QuestionText    string   `json:"question_text" validate:"required"`
	Choices         []string `json:"choices" validate:"required,min=2,dive,required"`
	MostVotedAnswer string   `json:"most_voted_answer" validate:"required"`
}
