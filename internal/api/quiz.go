package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/quiznox/quiznox-client/internal/apperr"
	"github.com/quiznox/quiznox-client/internal/model"
)

// QuizClient talks to the quiz gateway. Transient fetch failures are
// retried a bounded number of times with a fixed delay before being
// surfaced.
type QuizClient struct {
	base       string
	http       *http.Client
	retries    int
	retryDelay time.Duration
	validate   *validator.Validate
	log        zerolog.Logger
}

// NewQuizClient creates a QuizClient for the given gateway base URL.
func NewQuizClient(baseURL string, httpClient *http.Client, retries int, retryDelay time.Duration, log zerolog.Logger) *QuizClient {
	return &QuizClient{
		base:       baseURL,
		http:       httpClient,
		retries:    retries,
		retryDelay: retryDelay,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		log:        log.With().Str("component", "quiz_api").Logger(),
	}
}

// FetchQuestions loads a topic's full question bank. The payload must be
// a JSON array of well-formed questions; anything else is a data-format
// error, offered back to the user with a retry.
func (c *QuizClient) FetchQuestions(ctx context.Context, topicID string) ([]model.Question, error) {
	path := "/questions?topicId=" + url.QueryEscape(topicID)

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.log.Warn().Err(lastErr).Int("attempt", attempt).Str("topic", topicID).Msg("retrying question fetch")
			select {
			case <-ctx.Done():
				return nil, apperr.Network("question fetch cancelled", ctx.Err())
			case <-time.After(c.retryDelay):
			}
		}

		qs, err := c.fetchOnce(ctx, path)
		if err == nil {
			return qs, nil
		}
		lastErr = err

		// Only transient failures are worth retrying; auth and shape
		// errors will not get better on their own.
		if apperr.KindOf(err) != apperr.KindNetwork {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *QuizClient) fetchOnce(ctx context.Context, path string) ([]model.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if apperr.KindOf(err) != "" {
			return nil, err // Already tagged by the transport.
		}
		return nil, apperr.Network("fetch questions", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Network("read questions response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, "")
	}

	var rows []model.RawQuestion
	if jerr := json.Unmarshal(raw, &rows); jerr != nil {
		return nil, apperr.DataFormat("question payload is not an array", jerr)
	}
	if len(rows) == 0 {
		return nil, apperr.DataFormat("question payload is empty", nil)
	}

	out := make([]model.Question, 0, len(rows))
	for i, row := range rows {
		if verr := c.validate.Struct(row); verr != nil {
			return nil, apperr.DataFormat(fmt.Sprintf("question %d is malformed", i), verr)
		}
		out = append(out, model.Question{
			QuestionNumber:         row.QuestionNumber,
			QuestionText:           row.QuestionText,
			Choices:                row.Choices,
			MostVotedAnswer:        row.MostVotedAnswer,
			OriginalQuestionNumber: row.QuestionNumber,
			TopicID:                row.TopicID,
		})
	}
	return out, nil
}
