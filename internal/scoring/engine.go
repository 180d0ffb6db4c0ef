// Package scoring verifies submitted answer sets against the
// authoritative answer key. Scoring is pure: the same submissions and key
// always produce the same result, and nothing is written.
package scoring

import (
	"context"
	"fmt"

	"progression-service/internal/apperr"
	"progression-service/internal/models"
)

// AnswerKeyStore resolves question ids to their correct option. Ids with
// no match are simply absent from the returned map.
type AnswerKeyStore interface {
	CorrectOptions(ctx context.Context, questionIDs []string) (map[string]string, error)
}

// QuestionResult is the per-question correctness breakdown returned after
// a submission. CorrectOption is nil when the question id did not resolve.
type QuestionResult struct {
	QuestionID     string  `json:"question_id"`
	SelectedOption string  `json:"selected_option"`
	CorrectOption  *string `json:"correct_option"`
	IsCorrect      bool    `json:"is_correct"`
}

type Result struct {
	Score      int              `json:"score"`
	Total      int              `json:"total"`
	Percentage float64          `json:"percentage"`
	Questions  []QuestionResult `json:"results"`
}

type Engine struct {
	keys AnswerKeyStore
}

func NewEngine(keys AnswerKeyStore) *Engine {
	return &Engine{keys: keys}
}

// Score grades the submitted answers. Total is the submission count, not
// the stage's configured size: whatever was delivered is exactly what gets
// scored. An unknown question id degrades to an incorrect item rather than
// failing the whole assessment.
func (e *Engine) Score(ctx context.Context, submissions []models.AnswerSubmission) (*Result, error) {
	if len(submissions) == 0 {
		return nil, apperr.Validation("answer set must not be empty")
	}

	ids := make([]string, 0, len(submissions))
	for _, s := range submissions {
		ids = append(ids, s.QuestionID)
	}

	key, err := e.keys.CorrectOptions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load answer key: %w", err)
	}

	result := &Result{
		Total:     len(submissions),
		Questions: make([]QuestionResult, 0, len(submissions)),
	}
	for _, s := range submissions {
		qr := QuestionResult{
			QuestionID:     s.QuestionID,
			SelectedOption: s.SelectedOption,
		}
		if correct, ok := key[s.QuestionID]; ok {
			qr.CorrectOption = &correct
			qr.IsCorrect = correct == s.SelectedOption
		}
		if qr.IsCorrect {
			result.Score++
		}
		result.Questions = append(result.Questions, qr)
	}

	result.Percentage = float64(result.Score) / float64(result.Total) * 100
	return result, nil
}
