package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"progression-service/internal/apperr"
	"progression-service/internal/models"
	"progression-service/internal/progression"
)

type StageLister interface {
	FindAll(ctx context.Context) ([]models.Stage, error)
	ByID(ctx context.Context, id string) (*models.Stage, error)
}

type QuestionSource interface {
	FindByStage(ctx context.Context, stageID string) ([]models.Question, error)
}

type ProgressReader interface {
	ByUserID(ctx context.Context, userID string) (*models.ProgressRecord, error)
}

type PassedReader interface {
	PassedStageNumbers(ctx context.Context, userID string) ([]int, error)
}

// StageService serves the stage catalog with per-user unlock state and
// assembles assessment question sets.
type StageService struct {
	stages    StageLister
	questions QuestionSource
	progress  ProgressReader
	attempts  PassedReader

	mu  sync.Mutex
	rng *rand.Rand
}

func NewStageService(stages StageLister, questions QuestionSource, progress ProgressReader, attempts PassedReader) *StageService {
	return &StageService{
		stages:    stages,
		questions: questions,
		progress:  progress,
		attempts:  attempts,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ListStages returns the full catalog decorated with the user's unlock
// and completion flags. A user with no progress record sees only the
// diagnostic unlocked.
func (s *StageService) ListStages(ctx context.Context, userID string) ([]models.StageWithProgress, error) {
	stages, err := s.stages.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stages: %w", err)
	}

	rec, err := s.progress.ByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress for user %s: %w", userID, err)
	}

	passed, err := s.attempts.PassedStageNumbers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load passed stages for user %s: %w", userID, err)
	}
	passedSet := make(map[int]bool, len(passed))
	for _, n := range passed {
		passedSet[n] = true
	}

	out := make([]models.StageWithProgress, 0, len(stages))
	for _, stage := range stages {
		out = append(out, models.StageWithProgress{
			Stage:     stage,
			Unlocked:  progression.Unlocked(stage.Number, rec),
			Completed: passedSet[stage.Number],
		})
	}
	return out, nil
}

// StageQuestions draws the stage's assessment set: a random selection of
// the stage's question pool, without replacement, capped at the stage's
// configured size, with the answer key stripped. Locked stages and a
// completed diagnostic are refused.
func (s *StageService) StageQuestions(ctx context.Context, userID, stageID string) ([]models.SanitizedQuestion, error) {
	stage, err := s.stages.ByID(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stage %s: %w", stageID, err)
	}
	if stage == nil {
		return nil, apperr.NotFound("stage", stageID)
	}

	rec, err := s.progress.ByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress for user %s: %w", userID, err)
	}
	if stage.IsDiagnostic() && rec != nil && rec.DiagnosticCompleted {
		return nil, apperr.Conflict("diagnostic assessment already completed for user %s", userID)
	}
	if !progression.Unlocked(stage.Number, rec) {
		return nil, apperr.Validation("stage %d is locked", stage.Number)
	}

	pool, err := s.questions.FindByStage(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions for stage %s: %w", stageID, err)
	}
	if len(pool) == 0 {
		return nil, apperr.NotFound("questions for stage", stageID)
	}

	s.mu.Lock()
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	s.mu.Unlock()

	count := stage.TotalQuestions
	if count <= 0 || count > len(pool) {
		count = len(pool)
	}

	out := make([]models.SanitizedQuestion, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, pool[i].Sanitized())
	}
	return out, nil
}
