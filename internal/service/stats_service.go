package service

import (
	"context"
	"fmt"

	"progression-service/internal/models"
)

type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

type QuestionCounter interface {
	Count(ctx context.Context) (int64, error)
}

type ProgressCounter interface {
	Count(ctx context.Context) (int64, error)
	CountDiagnosticCompleted(ctx context.Context) (int64, error)
}

type CompletionCounter interface {
	CountPassed(ctx context.Context) (int64, error)
	StageCompletionCounts(ctx context.Context) (map[int]int, error)
}

type StageCompletionStat struct {
	StageNumber       int    `json:"stage_number"`
	Name              string `json:"name"`
	StudentsCompleted int    `json:"students_completed"`
}

type Statistics struct {
	TotalUsers            int64                 `json:"total_users"`
	TotalStages           int64                 `json:"total_stages"`
	TotalQuestions        int64                 `json:"total_questions"`
	StudentsStarted       int64                 `json:"students_started"`
	CompletedDiagnostic   int64                 `json:"completed_diagnostic"`
	TotalStageCompletions int64                 `json:"total_stage_completions"`
	StageCompletions      []StageCompletionStat `json:"stage_completions"`
}

// StatsService assembles platform-wide progression counts for
// instructor dashboards. Read-only over the same collections the engine
// writes.
type StatsService struct {
	users     UserCounter
	stages    StageLister
	questions QuestionCounter
	progress  ProgressCounter
	attempts  CompletionCounter
}

func NewStatsService(users UserCounter, stages StageLister, questions QuestionCounter, progress ProgressCounter, attempts CompletionCounter) *StatsService {
	return &StatsService{
		users:     users,
		stages:    stages,
		questions: questions,
		progress:  progress,
		attempts:  attempts,
	}
}

func (s *StatsService) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{}
	var err error

	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.TotalQuestions, err = s.questions.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	if stats.StudentsStarted, err = s.progress.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count progress records: %w", err)
	}
	if stats.CompletedDiagnostic, err = s.progress.CountDiagnosticCompleted(ctx); err != nil {
		return nil, fmt.Errorf("failed to count completed diagnostics: %w", err)
	}
	if stats.TotalStageCompletions, err = s.attempts.CountPassed(ctx); err != nil {
		return nil, fmt.Errorf("failed to count stage completions: %w", err)
	}

	stages, err := s.stages.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stages: %w", err)
	}
	counts, err := s.attempts.StageCompletionCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stage completion counts: %w", err)
	}

	stats.TotalStages = int64(len(stages))
	for _, stage := range stages {
		if stage.Number == models.DiagnosticStageNumber {
			continue
		}
		stats.StageCompletions = append(stats.StageCompletions, StageCompletionStat{
			StageNumber:       stage.Number,
			Name:              stage.Name,
			StudentsCompleted: counts[stage.Number],
		})
	}
	return stats, nil
}
