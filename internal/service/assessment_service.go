package service

import (
	"context"

	"progression-service/internal/apperr"
	"progression-service/internal/models"
	"progression-service/internal/progression"
	"progression-service/internal/scoring"
)

// AssessmentService runs a submission end to end: option validation,
// server-side scoring, then the progression transition. Client-reported
// scores are never trusted; only the raw answer set crosses the wire.
type AssessmentService struct {
	engine  *scoring.Engine
	machine *progression.Machine
}

func NewAssessmentService(engine *scoring.Engine, machine *progression.Machine) *AssessmentService {
	return &AssessmentService{engine: engine, machine: machine}
}

type DiagnosticResult struct {
	progression.DiagnosticOutcome
	Results []scoring.QuestionResult `json:"results"`
}

type StageResult struct {
	progression.StageOutcome
	Results []scoring.QuestionResult `json:"results"`
}

func (s *AssessmentService) SubmitDiagnostic(ctx context.Context, userID string, answers []models.AnswerSubmission) (*DiagnosticResult, error) {
	if err := validateAnswers(answers); err != nil {
		return nil, err
	}

	scored, err := s.engine.Score(ctx, answers)
	if err != nil {
		return nil, err
	}

	outcome, err := s.machine.SubmitDiagnostic(ctx, userID, scored.Score, scored.Total)
	if err != nil {
		return nil, err
	}

	return &DiagnosticResult{
		DiagnosticOutcome: *outcome,
		Results:           scored.Questions,
	}, nil
}

func (s *AssessmentService) SubmitStage(ctx context.Context, userID, stageID string, answers []models.AnswerSubmission) (*StageResult, error) {
	if err := validateAnswers(answers); err != nil {
		return nil, err
	}

	scored, err := s.engine.Score(ctx, answers)
	if err != nil {
		return nil, err
	}

	outcome, err := s.machine.SubmitStage(ctx, userID, stageID, scored.Score, scored.Total)
	if err != nil {
		return nil, err
	}

	return &StageResult{
		StageOutcome: *outcome,
		Results:      scored.Questions,
	}, nil
}

func validateAnswers(answers []models.AnswerSubmission) error {
	if len(answers) == 0 {
		return apperr.Validation("answer set must not be empty")
	}
	seen := make(map[string]bool, len(answers))
	for _, a := range answers {
		if a.QuestionID == "" {
			return apperr.Validation("answer is missing a question id")
		}
		if !models.ValidOption(a.SelectedOption) {
			return apperr.Validation("invalid option %q for question %s", a.SelectedOption, a.QuestionID)
		}
		if seen[a.QuestionID] {
			return apperr.Validation("duplicate answer for question %s", a.QuestionID)
		}
		seen[a.QuestionID] = true
	}
	return nil
}
