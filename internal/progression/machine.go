// Package progression owns the per-user progression record and the
// append-only attempt ledger, and applies the transitions triggered by
// diagnostic and stage assessment submissions.
package progression

import (
	"context"
	"fmt"
	"time"

	"progression-service/internal/apperr"
	"progression-service/internal/keylock"
	"progression-service/internal/models"
	"progression-service/internal/placement"
)

// The diagnostic attempt recorded for audit uses the same pass rule as a
// default stage: 60 percent of the delivered questions.
const diagnosticPassPercent = 60.0

// StageCatalog is the ordered, immutable-during-a-session list of stages.
// Lookups return (nil, nil) when no stage matches.
type StageCatalog interface {
	ByID(ctx context.Context, id string) (*models.Stage, error)
	ByNumber(ctx context.Context, number int) (*models.Stage, error)
}

// ProgressStore persists one ProgressRecord per user. ByUserID returns
// (nil, nil) when the user has no record yet.
type ProgressStore interface {
	ByUserID(ctx context.Context, userID string) (*models.ProgressRecord, error)
	Create(ctx context.Context, rec *models.ProgressRecord) error
	Save(ctx context.Context, rec *models.ProgressRecord) error
}

// AttemptStore is the append-only ledger. Insert must fail with a
// ConflictError when the (user, stage, attempt_number) triple already
// exists, which backstops the per-user lock against duplicate numbering.
type AttemptStore interface {
	CountForUserStage(ctx context.Context, userID, stageID string) (int, error)
	Insert(ctx context.Context, attempt *models.AttemptRecord) error
	ForUser(ctx context.Context, userID, stageID string) ([]models.AttemptRecord, error)
	PassedStageNumbers(ctx context.Context, userID string) ([]int, error)
}

type DiagnosticOutcome struct {
	StartingStage int     `json:"starting_stage"`
	Score         int     `json:"score"`
	Total         int     `json:"total"`
	Percentage    float64 `json:"percentage"`
}

type StageOutcome struct {
	AttemptNumber      int     `json:"attempt_number"`
	Passed             bool    `json:"passed"`
	Score              int     `json:"score"`
	Total              int     `json:"total"`
	Percentage         float64 `json:"percentage"`
	RequiredPercentage float64 `json:"required_percentage"`
}

type Overview struct {
	CurrentStage        int  `json:"current_stage"`
	DiagnosticCompleted bool `json:"diagnostic_completed"`
	DiagnosticScore     *int `json:"diagnostic_score"`
	CompletedStageCount int  `json:"completed_stage_count"`
}

type Machine struct {
	progress ProgressStore
	attempts AttemptStore
	stages   StageCatalog
	locks    *keylock.Locker
	now      func() time.Time
}

func NewMachine(progress ProgressStore, attempts AttemptStore, stages StageCatalog) *Machine {
	return &Machine{
		progress: progress,
		attempts: attempts,
		stages:   stages,
		locks:    keylock.New(),
		now:      time.Now,
	}
}

// EnsureProgress creates the user's progress record if it does not exist
// yet. Called by the user.created event consumer, and defensively before
// any submission for users that predate event delivery.
func (m *Machine) EnsureProgress(ctx context.Context, userID string) (*models.ProgressRecord, error) {
	rec, err := m.progress.ByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress for user %s: %w", userID, err)
	}
	if rec != nil {
		return rec, nil
	}

	now := m.now()
	rec = &models.ProgressRecord{
		UserID:       userID,
		CurrentStage: models.DiagnosticStageNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.progress.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create progress for user %s: %w", userID, err)
	}
	return rec, nil
}

// SubmitDiagnostic applies the one-time placement transition. The
// diagnostic cannot be re-submitted; placement would otherwise silently
// regress learners who already progressed past their placement stage.
// A stage-0 attempt is appended purely for audit; it never moves
// CurrentStage, which placement has already set.
func (m *Machine) SubmitDiagnostic(ctx context.Context, userID string, score, total int) (*DiagnosticOutcome, error) {
	if err := validateScore(score, total); err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(userID)
	defer unlock()

	rec, err := m.EnsureProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec.DiagnosticCompleted {
		return nil, apperr.Conflict("diagnostic assessment already completed for user %s", userID)
	}

	percentage := float64(score) / float64(total) * 100
	placed := placement.StageFor(percentage)

	updated := ApplyDiagnostic(*rec, DiagnosticEvent{Score: score, PlacedStage: placed, At: m.now()})
	if err := m.progress.Save(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to save placement for user %s: %w", userID, err)
	}

	diagnostic, err := m.stages.ByNumber(ctx, models.DiagnosticStageNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load diagnostic stage: %w", err)
	}
	if diagnostic != nil {
		if err := m.appendAttempt(ctx, userID, diagnostic, score, total, percentage >= diagnosticPassPercent); err != nil {
			return nil, err
		}
	}

	return &DiagnosticOutcome{
		StartingStage: placed,
		Score:         score,
		Total:         total,
		Percentage:    percentage,
	}, nil
}

// SubmitStage appends an attempt for a regular stage and, on a pass,
// advances CurrentStage forward only. Attempt counting and the insert run
// under the per-user lock so concurrent submissions cannot race to the
// same attempt number.
func (m *Machine) SubmitStage(ctx context.Context, userID, stageID string, score, total int) (*StageOutcome, error) {
	if err := validateScore(score, total); err != nil {
		return nil, err
	}

	stage, err := m.stages.ByID(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stage %s: %w", stageID, err)
	}
	if stage == nil {
		return nil, apperr.NotFound("stage", stageID)
	}
	if stage.IsDiagnostic() {
		return nil, apperr.Validation("the diagnostic assessment has its own submission endpoint")
	}

	unlock := m.locks.Lock(userID)
	defer unlock()

	rec, err := m.EnsureProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	percentage := float64(score) / float64(total) * 100
	required := stage.RequiredPercentage()
	passed := percentage >= required

	count, err := m.attempts.CountForUserStage(ctx, userID, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts for user %s on stage %s: %w", userID, stageID, err)
	}
	attempt := &models.AttemptRecord{
		UserID:         userID,
		StageID:        stage.ID,
		StageNumber:    stage.Number,
		StageName:      stage.Name,
		Score:          score,
		TotalQuestions: total,
		Passed:         passed,
		AttemptNumber:  count + 1,
		CompletedAt:    m.now(),
	}
	if err := m.attempts.Insert(ctx, attempt); err != nil {
		return nil, err
	}

	if passed {
		updated := ApplyStagePass(*rec, StagePassEvent{StageNumber: stage.Number, At: m.now()})
		if err := m.progress.Save(ctx, &updated); err != nil {
			return nil, fmt.Errorf("failed to advance stage for user %s: %w", userID, err)
		}
	}

	return &StageOutcome{
		AttemptNumber:      attempt.AttemptNumber,
		Passed:             passed,
		Score:              score,
		Total:              total,
		Percentage:         percentage,
		RequiredPercentage: required,
	}, nil
}

// Progress returns the learner's current position plus the count of
// distinct regular stages with at least one passed attempt. The ledger
// is authoritative: if a crash landed between an attempt insert and the
// stage advance, CurrentStage is re-derived from the passed attempts and
// repaired here.
func (m *Machine) Progress(ctx context.Context, userID string) (*Overview, error) {
	unlock := m.locks.Lock(userID)
	defer unlock()

	rec, err := m.progress.ByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress for user %s: %w", userID, err)
	}
	if rec == nil {
		return nil, apperr.NotFound("progress for user", userID)
	}

	passed, err := m.attempts.PassedStageNumbers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load passed stages for user %s: %w", userID, err)
	}
	completed, maxPassed := 0, 0
	for _, n := range passed {
		if n > models.DiagnosticStageNumber {
			completed++
			if n > maxPassed {
				maxPassed = n
			}
		}
	}

	if maxPassed > rec.CurrentStage {
		updated := ApplyStagePass(*rec, StagePassEvent{StageNumber: maxPassed, At: m.now()})
		if err := m.progress.Save(ctx, &updated); err != nil {
			return nil, fmt.Errorf("failed to repair stage for user %s: %w", userID, err)
		}
		rec = &updated
	}

	return &Overview{
		CurrentStage:        rec.CurrentStage,
		DiagnosticCompleted: rec.DiagnosticCompleted,
		DiagnosticScore:     rec.DiagnosticScore,
		CompletedStageCount: completed,
	}, nil
}

// History returns the user's attempts, most recent first. stageID narrows
// the ledger to a single stage when non-empty.
func (m *Machine) History(ctx context.Context, userID, stageID string) ([]models.AttemptRecord, error) {
	attempts, err := m.attempts.ForUser(ctx, userID, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt history for user %s: %w", userID, err)
	}
	return attempts, nil
}

// Unlocked reports whether a stage is reachable: the diagnostic is always
// visible, the rest unlock as CurrentStage advances to or past them.
func Unlocked(stageNumber int, rec *models.ProgressRecord) bool {
	if stageNumber == models.DiagnosticStageNumber {
		return true
	}
	return rec != nil && stageNumber <= rec.CurrentStage
}

func (m *Machine) appendAttempt(ctx context.Context, userID string, stage *models.Stage, score, total int, passed bool) error {
	count, err := m.attempts.CountForUserStage(ctx, userID, stage.ID)
	if err != nil {
		return fmt.Errorf("failed to count attempts for user %s on stage %s: %w", userID, stage.ID, err)
	}
	return m.attempts.Insert(ctx, &models.AttemptRecord{
		UserID:         userID,
		StageID:        stage.ID,
		StageNumber:    stage.Number,
		StageName:      stage.Name,
		Score:          score,
		TotalQuestions: total,
		Passed:         passed,
		AttemptNumber:  count + 1,
		CompletedAt:    m.now(),
	})
}

func validateScore(score, total int) error {
	if total <= 0 {
		return apperr.Validation("total questions must be positive")
	}
	if score < 0 || score > total {
		return apperr.Validation("score %d out of range for %d questions", score, total)
	}
	return nil
}
