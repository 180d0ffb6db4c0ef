package progression

import (
	"time"

	"progression-service/internal/models"
)

// Transitions are pure functions over a ProgressRecord so the state logic
// is testable independently of storage. The machine applies them under
// the per-user lock and persists the returned record.

// DiagnosticEvent carries the outcome of a scored diagnostic submission.
type DiagnosticEvent struct {
	Score       int
	PlacedStage int
	At          time.Time
}

// StagePassEvent records a passed assessment for a regular stage.
type StagePassEvent struct {
	StageNumber int
	At          time.Time
}

// ApplyDiagnostic marks the diagnostic as done and places the learner at
// the starting stage. Placement never lowers a stage already reached.
func ApplyDiagnostic(rec models.ProgressRecord, ev DiagnosticEvent) models.ProgressRecord {
	score := ev.Score
	rec.DiagnosticCompleted = true
	rec.DiagnosticScore = &score
	if ev.PlacedStage > rec.CurrentStage {
		rec.CurrentStage = ev.PlacedStage
	}
	rec.UpdatedAt = ev.At
	return rec
}

// ApplyStagePass advances the unlocked stage, forward only: retaking and
// passing an earlier stage must never regress CurrentStage.
func ApplyStagePass(rec models.ProgressRecord, ev StagePassEvent) models.ProgressRecord {
	if ev.StageNumber > rec.CurrentStage {
		rec.CurrentStage = ev.StageNumber
	}
	rec.UpdatedAt = ev.At
	return rec
}
