package progression

import (
	"testing"
	"time"

	"progression-service/internal/models"
)

func TestApplyDiagnosticSetsPlacement(t *testing.T) {
	rec := models.ProgressRecord{UserID: "u1"}
	now := time.Now()

	updated := ApplyDiagnostic(rec, DiagnosticEvent{Score: 18, PlacedStage: 3, At: now})

	if !updated.DiagnosticCompleted {
		t.Error("Expected diagnostic to be marked completed")
	}
	if updated.DiagnosticScore == nil || *updated.DiagnosticScore != 18 {
		t.Errorf("Expected diagnostic score 18, got %v", updated.DiagnosticScore)
	}
	if updated.CurrentStage != 3 {
		t.Errorf("Expected current stage 3, got %d", updated.CurrentStage)
	}
	if rec.DiagnosticCompleted {
		t.Error("Input record must not be mutated")
	}
}

func TestApplyDiagnosticNeverRegresses(t *testing.T) {
	rec := models.ProgressRecord{UserID: "u1", CurrentStage: 4}

	updated := ApplyDiagnostic(rec, DiagnosticEvent{Score: 2, PlacedStage: 1, At: time.Now()})

	if updated.CurrentStage != 4 {
		t.Errorf("Placement regressed current stage to %d", updated.CurrentStage)
	}
}

func TestApplyStagePassForwardOnly(t *testing.T) {
	testCases := []struct {
		name     string
		current  int
		passed   int
		expected int
	}{
		{"advance to next", 2, 3, 3},
		{"retake earlier stage", 4, 2, 4},
		{"same stage", 3, 3, 3},
		{"jump forward", 1, 5, 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := models.ProgressRecord{CurrentStage: tc.current}
			updated := ApplyStagePass(rec, StagePassEvent{StageNumber: tc.passed, At: time.Now()})
			if updated.CurrentStage != tc.expected {
				t.Errorf("Expected current stage %d, got %d", tc.expected, updated.CurrentStage)
			}
		})
	}
}
