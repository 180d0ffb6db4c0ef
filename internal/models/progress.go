package models

import "time"

// ProgressRecord tracks a single learner's position in the stage ladder.
// One record per user, created when the user is created. CurrentStage is
// monotonically non-decreasing over the record's lifetime; all mutation
// goes through the progression machine.
type ProgressRecord struct {
	ID                  string    `bson:"_id,omitempty" json:"id"`
	UserID              string    `bson:"user_id" json:"user_id"`
	CurrentStage        int       `bson:"current_stage" json:"current_stage"`
	DiagnosticCompleted bool      `bson:"diagnostic_completed" json:"diagnostic_completed"`
	DiagnosticScore     *int      `bson:"diagnostic_score" json:"diagnostic_score"`
	CreatedAt           time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time `bson:"updated_at" json:"updated_at"`
}
