package models

import "time"

// AttemptRecord is one row of the append-only attempt ledger. Rows are
// never updated or deleted; the ledger is the sole source of truth for
// stage completion and certificate eligibility. AttemptNumber is strictly
// increasing per (user, stage) with no gaps or reuse.
type AttemptRecord struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	UserID         string    `bson:"user_id" json:"user_id"`
	StageID        string    `bson:"stage_id" json:"stage_id"`
	StageNumber    int       `bson:"stage_number" json:"stage_number"`
	StageName      string    `bson:"stage_name" json:"stage_name"`
	Score          int       `bson:"score" json:"score"`
	TotalQuestions int       `bson:"total_questions" json:"total_questions"`
	Passed         bool      `bson:"passed" json:"passed"`
	AttemptNumber  int       `bson:"attempt_number" json:"attempt_number"`
	CompletedAt    time.Time `bson:"completed_at" json:"completed_at"`
}

func (a *AttemptRecord) Percentage() float64 {
	if a.TotalQuestions == 0 {
		return 0
	}
	return float64(a.Score) / float64(a.TotalQuestions) * 100
}
