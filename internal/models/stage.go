package models

import "time"

// DiagnosticStageNumber is the distinguished placement stage. It is always
// visible to learners and is not part of the sequential unlock ladder.
const DiagnosticStageNumber = 0

type Stage struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	Number         int       `bson:"stage_number" json:"stage_number"`
	Name           string    `bson:"name" json:"name"`
	Description    string    `bson:"description" json:"description"`
	TotalQuestions int       `bson:"total_questions" json:"total_questions"`
	PassingScore   int       `bson:"passing_score" json:"passing_score"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

func (s *Stage) IsDiagnostic() bool {
	return s.Number == DiagnosticStageNumber
}

// RequiredPercentage is the pass threshold for this stage's assessment,
// derived from the configured questions-correct count.
func (s *Stage) RequiredPercentage() float64 {
	if s.TotalQuestions == 0 {
		return 0
	}
	return float64(s.PassingScore) / float64(s.TotalQuestions) * 100
}

// StageWithProgress decorates a stage with the per-user flags consumed by
// the stage listing.
type StageWithProgress struct {
	Stage     `bson:",inline"`
	Unlocked  bool `json:"unlocked"`
	Completed bool `json:"completed"`
}
