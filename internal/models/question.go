package models

import "time"

// Valid answer options. CorrectOption is ground truth held server side and
// is never marshaled into API payloads; delivery goes through Sanitized.
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

type Question struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	StageID       string    `bson:"stage_id" json:"stage_id"`
	Text          string    `bson:"question_text" json:"question_text"`
	OptionA       string    `bson:"option_a" json:"option_a"`
	OptionB       string    `bson:"option_b" json:"option_b"`
	OptionC       string    `bson:"option_c" json:"option_c"`
	OptionD       string    `bson:"option_d" json:"option_d"`
	CorrectOption string    `bson:"correct_option" json:"-"`
	CreatedAt     time.Time `bson:"created_at" json:"-"`
}

func ValidOption(opt string) bool {
	switch opt {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// SanitizedQuestion is the client-facing shape of a question during
// assessment delivery.
type SanitizedQuestion struct {
	ID      string `json:"id"`
	Text    string `json:"question_text"`
	OptionA string `json:"option_a"`
	OptionB string `json:"option_b"`
	OptionC string `json:"option_c"`
	OptionD string `json:"option_d"`
}

func (q *Question) Sanitized() SanitizedQuestion {
	return SanitizedQuestion{
		ID:      q.ID,
		Text:    q.Text,
		OptionA: q.OptionA,
		OptionB: q.OptionB,
		OptionC: q.OptionC,
		OptionD: q.OptionD,
	}
}
