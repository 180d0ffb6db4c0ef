package models

// AnswerSubmission is a single (question, selected option) pair as sent by
// the client when an assessment is submitted.
type AnswerSubmission struct {
	QuestionID     string `json:"question_id" binding:"required"`
	SelectedOption string `json:"selected_option" binding:"required"`
}
