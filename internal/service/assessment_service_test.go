package service

import (
	"errors"
	"testing"

	"progression-service/internal/apperr"
	"progression-service/internal/models"
)

func TestValidateAnswers(t *testing.T) {
	cases := []struct {
		name    string
		answers []models.AnswerSubmission
		wantErr bool
	}{
		{
			name: "valid set",
			answers: []models.AnswerSubmission{
				{QuestionID: "q1", SelectedOption: models.OptionA},
				{QuestionID: "q2", SelectedOption: models.OptionD},
			},
		},
		{name: "empty set", answers: nil, wantErr: true},
		{
			name:    "missing question id",
			answers: []models.AnswerSubmission{{SelectedOption: models.OptionA}},
			wantErr: true,
		},
		{
			name:    "invalid option",
			answers: []models.AnswerSubmission{{QuestionID: "q1", SelectedOption: "E"}},
			wantErr: true,
		},
		{
			name:    "lowercase option rejected",
			answers: []models.AnswerSubmission{{QuestionID: "q1", SelectedOption: "a"}},
			wantErr: true,
		},
		{
			name: "duplicate question",
			answers: []models.AnswerSubmission{
				{QuestionID: "q1", SelectedOption: models.OptionA},
				{QuestionID: "q1", SelectedOption: models.OptionB},
			},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateAnswers(tc.answers)
			if tc.wantErr {
				var validation *apperr.ValidationError
				if !errors.As(err, &validation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
