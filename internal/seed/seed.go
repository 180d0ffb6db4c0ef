package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"progression-service/internal/models"
	"progression-service/internal/repository"
)

type seedQuestion struct {
	Text          string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
}

type seedStage struct {
	Number         int            `json:"stage_number"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	TotalQuestions int            `json:"total_questions"`
	PassingScore   int            `json:"passing_score"`
	Questions      []seedQuestion `json:"questions"`
}

// SeedFromFile loads the stage catalog and question pools from a JSON
// file on first boot. A non-empty stages collection means the catalog is
// already managed and seeding is skipped entirely.
func SeedFromFile(ctx context.Context, stages *repository.StageRepository, questions *repository.QuestionRepository, path string) error {
	if path == "" {
		return nil
	}

	count, err := stages.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count stages: %w", err)
	}
	if count > 0 {
		log.Printf("Stage catalog already present (%d stages), skipping seed", count)
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var entries []seedStage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for _, entry := range entries {
		if !validCorrectOptions(entry.Questions) {
			return fmt.Errorf("seed stage %d has a question with an invalid correct option", entry.Number)
		}

		stage := &models.Stage{
			Number:         entry.Number,
			Name:           entry.Name,
			Description:    entry.Description,
			TotalQuestions: entry.TotalQuestions,
			PassingScore:   entry.PassingScore,
		}
		if err := stages.Create(ctx, stage); err != nil {
			return fmt.Errorf("failed to seed stage %d: %w", entry.Number, err)
		}

		for _, q := range entry.Questions {
			question := &models.Question{
				StageID:       stage.ID,
				Text:          q.Text,
				OptionA:       q.OptionA,
				OptionB:       q.OptionB,
				OptionC:       q.OptionC,
				OptionD:       q.OptionD,
				CorrectOption: q.CorrectOption,
			}
			if err := questions.Create(ctx, question); err != nil {
				return fmt.Errorf("failed to seed question for stage %d: %w", entry.Number, err)
			}
		}
		log.Printf("Seeded stage %d (%s) with %d questions", entry.Number, entry.Name, len(entry.Questions))
	}

	return nil
}

func validCorrectOptions(qs []seedQuestion) bool {
	for _, q := range qs {
		if !models.ValidOption(q.CorrectOption) {
			return false
		}
	}
	return true
}
