package progression

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"progression-service/internal/apperr"
	"progression-service/internal/models"
)

type fakeCatalog struct {
	stages      []*models.Stage
	byNumberErr error
}

func (f *fakeCatalog) ByID(_ context.Context, id string) (*models.Stage, error) {
	for _, s := range f.stages {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) ByNumber(_ context.Context, number int) (*models.Stage, error) {
	if f.byNumberErr != nil {
		return nil, f.byNumberErr
	}
	for _, s := range f.stages {
		if s.Number == number {
			return s, nil
		}
	}
	return nil, nil
}

type fakeProgressStore struct {
	mu      sync.Mutex
	records map[string]models.ProgressRecord
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{records: make(map[string]models.ProgressRecord)}
}

func (f *fakeProgressStore) ByUserID(_ context.Context, userID string) (*models.ProgressRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[userID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeProgressStore) Create(_ context.Context, rec *models.ProgressRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.UserID] = *rec
	return nil
}

func (f *fakeProgressStore) Save(_ context.Context, rec *models.ProgressRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.UserID] = *rec
	return nil
}

type fakeAttemptStore struct {
	mu       sync.Mutex
	attempts []models.AttemptRecord
}

func (f *fakeAttemptStore) CountForUserStage(_ context.Context, userID, stageID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.attempts {
		if a.UserID == userID && a.StageID == stageID {
			count++
		}
	}
	return count, nil
}

func (f *fakeAttemptStore) Insert(_ context.Context, attempt *models.AttemptRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.UserID == attempt.UserID && a.StageID == attempt.StageID && a.AttemptNumber == attempt.AttemptNumber {
			return apperr.Conflict("duplicate attempt number %d", attempt.AttemptNumber)
		}
	}
	f.attempts = append(f.attempts, *attempt)
	return nil
}

func (f *fakeAttemptStore) ForUser(_ context.Context, userID, stageID string) ([]models.AttemptRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AttemptRecord
	for i := len(f.attempts) - 1; i >= 0; i-- {
		a := f.attempts[i]
		if a.UserID != userID {
			continue
		}
		if stageID != "" && a.StageID != stageID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAttemptStore) PassedStageNumbers(_ context.Context, userID string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[int]bool)
	var out []int
	for _, a := range f.attempts {
		if a.UserID == userID && a.Passed && !seen[a.StageNumber] {
			seen[a.StageNumber] = true
			out = append(out, a.StageNumber)
		}
	}
	return out, nil
}

func testStages() []*models.Stage {
	stages := []*models.Stage{
		{ID: "stage-0", Number: 0, Name: "General Assessment", TotalQuestions: 25, PassingScore: 15},
	}
	for n := 1; n <= 5; n++ {
		stages = append(stages, &models.Stage{
			ID:             fmt.Sprintf("stage-%d", n),
			Number:         n,
			Name:           fmt.Sprintf("Stage %d", n),
			TotalQuestions: 15,
			PassingScore:   9,
		})
	}
	return stages
}

func newTestMachine() (*Machine, *fakeProgressStore, *fakeAttemptStore) {
	progress := newFakeProgressStore()
	attempts := &fakeAttemptStore{}
	machine := NewMachine(progress, attempts, &fakeCatalog{stages: testStages()})
	return machine, progress, attempts
}

func TestSubmitDiagnosticPlacesUser(t *testing.T) {
	machine, progress, attempts := newTestMachine()
	ctx := context.Background()

	outcome, err := machine.SubmitDiagnostic(ctx, "u1", 18, 25)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if outcome.StartingStage != 3 {
		t.Errorf("Expected starting stage 3 for 72%%, got %d", outcome.StartingStage)
	}
	if outcome.Percentage != 72 {
		t.Errorf("Expected percentage 72, got %f", outcome.Percentage)
	}

	rec, _ := progress.ByUserID(ctx, "u1")
	if rec == nil || !rec.DiagnosticCompleted || rec.CurrentStage != 3 {
		t.Fatalf("Progress record not updated: %+v", rec)
	}
	if rec.DiagnosticScore == nil || *rec.DiagnosticScore != 18 {
		t.Errorf("Expected diagnostic score 18, got %v", rec.DiagnosticScore)
	}

	// Audit attempt against the diagnostic stage, passed at 72% >= 60%.
	history, _ := attempts.ForUser(ctx, "u1", "stage-0")
	if len(history) != 1 {
		t.Fatalf("Expected one audit attempt, got %d", len(history))
	}
	if !history[0].Passed || history[0].AttemptNumber != 1 {
		t.Errorf("Unexpected audit attempt: %+v", history[0])
	}
}

func TestSubmitDiagnosticRejectsResubmission(t *testing.T) {
	machine, progress, _ := newTestMachine()
	ctx := context.Background()

	if _, err := machine.SubmitDiagnostic(ctx, "u1", 20, 25); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	_, err := machine.SubmitDiagnostic(ctx, "u1", 5, 25)

	var conflict *apperr.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Expected ConflictError on re-submission, got %v", err)
	}

	// Placement must be untouched by the rejected call.
	rec, _ := progress.ByUserID(ctx, "u1")
	if rec.CurrentStage != 4 {
		t.Errorf("Expected current stage 4 preserved, got %d", rec.CurrentStage)
	}
}

func TestSubmitStageScenario(t *testing.T) {
	machine, progress, _ := newTestMachine()
	ctx := context.Background()

	if _, err := machine.SubmitDiagnostic(ctx, "u1", 18, 25); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// 10/15 against passingScore 9/15: required 60%, scored ~66.7%.
	outcome, err := machine.SubmitStage(ctx, "u1", "stage-3", 10, 15)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if outcome.RequiredPercentage != 60 {
		t.Errorf("Expected required percentage 60, got %f", outcome.RequiredPercentage)
	}
	if !outcome.Passed {
		t.Error("Expected 66.7%% to pass a 60%% threshold")
	}
	if outcome.AttemptNumber != 1 {
		t.Errorf("Expected attempt number 1, got %d", outcome.AttemptNumber)
	}

	rec, _ := progress.ByUserID(ctx, "u1")
	if rec.CurrentStage != 3 {
		t.Errorf("Expected current stage 3, got %d", rec.CurrentStage)
	}

	// A failing retake: attempt number 2, no state change.
	outcome, err = machine.SubmitStage(ctx, "u1", "stage-3", 7, 15)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if outcome.Passed {
		t.Error("Expected 46.7%% to fail a 60%% threshold")
	}
	if outcome.AttemptNumber != 2 {
		t.Errorf("Expected attempt number 2, got %d", outcome.AttemptNumber)
	}
	rec, _ = progress.ByUserID(ctx, "u1")
	if rec.CurrentStage != 3 {
		t.Errorf("Expected current stage to stay 3, got %d", rec.CurrentStage)
	}
}

func TestCurrentStageMonotonic(t *testing.T) {
	machine, progress, _ := newTestMachine()
	ctx := context.Background()

	if _, err := machine.SubmitStage(ctx, "u1", "stage-4", 12, 15); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rec, _ := progress.ByUserID(ctx, "u1")
	if rec.CurrentStage != 4 {
		t.Fatalf("Expected current stage 4, got %d", rec.CurrentStage)
	}

	// Passing an earlier stage again must not move the learner backwards.
	if _, err := machine.SubmitStage(ctx, "u1", "stage-2", 15, 15); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rec, _ = progress.ByUserID(ctx, "u1")
	if rec.CurrentStage != 4 {
		t.Errorf("Current stage regressed to %d", rec.CurrentStage)
	}
}

func TestAttemptNumbersSequential(t *testing.T) {
	machine, _, attempts := newTestMachine()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		outcome, err := machine.SubmitStage(ctx, "u1", "stage-1", 5, 15)
		if err != nil {
			t.Fatalf("Unexpected error on submission %d: %v", i, err)
		}
		if outcome.AttemptNumber != i+1 {
			t.Errorf("Expected attempt number %d, got %d", i+1, outcome.AttemptNumber)
		}
	}

	history, _ := attempts.ForUser(ctx, "u1", "stage-1")
	if len(history) != 5 {
		t.Fatalf("Expected 5 ledger rows, got %d", len(history))
	}
}

func TestAttemptNumbersConcurrent(t *testing.T) {
	machine, _, attempts := newTestMachine()
	ctx := context.Background()
	const submissions = 20

	var wg sync.WaitGroup
	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := machine.SubmitStage(ctx, "u1", "stage-2", 10, 15); err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	history, _ := attempts.ForUser(ctx, "u1", "stage-2")
	if len(history) != submissions {
		t.Fatalf("Expected %d ledger rows, got %d", submissions, len(history))
	}
	numbers := make([]int, 0, len(history))
	for _, a := range history {
		numbers = append(numbers, a.AttemptNumber)
	}
	sort.Ints(numbers)
	for i, n := range numbers {
		if n != i+1 {
			t.Fatalf("Attempt numbers have gaps or duplicates: %v", numbers)
		}
	}
}

func TestSubmitStageUnknownStage(t *testing.T) {
	machine, _, _ := newTestMachine()

	_, err := machine.SubmitStage(context.Background(), "u1", "no-such-stage", 5, 15)
	var notFound *apperr.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestSubmitStageRejectsDiagnosticStage(t *testing.T) {
	machine, _, _ := newTestMachine()

	_, err := machine.SubmitStage(context.Background(), "u1", "stage-0", 5, 25)
	var validation *apperr.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestSubmitStageValidatesScores(t *testing.T) {
	machine, _, _ := newTestMachine()
	ctx := context.Background()

	testCases := []struct {
		name  string
		score int
		total int
	}{
		{"zero total", 5, 0},
		{"negative score", -1, 15},
		{"score above total", 16, 15},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := machine.SubmitStage(ctx, "u1", "stage-1", tc.score, tc.total)
			var validation *apperr.ValidationError
			if !errors.As(err, &validation) {
				t.Errorf("Expected ValidationError, got %v", err)
			}
		})
	}
}

func TestProgressOverview(t *testing.T) {
	machine, _, _ := newTestMachine()
	ctx := context.Background()

	if _, err := machine.SubmitDiagnostic(ctx, "u1", 20, 25); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, stageID := range []string{"stage-1", "stage-2"} {
		if _, err := machine.SubmitStage(ctx, "u1", stageID, 12, 15); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	// A failed attempt must not count as completion.
	if _, err := machine.SubmitStage(ctx, "u1", "stage-3", 2, 15); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	overview, err := machine.Progress(ctx, "u1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if overview.CurrentStage != 4 {
		t.Errorf("Expected current stage 4 from placement, got %d", overview.CurrentStage)
	}
	if !overview.DiagnosticCompleted {
		t.Error("Expected diagnostic completed")
	}
	// The passed stage-0 audit attempt is excluded from the count.
	if overview.CompletedStageCount != 2 {
		t.Errorf("Expected 2 completed stages, got %d", overview.CompletedStageCount)
	}
}

func TestSubmitDiagnosticStageLookupFailure(t *testing.T) {
	progress := newFakeProgressStore()
	attempts := &fakeAttemptStore{}
	catalog := &fakeCatalog{stages: testStages(), byNumberErr: errors.New("connection reset")}
	machine := NewMachine(progress, attempts, catalog)

	_, err := machine.SubmitDiagnostic(context.Background(), "u1", 18, 25)
	if err == nil {
		t.Fatal("Expected error when the diagnostic stage lookup fails")
	}
	if !errors.Is(err, catalog.byNumberErr) {
		t.Errorf("Expected the store failure to surface, got %v", err)
	}
}

func TestProgressRepairsStaleCurrentStage(t *testing.T) {
	machine, progress, attempts := newTestMachine()
	ctx := context.Background()

	// A crash between the attempt insert and the stage advance leaves the
	// progress record behind the ledger.
	if err := progress.Create(ctx, &models.ProgressRecord{
		UserID:              "u1",
		CurrentStage:        1,
		DiagnosticCompleted: true,
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	attempts.attempts = append(attempts.attempts, models.AttemptRecord{
		UserID:         "u1",
		StageID:        "stage-3",
		StageNumber:    3,
		Score:          12,
		TotalQuestions: 15,
		Passed:         true,
		AttemptNumber:  1,
	})

	overview, err := machine.Progress(ctx, "u1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if overview.CurrentStage != 3 {
		t.Errorf("Expected current stage repaired to 3, got %d", overview.CurrentStage)
	}

	rec, _ := progress.ByUserID(ctx, "u1")
	if rec.CurrentStage != 3 {
		t.Errorf("Expected repaired stage persisted, got %d", rec.CurrentStage)
	}
}

func TestProgressUnknownUser(t *testing.T) {
	machine, _, _ := newTestMachine()

	_, err := machine.Progress(context.Background(), "ghost")
	var notFound *apperr.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestUnlockedPredicate(t *testing.T) {
	rec := &models.ProgressRecord{CurrentStage: 2}

	testCases := []struct {
		stageNumber int
		expected    bool
	}{
		{0, true},
		{1, true},
		{2, true},
		{3, false},
		{5, false},
	}
	for _, tc := range testCases {
		if got := Unlocked(tc.stageNumber, rec); got != tc.expected {
			t.Errorf("Unlocked(%d) = %v, expected %v", tc.stageNumber, got, tc.expected)
		}
	}

	if !Unlocked(0, nil) {
		t.Error("Diagnostic must be visible without a progress record")
	}
	if Unlocked(1, nil) {
		t.Error("Regular stages must be locked without a progress record")
	}
}
