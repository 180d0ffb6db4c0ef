package service

import (
	"context"
	"testing"
)

type fakeCounter struct {
	n int64
}

func (f *fakeCounter) Count(ctx context.Context) (int64, error) { return f.n, nil }

type fakeProgressCounter struct {
	total, diagnosed int64
}

func (f *fakeProgressCounter) Count(ctx context.Context) (int64, error) { return f.total, nil }

func (f *fakeProgressCounter) CountDiagnosticCompleted(ctx context.Context) (int64, error) {
	return f.diagnosed, nil
}

type fakeCompletionCounter struct {
	passed int64
	counts map[int]int
}

func (f *fakeCompletionCounter) CountPassed(ctx context.Context) (int64, error) {
	return f.passed, nil
}

func (f *fakeCompletionCounter) StageCompletionCounts(ctx context.Context) (map[int]int, error) {
	return f.counts, nil
}

func TestStatisticsAssembly(t *testing.T) {
	svc := NewStatsService(
		&fakeCounter{n: 40},
		&fakeStages{stages: ladder()},
		&fakeCounter{n: 120},
		&fakeProgressCounter{total: 35, diagnosed: 30},
		&fakeCompletionCounter{passed: 52, counts: map[int]int{1: 25, 2: 18, 3: 9}},
	)

	stats, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	if stats.TotalUsers != 40 || stats.TotalQuestions != 120 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.TotalStages != 6 {
		t.Errorf("total stages = %d, want 6", stats.TotalStages)
	}
	if stats.StudentsStarted != 35 || stats.CompletedDiagnostic != 30 {
		t.Errorf("unexpected progress counts: %+v", stats)
	}
	if stats.TotalStageCompletions != 52 {
		t.Errorf("stage completions = %d, want 52", stats.TotalStageCompletions)
	}

	// The diagnostic is excluded from the per-stage breakdown.
	if len(stats.StageCompletions) != 5 {
		t.Fatalf("expected 5 per-stage rows, got %d", len(stats.StageCompletions))
	}
	want := map[int]int{1: 25, 2: 18, 3: 9, 4: 0, 5: 0}
	for _, row := range stats.StageCompletions {
		if row.StageNumber == 0 {
			t.Error("diagnostic appeared in breakdown")
		}
		if row.StudentsCompleted != want[row.StageNumber] {
			t.Errorf("stage %d completed = %d, want %d", row.StageNumber, row.StudentsCompleted, want[row.StageNumber])
		}
		if row.Name == "" {
			t.Errorf("stage %d missing name", row.StageNumber)
		}
	}
}
