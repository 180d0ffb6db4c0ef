package placement

import "testing"

func TestStageForBoundaries(t *testing.T) {
	testCases := []struct {
		name       string
		percentage float64
		expected   int
	}{
		{"zero", 0, 1},
		{"just below second band", 24.9, 1},
		{"second band lower bound", 25, 2},
		{"inside second band", 49.9, 2},
		{"third band lower bound", 50, 3},
		{"inside third band", 74.9, 3},
		{"top band lower bound", 75, 4},
		{"perfect score", 100, 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StageFor(tc.percentage); got != tc.expected {
				t.Errorf("StageFor(%v) = %d, expected %d", tc.percentage, got, tc.expected)
			}
		})
	}
}
