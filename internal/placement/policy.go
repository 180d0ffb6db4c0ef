// Package placement maps a diagnostic assessment percentage to the stage
// a new learner starts from. Placement is a courtesy starting point only;
// it never marks any stage as completed.
package placement

// Band lower bounds are inclusive; exactly one band applies for any
// percentage in [0,100].
const (
	stageFourThreshold  = 75
	stageThreeThreshold = 50
	stageTwoThreshold   = 25
)

func StageFor(percentage float64) int {
	switch {
	case percentage >= stageFourThreshold:
		return 4
	case percentage >= stageThreeThreshold:
		return 3
	case percentage >= stageTwoThreshold:
		return 2
	default:
		return 1
	}
}
