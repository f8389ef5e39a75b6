// Package scoring classifies absence intervals and decides whether a
// session's pooled absence stayed within budget.
package scoring

// Category is the severity tier of a single absence.
type Category string

const (
	Minor        Category = "minor"
	Medium       Category = "medium"
	Large        Category = "large"
	Catastrophic Category = "catastrophic"
)

// Tier lower bounds in seconds, inclusive.
const (
	MediumThreshold       = 30
	LargeThreshold        = 120
	CatastrophicThreshold = 300

	// PooledBudgetSeconds is the absence allowance shared by every
	// participant of a session.
	PooledBudgetSeconds = 300
)

// Classify maps an absence length to its tier. Negative input is treated as
// zero.
func Classify(durationSeconds int) Category {
	switch {
	case durationSeconds >= CatastrophicThreshold:
		return Catastrophic
	case durationSeconds >= LargeThreshold:
		return Large
	case durationSeconds >= MediumThreshold:
		return Medium
	default:
		return Minor
	}
}

// Rank orders categories from least (0) to most (3) severe.
func (c Category) Rank() int {
	switch c {
	case Medium:
		return 1
	case Large:
		return 2
	case Catastrophic:
		return 3
	default:
		return 0
	}
}

// IsSuccessful reports whether the pooled absence across all participants is
// strictly under the budget and no single absence is catastrophic.
func IsSuccessful(durations []int) bool {
	total := 0
	for _, d := range durations {
		if Classify(d) == Catastrophic {
			return false
		}
		if d > 0 {
			total += d
		}
	}
	return total < PooledBudgetSeconds
}
