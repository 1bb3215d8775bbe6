package engine

import "math"

// CohortSize is the number of students in the grade.
const CohortSize = 633

const (
	rankCenter = 0.68
	rankScale  = 0.15
	rankSlope  = 1.702
)

// ComputeRank maps a total onto a grade rank with a logistic curve centred
// at 68% of the maximum. A full score is always rank 1.
func ComputeRank(total, max float64, cohort int) int {
	if max <= 0 {
		return cohort
	}
	if total >= max {
		return 1
	}
	ratio := total / max
	percentile := 1 / (1 + math.Exp(-rankSlope*(ratio-rankCenter)/rankScale))
	rank := int(math.Floor(float64(cohort)*(1-percentile))) + 1
	if rank < 1 {
		return 1
	}
	return rank
}
