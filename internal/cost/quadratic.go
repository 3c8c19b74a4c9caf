// Package cost provides deterministic cost evaluators implementing the
// optimizer's evaluator contract. They are intentionally free of any
// robotics geometry: richer domain evaluators plug in behind the same
// contract.
package cost

import (
	"fmt"

	"github.com/trajopt/stomp/internal/stomp"
)

// Quadratic scores each timestep with the squared distance to a fixed
// per-dimension target. It is always valid, which makes it the reference
// evaluator for exercising the optimizer core.
type Quadratic struct {
	target []float64
}

// NewQuadratic creates a quadratic evaluator pulling toward target.
func NewQuadratic(target []float64) (*Quadratic, error) {
	if len(target) == 0 {
		return nil, fmt.Errorf("quadratic cost needs at least one target dimension")
	}
	return &Quadratic{target: append([]float64(nil), target...)}, nil
}

// Evaluate implements stomp.CostEvaluator.
func (q *Quadratic) Evaluate(params *stomp.Trajectory, start, count, iteration, rollout int) ([]float64, bool, error) {
	if params.Dims != len(q.target) {
		return nil, false, fmt.Errorf("trajectory has %d dimensions, quadratic target has %d", params.Dims, len(q.target))
	}
	costs := make([]float64, count)
	for i := 0; i < count; i++ {
		t := start + i
		sum := 0.0
		for d := range q.target {
			diff := params.At(d, t) - q.target[d]
			sum += diff * diff
		}
		costs[i] = sum
	}
	return costs, true, nil
}
