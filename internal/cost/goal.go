package cost

import (
	"fmt"
	"math"

	"github.com/trajopt/stomp/internal/stomp"
)

const (
	// DefaultGoalTolerance is the per-dimension deviation below which the
	// terminal state is considered on target.
	DefaultGoalTolerance = 0.001

	// maxErrorRatio caps the per-dimension error at a multiple of its
	// tolerance so a wildly wrong rollout does not dominate the weighting.
	maxErrorRatio = 10.0
)

// GoalDeviation penalizes deviation of the trajectory's terminal state
// from a goal state. Cost is concentrated entirely at the final timestep;
// the rollout is valid only when every dimension ends within tolerance.
type GoalDeviation struct {
	goal      []float64
	weights   []float64
	tolerance []float64
}

// NewGoalDeviation creates a terminal-state evaluator. Weights and
// tolerances may be nil, defaulting to 1.0 and DefaultGoalTolerance
// per dimension.
func NewGoalDeviation(goal, weights, tolerance []float64) (*GoalDeviation, error) {
	if len(goal) == 0 {
		return nil, fmt.Errorf("goal deviation cost needs at least one goal dimension")
	}
	if weights == nil {
		weights = make([]float64, len(goal))
		for d := range weights {
			weights[d] = 1.0
		}
	}
	if tolerance == nil {
		tolerance = make([]float64, len(goal))
		for d := range tolerance {
			tolerance[d] = DefaultGoalTolerance
		}
	}
	if len(weights) != len(goal) || len(tolerance) != len(goal) {
		return nil, fmt.Errorf("goal deviation: goal, weights and tolerance lengths must match (%d, %d, %d)",
			len(goal), len(weights), len(tolerance))
	}
	for d, tol := range tolerance {
		if tol <= 0 {
			return nil, fmt.Errorf("goal deviation: tolerance %d must be positive", d)
		}
	}
	return &GoalDeviation{
		goal:      append([]float64(nil), goal...),
		weights:   append([]float64(nil), weights...),
		tolerance: append([]float64(nil), tolerance...),
	}, nil
}

// Evaluate implements stomp.CostEvaluator.
func (g *GoalDeviation) Evaluate(params *stomp.Trajectory, start, count, iteration, rollout int) ([]float64, bool, error) {
	if params.Dims != len(g.goal) {
		return nil, false, fmt.Errorf("trajectory has %d dimensions, goal has %d", params.Dims, len(g.goal))
	}
	costs := make([]float64, count)

	last := params.Steps - 1
	if last < start || last >= start+count {
		// Scored window does not include the terminal state.
		return costs, true, nil
	}

	valid := true
	total := 0.0
	for d := range g.goal {
		err := math.Abs(params.At(d, last) - g.goal[d])
		if err > g.tolerance[d] {
			valid = false
		}
		ratio := err / g.tolerance[d]
		if ratio > maxErrorRatio {
			ratio = maxErrorRatio
		}
		total += g.weights[d] * ratio
	}
	costs[last-start] = total
	return costs, valid, nil
}
