package stomp

import "fmt"

// CostEvaluator scores a trajectory timestep by timestep. Implementations
// receive the full trajectory plus the window [start, start+count) to
// score, and the iteration and rollout identifiers for evaluators that
// cache state across an iteration.
//
// The returned slice must have length count. The valid flag reports
// recoverable rollout invalidity; a non-nil error is a hard collaborator
// failure and aborts optimization immediately.
type CostEvaluator interface {
	Evaluate(params *Trajectory, start, count, iteration, rollout int) (costs []float64, valid bool, err error)
}

// NoiseGenerator produces one perturbation matrix per rollout per
// iteration, shaped like the trajectory. Implementations may use the
// Smoother's sampling helper or a domain-specific distribution.
type NoiseGenerator interface {
	Generate(stdDev []float64, iteration int) (*Trajectory, error)
}

// Filter post-processes a freshly generated noisy trajectory before it is
// scored, modifying params in place. It reports whether a modification
// occurred and whether the rollout remains recoverable; valid=false marks
// the rollout unrecoverable and excludes it from scoring.
type Filter interface {
	Apply(params *Trajectory, rollout int) (changed, valid bool, err error)
}

// UpdateFilter post-processes the updated trajectory before the next
// iteration, for example re-clamping to joint limits.
type UpdateFilter interface {
	ApplyUpdate(params *Trajectory) (changed, valid bool, err error)
}

// Task bundles the externally supplied strategies the optimizer depends
// on. Evaluator is required. Noise defaults to the smoother-backed
// Gaussian generator when nil. Filters run in registration order, each
// seeing the previous filter's output.
type Task struct {
	Evaluator     CostEvaluator
	Noise         NoiseGenerator
	Filters       []Filter
	UpdateFilters []UpdateFilter
}

// WeightedEvaluator pairs a CostEvaluator with its blend weight.
type WeightedEvaluator struct {
	Evaluator CostEvaluator
	Weight    float64
}

// EvaluatorSum combines several evaluators by weighted summation of their
// cost vectors and logical AND of their validity flags.
type EvaluatorSum struct {
	terms []WeightedEvaluator
}

// NewEvaluatorSum creates a combined evaluator. At least one term is
// required and every weight must be non-negative.
func NewEvaluatorSum(terms ...WeightedEvaluator) (*EvaluatorSum, error) {
	if len(terms) == 0 {
		return nil, fmt.Errorf("evaluator sum needs at least one term")
	}
	for i, term := range terms {
		if term.Evaluator == nil {
			return nil, fmt.Errorf("evaluator sum term %d is nil", i)
		}
		if term.Weight < 0 {
			return nil, fmt.Errorf("evaluator sum term %d has negative weight %g", i, term.Weight)
		}
	}
	return &EvaluatorSum{terms: terms}, nil
}

// Evaluate implements CostEvaluator.
func (s *EvaluatorSum) Evaluate(params *Trajectory, start, count, iteration, rollout int) ([]float64, bool, error) {
	total := make([]float64, count)
	valid := true
	for i, term := range s.terms {
		costs, ok, err := term.Evaluator.Evaluate(params, start, count, iteration, rollout)
		if err != nil {
			return nil, false, fmt.Errorf("evaluator %d: %w", i, err)
		}
		if len(costs) != count {
			return nil, false, fmt.Errorf("evaluator %d returned %d costs, expected %d", i, len(costs), count)
		}
		for t := range total {
			total[t] += term.Weight * costs[t]
		}
		valid = valid && ok
	}
	return total, valid, nil
}
