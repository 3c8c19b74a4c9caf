package stomp

import "sort"

// Rollout is one noisy variant of the current trajectory, generated and
// scored within a single iteration. Rollouts are transient: recreated each
// iteration and never mutated after scoring except to attach weights.
type Rollout struct {
	// Noise is the perturbation applied to the base trajectory.
	Noise *Trajectory

	// Params is base + noise after pre-cost filtering.
	Params *Trajectory

	// Costs holds the per-timestep task cost reported by the evaluator.
	Costs []float64

	// Weights holds the per-timestep probability weight assigned during the
	// update step, normalized across valid rollouts.
	Weights []float64

	// Valid reports whether the evaluator (and every filter) accepted the
	// rollout. Invalid rollouts are excluded from weighting but still count
	// toward the rollout budget.
	Valid bool

	// TotalCost is the summed task cost plus weighted control cost, used to
	// rank rollouts for reuse.
	TotalCost float64
}

func newRollout(dims, steps int) *Rollout {
	return &Rollout{
		Noise:   NewTrajectory(dims, steps),
		Params:  NewTrajectory(dims, steps),
		Costs:   make([]float64, steps),
		Weights: make([]float64, steps),
	}
}

// bestRollouts returns up to n valid rollouts ordered by ascending total
// cost. The returned slice shares the rollout records with the input.
func bestRollouts(rollouts []*Rollout, n int) []*Rollout {
	if n <= 0 {
		return nil
	}
	valid := make([]*Rollout, 0, len(rollouts))
	for _, r := range rollouts {
		if r.Valid {
			valid = append(valid, r)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].TotalCost < valid[j].TotalCost
	})
	if len(valid) > n {
		valid = valid[:n]
	}
	return valid
}
