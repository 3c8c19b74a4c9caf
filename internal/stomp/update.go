package stomp

import "math"

// costSensitivity is the fixed exponent h in the path-integral weighting
// exp(-h * (cost - min) / (max - min)).
const costSensitivity = 10.0

// weightTolerance is the cost spread below which a timestep is treated as
// degenerate (all rollouts tie) and weights fall back to uniform.
const weightTolerance = 1e-10

// computeWeights assigns, for each timestep independently, a probability
// weight to every valid rollout. Costs are min/max-normalized before
// exponentiation so the transform never overflows regardless of absolute
// cost magnitude, and the weights at each timestep sum to 1.
//
// Invalid rollouts keep zero weights.
func computeWeights(rollouts []*Rollout, steps int) {
	for _, r := range rollouts {
		for t := range r.Weights {
			r.Weights[t] = 0
		}
	}

	for t := 0; t < steps; t++ {
		minCost := math.Inf(1)
		maxCost := math.Inf(-1)
		n := 0
		for _, r := range rollouts {
			if !r.Valid {
				continue
			}
			c := r.Costs[t]
			if c < minCost {
				minCost = c
			}
			if c > maxCost {
				maxCost = c
			}
			n++
		}
		if n == 0 {
			continue
		}

		spread := maxCost - minCost
		sum := 0.0
		for _, r := range rollouts {
			if !r.Valid {
				continue
			}
			var w float64
			if spread < weightTolerance {
				w = 1.0
			} else {
				w = math.Exp(-costSensitivity * (r.Costs[t] - minCost) / spread)
			}
			r.Weights[t] = w
			sum += w
		}
		for _, r := range rollouts {
			if r.Valid {
				r.Weights[t] /= sum
			}
		}
	}
}

// weightedDelta computes the raw parameter update: at each timestep the
// probability-weighted average of rollout noise. The caller projects the
// result through the smoother before applying it.
func weightedDelta(rollouts []*Rollout, dims, steps int) *Trajectory {
	delta := NewTrajectory(dims, steps)
	for _, r := range rollouts {
		if !r.Valid {
			continue
		}
		for d := 0; d < dims; d++ {
			noise := r.Noise.Row(d)
			out := delta.Row(d)
			for t := 0; t < steps; t++ {
				out[t] += r.Weights[t] * noise[t]
			}
		}
	}
	return delta
}

// differenceCosts converts a cumulative cost vector into per-timestep
// marginal cost in place.
func differenceCosts(costs []float64) {
	for t := len(costs) - 1; t > 0; t-- {
		costs[t] -= costs[t-1]
	}
}
