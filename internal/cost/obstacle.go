package cost

import (
	"fmt"

	"github.com/trajopt/stomp/internal/stomp"
)

// Zone is a keep-out interval on a single dimension.
type Zone struct {
	Dim      int
	Min, Max float64
}

// Obstacle penalizes trajectory states that enter keep-out zones. Any
// timestep inside a zone marks the rollout invalid; the penalty grows with
// penetration depth so the weighting still prefers rollouts that barely
// graze a zone over ones that cut through its middle.
type Obstacle struct {
	zones []Zone
}

// NewObstacle creates an evaluator for the given keep-out zones.
func NewObstacle(zones []Zone) (*Obstacle, error) {
	for i, z := range zones {
		if z.Min >= z.Max {
			return nil, fmt.Errorf("obstacle zone %d: min %g must be below max %g", i, z.Min, z.Max)
		}
		if z.Dim < 0 {
			return nil, fmt.Errorf("obstacle zone %d: dimension cannot be negative", i)
		}
	}
	return &Obstacle{zones: append([]Zone(nil), zones...)}, nil
}

// Evaluate implements stomp.CostEvaluator.
func (o *Obstacle) Evaluate(params *stomp.Trajectory, start, count, iteration, rollout int) ([]float64, bool, error) {
	for i, z := range o.zones {
		if z.Dim >= params.Dims {
			return nil, false, fmt.Errorf("obstacle zone %d references dimension %d, trajectory has %d", i, z.Dim, params.Dims)
		}
	}
	costs := make([]float64, count)
	valid := true
	for i := 0; i < count; i++ {
		t := start + i
		for _, z := range o.zones {
			v := params.At(z.Dim, t)
			if v <= z.Min || v >= z.Max {
				continue
			}
			depth := v - z.Min
			if other := z.Max - v; other < depth {
				depth = other
			}
			costs[i] += depth
			valid = false
		}
	}
	return costs, valid, nil
}
