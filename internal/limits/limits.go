// Package limits provides per-dimension bound clamping usable both as a
// pre-cost rollout filter and as a post-update trajectory filter.
package limits

import (
	"fmt"

	"github.com/trajopt/stomp/internal/stomp"
)

// Limits clamps interior trajectory values into [Min, Max] per dimension.
// A boundary column (fixed start or goal state) that itself violates the
// limits cannot be repaired by clamping, so the rollout is reported
// unrecoverable instead.
type Limits struct {
	min []float64
	max []float64
}

// New creates a clamp filter for the given per-dimension bounds.
func New(min, max []float64) (*Limits, error) {
	if len(min) == 0 || len(min) != len(max) {
		return nil, fmt.Errorf("limits: min and max must be non-empty and equal length (%d, %d)", len(min), len(max))
	}
	for d := range min {
		if min[d] >= max[d] {
			return nil, fmt.Errorf("limits: dimension %d has min %g >= max %g", d, min[d], max[d])
		}
	}
	return &Limits{
		min: append([]float64(nil), min...),
		max: append([]float64(nil), max...),
	}, nil
}

// Apply implements stomp.Filter.
func (l *Limits) Apply(params *stomp.Trajectory, rollout int) (bool, bool, error) {
	return l.clamp(params)
}

// ApplyUpdate implements stomp.UpdateFilter.
func (l *Limits) ApplyUpdate(params *stomp.Trajectory) (bool, bool, error) {
	return l.clamp(params)
}

func (l *Limits) clamp(params *stomp.Trajectory) (bool, bool, error) {
	if params.Dims != len(l.min) {
		return false, false, fmt.Errorf("limits: trajectory has %d dimensions, bounds have %d", params.Dims, len(l.min))
	}
	changed := false
	last := params.Steps - 1
	for d := 0; d < params.Dims; d++ {
		row := params.Row(d)
		if row[0] < l.min[d] || row[0] > l.max[d] || row[last] < l.min[d] || row[last] > l.max[d] {
			return changed, false, nil
		}
		for t := 1; t < last; t++ {
			if row[t] < l.min[d] {
				row[t] = l.min[d]
				changed = true
			} else if row[t] > l.max[d] {
				row[t] = l.max[d]
				changed = true
			}
		}
	}
	return changed, true, nil
}
