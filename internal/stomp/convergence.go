package stomp

import (
	"log/slog"
	"math"
)

// ConvergenceConfig controls the optional tolerance-based early stop.
// The optimizer is budget-driven by default; enabling this trades faithful
// fixed-budget behavior for earlier termination on stalled runs.
type ConvergenceConfig struct {
	// Enabled activates early stopping. Off by default.
	Enabled bool

	// Patience is the number of iterations with no significant improvement
	// of the best cost before stopping.
	Patience int

	// Threshold is the minimum relative improvement required to count as
	// progress, e.g. 0.001 = 0.1%.
	Threshold float64
}

// convergenceTracker watches the best-cost sequence and detects stalls.
type convergenceTracker struct {
	config          ConvergenceConfig
	lastSignificant float64
	staleCount      int
	seen            bool
}

func newConvergenceTracker(config ConvergenceConfig) *convergenceTracker {
	return &convergenceTracker{
		config:          config,
		lastSignificant: math.Inf(1),
	}
}

// update records the best cost after an iteration and returns true when
// the configured patience is exhausted without significant improvement.
func (c *convergenceTracker) update(cost float64) bool {
	if !c.config.Enabled {
		return false
	}

	if !c.seen {
		c.seen = true
		c.lastSignificant = cost
		return false
	}

	relative := (c.lastSignificant - cost) / math.Abs(c.lastSignificant)
	if relative >= c.config.Threshold {
		c.lastSignificant = cost
		c.staleCount = 0
		return false
	}

	c.staleCount++
	if c.staleCount >= c.config.Patience {
		slog.Info("Early stop on stalled best cost",
			"stale_count", c.staleCount,
			"patience", c.config.Patience,
			"best_cost", cost,
		)
		return true
	}
	return false
}
