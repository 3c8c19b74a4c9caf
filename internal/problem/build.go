package problem

import (
	"fmt"

	"github.com/trajopt/stomp/internal/cost"
	"github.com/trajopt/stomp/internal/limits"
	"github.com/trajopt/stomp/internal/stomp"
)

// Config assembles the optimizer configuration, starting from defaults and
// overriding with whatever the problem file sets.
func (p *Problem) Config() stomp.Config {
	cfg := stomp.DefaultConfig(p.Dimensions, p.Timesteps)
	if p.DeltaT > 0 {
		cfg.DeltaT = p.DeltaT
	}
	if p.StdDev != nil {
		cfg.InitialStdDev = append([]float64(nil), p.StdDev...)
	}
	if p.Rollouts > 0 {
		cfg.NumRollouts = p.Rollouts
	}
	if p.RolloutsReused != nil {
		cfg.NumRolloutsReused = *p.RolloutsReused
	} else if cfg.NumRolloutsReused >= cfg.NumRollouts {
		cfg.NumRolloutsReused = cfg.NumRollouts - 1
	}
	if p.MaxIterations > 0 {
		cfg.MaxIterations = p.MaxIterations
	}
	if p.MaxIterationsAfterValid != nil {
		cfg.MaxIterationsAfterValid = *p.MaxIterationsAfterValid
	}
	if p.ControlCostWeight != nil {
		cfg.ControlCostWeight = *p.ControlCostWeight
	}
	if p.DerivativeOrder > 0 {
		cfg.DerivativeOrder = p.DerivativeOrder
	}
	if p.NoiseDecay > 0 {
		cfg.NoiseDecay = p.NoiseDecay
	}
	if p.MinNoiseScale > 0 {
		cfg.MinNoiseScale = p.MinNoiseScale
	}
	if p.Seed != nil {
		cfg.Seed = *p.Seed
	}
	cfg.CumulativeCosts = p.CumulativeCosts
	if p.Convergence != nil {
		cfg.Convergence = stomp.ConvergenceConfig{
			Enabled:   true,
			Patience:  p.Convergence.Patience,
			Threshold: p.Convergence.Threshold,
		}
	}
	return cfg
}

// InitialTrajectory returns the linear interpolation from start to goal.
func (p *Problem) InitialTrajectory() (*stomp.Trajectory, error) {
	return stomp.Interpolate(p.Start, p.Goal, p.Timesteps)
}

// Task builds the combined cost evaluator and the limit filters.
func (p *Problem) Task() (stomp.Task, error) {
	var task stomp.Task

	terms := make([]stomp.WeightedEvaluator, 0, len(p.Costs))
	for i, term := range p.Costs {
		weight := term.Weight
		if weight == 0 {
			weight = 1.0
		}
		ev, err := p.buildEvaluator(term)
		if err != nil {
			return task, fmt.Errorf("cost term %d: %w", i, err)
		}
		terms = append(terms, stomp.WeightedEvaluator{Evaluator: ev, Weight: weight})
	}
	sum, err := stomp.NewEvaluatorSum(terms...)
	if err != nil {
		return task, err
	}
	task.Evaluator = sum

	if p.Limits != nil {
		clamp, err := limits.New(p.Limits.Min, p.Limits.Max)
		if err != nil {
			return task, err
		}
		task.Filters = []stomp.Filter{clamp}
		task.UpdateFilters = []stomp.UpdateFilter{clamp}
	}
	return task, nil
}

func (p *Problem) buildEvaluator(term CostTerm) (stomp.CostEvaluator, error) {
	switch term.Type {
	case "quadratic":
		target := term.Target
		if target == nil {
			target = p.Goal
		}
		return cost.NewQuadratic(target)
	case "goal":
		return cost.NewGoalDeviation(p.Goal, term.DimensionWeights, term.Tolerance)
	case "obstacle":
		zones := make([]cost.Zone, len(term.Zones))
		for i, z := range term.Zones {
			zones[i] = cost.Zone{Dim: z.Dim, Min: z.Min, Max: z.Max}
		}
		return cost.NewObstacle(zones)
	default:
		return nil, fmt.Errorf("unknown cost type %q", term.Type)
	}
}

// Build is the one-call assembly used by the CLI and the job server.
func (p *Problem) Build() (stomp.Config, *stomp.Trajectory, stomp.Task, error) {
	cfg := p.Config()
	initial, err := p.InitialTrajectory()
	if err != nil {
		return cfg, nil, stomp.Task{}, err
	}
	task, err := p.Task()
	if err != nil {
		return cfg, nil, stomp.Task{}, err
	}
	return cfg, initial, task, nil
}
