package problem

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a problem definition file.
func Load(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem file %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse problem file %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a YAML problem definition and validates it.
func Parse(data []byte) (*Problem, error) {
	var p Problem
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Problem) validate() error {
	if p.Dimensions < 1 {
		return fmt.Errorf("dimensions must be at least 1")
	}
	if p.Timesteps < 2 {
		return fmt.Errorf("timesteps must be at least 2")
	}
	if len(p.Start) != p.Dimensions {
		return fmt.Errorf("start has %d values, expected %d", len(p.Start), p.Dimensions)
	}
	if len(p.Goal) != p.Dimensions {
		return fmt.Errorf("goal has %d values, expected %d", len(p.Goal), p.Dimensions)
	}
	if p.StdDev != nil && len(p.StdDev) != p.Dimensions {
		return fmt.Errorf("std_dev has %d values, expected %d", len(p.StdDev), p.Dimensions)
	}
	if p.Limits != nil {
		if len(p.Limits.Min) != p.Dimensions || len(p.Limits.Max) != p.Dimensions {
			return fmt.Errorf("limits min/max must each have %d values", p.Dimensions)
		}
	}
	if len(p.Costs) == 0 {
		return fmt.Errorf("at least one cost term must be defined")
	}
	for i, term := range p.Costs {
		switch term.Type {
		case "quadratic", "goal":
		case "obstacle":
			if len(term.Zones) == 0 {
				return fmt.Errorf("cost term %d: obstacle term needs at least one zone", i)
			}
		default:
			return fmt.Errorf("cost term %d: unknown type %q (must be quadratic, goal or obstacle)", i, term.Type)
		}
		if term.Weight < 0 {
			return fmt.Errorf("cost term %d: weight cannot be negative", i)
		}
	}
	if p.Convergence != nil {
		if p.Convergence.Patience < 1 {
			return fmt.Errorf("convergence patience must be at least 1")
		}
		if p.Convergence.Threshold <= 0 {
			return fmt.Errorf("convergence threshold must be positive")
		}
	}
	return nil
}
