package problem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validProblem = `
name: corridor
dimensions: 2
timesteps: 20
delta_t: 0.05
start: [0.0, 0.0]
goal: [1.0, 1.0]
std_dev: [0.5, 0.5]
rollouts: 10
rollouts_reused: 3
max_iterations: 40
max_iterations_after_valid: 5
control_cost_weight: 0.001
derivative_order: 2
noise_decay: 0.9
min_noise_scale: 0.2
seed: 7
limits:
  min: [-2.0, -2.0]
  max: [2.0, 2.0]
costs:
  - type: quadratic
    weight: 1.0
  - type: goal
    weight: 2.0
  - type: obstacle
    zones:
      - dim: 0
        min: 0.4
        max: 0.6
convergence:
  patience: 10
  threshold: 0.001
`

func TestParseValidProblem(t *testing.T) {
	p, err := Parse([]byte(validProblem))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if p.Name != "corridor" {
		t.Errorf("Expected name corridor, got %q", p.Name)
	}
	if p.Dimensions != 2 || p.Timesteps != 20 {
		t.Errorf("Expected 2x20 problem, got %dx%d", p.Dimensions, p.Timesteps)
	}
	if len(p.Costs) != 3 {
		t.Fatalf("Expected 3 cost terms, got %d", len(p.Costs))
	}
	if p.Limits == nil || p.Limits.Min[0] != -2.0 {
		t.Error("Limits not parsed")
	}
	if p.Convergence == nil || p.Convergence.Patience != 10 {
		t.Error("Convergence not parsed")
	}
	if p.Seed == nil || *p.Seed != 7 {
		t.Error("Seed not parsed")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"invalid yaml", "dimensions: [", "invalid YAML"},
		{"missing dimensions", "timesteps: 10\nstart: []\ngoal: []\ncosts: [{type: quadratic}]", "dimensions"},
		{"one timestep", "dimensions: 1\ntimesteps: 1\nstart: [0]\ngoal: [1]\ncosts: [{type: quadratic}]", "timesteps"},
		{"start length", "dimensions: 2\ntimesteps: 10\nstart: [0]\ngoal: [1, 1]\ncosts: [{type: quadratic}]", "start"},
		{"goal length", "dimensions: 2\ntimesteps: 10\nstart: [0, 0]\ngoal: [1]\ncosts: [{type: quadratic}]", "goal"},
		{"std dev length", "dimensions: 1\ntimesteps: 10\nstart: [0]\ngoal: [1]\nstd_dev: [1, 1]\ncosts: [{type: quadratic}]", "std_dev"},
		{"limits length", "dimensions: 2\ntimesteps: 10\nstart: [0, 0]\ngoal: [1, 1]\nlimits: {min: [0], max: [1]}\ncosts: [{type: quadratic}]", "limits"},
		{"no costs", "dimensions: 1\ntimesteps: 10\nstart: [0]\ngoal: [1]", "cost term"},
		{"unknown cost type", "dimensions: 1\ntimesteps: 10\nstart: [0]\ngoal: [1]\ncosts: [{type: banana}]", "unknown type"},
		{"obstacle without zones", "dimensions: 1\ntimesteps: 10\nstart: [0]\ngoal: [1]\ncosts: [{type: obstacle}]", "zone"},
		{"negative weight", "dimensions: 1\ntimesteps: 10\nstart: [0]\ngoal: [1]\ncosts: [{type: quadratic, weight: -1}]", "weight"},
		{"bad convergence", "dimensions: 1\ntimesteps: 10\nstart: [0]\ngoal: [1]\ncosts: [{type: quadratic}]\nconvergence: {patience: 0, threshold: 0.1}", "patience"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected parse to fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.yaml")
	if err := os.WriteFile(path, []byte(validProblem), 0644); err != nil {
		t.Fatalf("Failed to write problem file: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Name != "corridor" {
		t.Errorf("Expected name corridor, got %q", p.Name)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestConfigOverrides(t *testing.T) {
	p, err := Parse([]byte(validProblem))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg := p.Config()
	if cfg.NumRollouts != 10 || cfg.NumRolloutsReused != 3 {
		t.Errorf("Rollout overrides not applied: %d, %d", cfg.NumRollouts, cfg.NumRolloutsReused)
	}
	if cfg.MaxIterations != 40 || cfg.MaxIterationsAfterValid != 5 {
		t.Errorf("Budget overrides not applied: %d, %d", cfg.MaxIterations, cfg.MaxIterationsAfterValid)
	}
	if cfg.DeltaT != 0.05 || cfg.NoiseDecay != 0.9 || cfg.MinNoiseScale != 0.2 {
		t.Error("Tuning overrides not applied")
	}
	if cfg.ControlCostWeight != 0.001 {
		t.Errorf("Expected control cost weight 0.001, got %g", cfg.ControlCostWeight)
	}
	if cfg.Seed != 7 {
		t.Errorf("Expected seed 7, got %d", cfg.Seed)
	}
	if !cfg.Convergence.Enabled || cfg.Convergence.Patience != 10 {
		t.Error("Convergence not enabled from the problem file")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Built configuration should validate: %v", err)
	}
}

func TestConfigDefaultsClampReuse(t *testing.T) {
	p, err := Parse([]byte(`
dimensions: 1
timesteps: 10
start: [0]
goal: [1]
rollouts: 4
costs:
  - type: quadratic
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg := p.Config()
	if cfg.NumRolloutsReused >= cfg.NumRollouts {
		t.Errorf("Default reuse count %d must stay below rollout count %d",
			cfg.NumRolloutsReused, cfg.NumRollouts)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Built configuration should validate: %v", err)
	}
}

func TestBuild(t *testing.T) {
	p, err := Parse([]byte(validProblem))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg, initial, task, err := p.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if initial.Dims != cfg.NumDimensions || initial.Steps != cfg.NumTimesteps {
		t.Errorf("Initial trajectory is %dx%d, config wants %dx%d",
			initial.Dims, initial.Steps, cfg.NumDimensions, cfg.NumTimesteps)
	}
	if initial.At(0, 0) != 0 || initial.At(0, cfg.NumTimesteps-1) != 1 {
		t.Error("Initial trajectory must interpolate start to goal")
	}
	if task.Evaluator == nil {
		t.Fatal("Build must produce a combined evaluator")
	}
	if len(task.Filters) != 1 || len(task.UpdateFilters) != 1 {
		t.Error("Limits must be wired as both pre-cost and post-update filters")
	}

	costs, _, err := task.Evaluator.Evaluate(initial, 0, cfg.NumTimesteps, 0, 0)
	if err != nil {
		t.Fatalf("Combined evaluator failed: %v", err)
	}
	if len(costs) != cfg.NumTimesteps {
		t.Errorf("Expected %d costs, got %d", cfg.NumTimesteps, len(costs))
	}
}

func TestBuildWithoutLimits(t *testing.T) {
	p, err := Parse([]byte(`
dimensions: 1
timesteps: 10
start: [0]
goal: [1]
costs:
  - type: quadratic
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	_, _, task, err := p.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(task.Filters) != 0 || len(task.UpdateFilters) != 0 {
		t.Error("No limits configured, no filters expected")
	}
}
