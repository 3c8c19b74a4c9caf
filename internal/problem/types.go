// Package problem loads YAML problem definitions and assembles the
// optimizer configuration, initial trajectory and task surface from them.
package problem

// Problem is the on-disk description of one optimization problem.
// Zero-valued tuning fields fall back to the optimizer defaults.
type Problem struct {
	Name       string    `yaml:"name"`
	Dimensions int       `yaml:"dimensions"`
	Timesteps  int       `yaml:"timesteps"`
	DeltaT     float64   `yaml:"delta_t"`
	Start      []float64 `yaml:"start"`
	Goal       []float64 `yaml:"goal"`
	StdDev     []float64 `yaml:"std_dev"`

	Rollouts                int      `yaml:"rollouts"`
	RolloutsReused          *int     `yaml:"rollouts_reused"`
	MaxIterations           int      `yaml:"max_iterations"`
	MaxIterationsAfterValid *int     `yaml:"max_iterations_after_valid"`
	ControlCostWeight       *float64 `yaml:"control_cost_weight"`
	DerivativeOrder         int      `yaml:"derivative_order"`
	NoiseDecay              float64  `yaml:"noise_decay"`
	MinNoiseScale           float64  `yaml:"min_noise_scale"`
	Seed                    *int64   `yaml:"seed"`
	CumulativeCosts         bool     `yaml:"cumulative_costs"`

	Limits *LimitsSpec `yaml:"limits"`
	Costs  []CostTerm  `yaml:"costs"`

	Convergence *ConvergenceSpec `yaml:"convergence"`
}

// LimitsSpec holds per-dimension bounds enforced before scoring and after
// each update.
type LimitsSpec struct {
	Min []float64 `yaml:"min"`
	Max []float64 `yaml:"max"`
}

// CostTerm is one weighted entry of the combined cost evaluator.
type CostTerm struct {
	// Type selects the evaluator: quadratic, goal or obstacle.
	Type   string  `yaml:"type"`
	Weight float64 `yaml:"weight"`

	// Target is used by quadratic terms; defaults to the goal state.
	Target []float64 `yaml:"target"`

	// DimensionWeights and Tolerance are used by goal terms.
	DimensionWeights []float64 `yaml:"dimension_weights"`
	Tolerance        []float64 `yaml:"tolerance"`

	// Zones are used by obstacle terms.
	Zones []ZoneSpec `yaml:"zones"`
}

// ZoneSpec is a keep-out interval on one dimension.
type ZoneSpec struct {
	Dim int     `yaml:"dim"`
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// ConvergenceSpec opts in to tolerance-based early stopping.
type ConvergenceSpec struct {
	Patience  int     `yaml:"patience"`
	Threshold float64 `yaml:"threshold"`
}
