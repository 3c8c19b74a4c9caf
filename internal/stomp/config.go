package stomp

import "fmt"

// Config holds the tunable parameters for a single optimization run.
// It is validated once at construction and treated as immutable afterwards.
type Config struct {
	// NumDimensions is the number of independently optimized channels (joints).
	NumDimensions int

	// NumTimesteps is the discretization length of the trajectory.
	NumTimesteps int

	// DeltaT is the time step between consecutive trajectory columns.
	DeltaT float64

	// NumRollouts is the number of noisy variants evaluated per iteration.
	NumRollouts int

	// NumRolloutsReused is how many of the best rollouts from the previous
	// iteration are carried forward instead of regenerated.
	NumRolloutsReused int

	// MaxIterations is the overall iteration budget.
	MaxIterations int

	// MaxIterationsAfterValid bounds how many further iterations run once a
	// valid solution has been found.
	MaxIterationsAfterValid int

	// ControlCostWeight blends trajectory-smoothness cost against task cost
	// when ranking rollouts. Must be in [0, 1].
	ControlCostWeight float64

	// InitialStdDev is the per-dimension noise magnitude seed.
	InitialStdDev []float64

	// DerivativeOrder selects the finite-difference operator used to build
	// the smoothing matrix: 1 = velocity, 2 = acceleration, 3 = jerk.
	DerivativeOrder int

	// NoiseDecay scales the exploration std-dev down each iteration.
	// Must be in (0, 1].
	NoiseDecay float64

	// MinNoiseScale is the floor the decayed std-dev scale never drops below.
	MinNoiseScale float64

	// CumulativeCosts indicates the evaluator reports running cost totals;
	// the engine differences them before weighting so downstream math always
	// operates on per-timestep marginal cost.
	CumulativeCosts bool

	// Seed drives the default noise generator for reproducible runs.
	Seed int64

	// Convergence enables the optional tolerance-based early stop.
	// Termination is purely budget-driven unless this is explicitly enabled.
	Convergence ConvergenceConfig
}

// DefaultConfig returns a Config with working defaults for the given
// problem size. Callers adjust budgets and weights as needed.
func DefaultConfig(dims, timesteps int) Config {
	stdDev := make([]float64, dims)
	for i := range stdDev {
		stdDev[i] = 1.0
	}
	return Config{
		NumDimensions:           dims,
		NumTimesteps:            timesteps,
		DeltaT:                  0.1,
		NumRollouts:             20,
		NumRolloutsReused:       5,
		MaxIterations:           100,
		MaxIterationsAfterValid: 10,
		ControlCostWeight:       0.0001,
		InitialStdDev:           stdDev,
		DerivativeOrder:         2,
		NoiseDecay:              0.95,
		MinNoiseScale:           0.1,
		Seed:                    42,
	}
}

// ConfigError reports a malformed parameter detected during validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Field + " " + e.Reason
}

// Validate checks the configuration, failing fast on invalid combinations.
func (c *Config) Validate() error {
	if c.NumDimensions < 1 {
		return &ConfigError{Field: "NumDimensions", Reason: "must be at least 1"}
	}
	if c.NumTimesteps < 2 {
		return &ConfigError{Field: "NumTimesteps", Reason: "must be at least 2"}
	}
	if c.DeltaT <= 0 {
		return &ConfigError{Field: "DeltaT", Reason: "must be positive"}
	}
	if c.NumRollouts < 1 {
		return &ConfigError{Field: "NumRollouts", Reason: "must be at least 1"}
	}
	if c.NumRolloutsReused < 0 {
		return &ConfigError{Field: "NumRolloutsReused", Reason: "cannot be negative"}
	}
	if c.NumRolloutsReused >= c.NumRollouts {
		return &ConfigError{Field: "NumRolloutsReused", Reason: "must be less than NumRollouts"}
	}
	if c.MaxIterations < 1 {
		return &ConfigError{Field: "MaxIterations", Reason: "must be at least 1"}
	}
	if c.MaxIterationsAfterValid < 0 {
		return &ConfigError{Field: "MaxIterationsAfterValid", Reason: "cannot be negative"}
	}
	if c.ControlCostWeight < 0 || c.ControlCostWeight > 1 {
		return &ConfigError{Field: "ControlCostWeight", Reason: "must be in [0, 1]"}
	}
	if len(c.InitialStdDev) != c.NumDimensions {
		return &ConfigError{
			Field:  "InitialStdDev",
			Reason: fmt.Sprintf("length %d does not match NumDimensions %d", len(c.InitialStdDev), c.NumDimensions),
		}
	}
	for i, sd := range c.InitialStdDev {
		if sd <= 0 {
			return &ConfigError{
				Field:  "InitialStdDev",
				Reason: fmt.Sprintf("entry %d must be positive", i),
			}
		}
	}
	if c.DerivativeOrder < 1 || c.DerivativeOrder > 3 {
		return &ConfigError{Field: "DerivativeOrder", Reason: "must be 1, 2 or 3"}
	}
	if c.NumTimesteps < c.DerivativeOrder+1 {
		return &ConfigError{
			Field:  "NumTimesteps",
			Reason: fmt.Sprintf("must be at least %d for derivative order %d", c.DerivativeOrder+1, c.DerivativeOrder),
		}
	}
	if c.NoiseDecay <= 0 || c.NoiseDecay > 1 {
		return &ConfigError{Field: "NoiseDecay", Reason: "must be in (0, 1]"}
	}
	if c.MinNoiseScale <= 0 || c.MinNoiseScale > 1 {
		return &ConfigError{Field: "MinNoiseScale", Reason: "must be in (0, 1]"}
	}
	if c.Convergence.Enabled {
		if c.Convergence.Patience < 1 {
			return &ConfigError{Field: "Convergence.Patience", Reason: "must be at least 1 when enabled"}
		}
		if c.Convergence.Threshold <= 0 {
			return &ConfigError{Field: "Convergence.Threshold", Reason: "must be positive when enabled"}
		}
	}
	return nil
}
