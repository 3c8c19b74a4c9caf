package stomp

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Finite-difference stencils indexed by derivative order.
var stencils = map[int][]float64{
	1: {-1, 1},
	2: {1, -2, 1},
	3: {-1, 3, -3, 1},
}

// Smoother derives the fixed positive-definite control-cost matrix
// R = A'A from a finite-difference operator A, and exposes the two
// operations the engine needs: projecting raw parameter updates onto
// smooth trajectories and drawing temporally correlated noise.
//
// All matrices are computed once per configuration and read-only after
// construction, so a Smoother is safe for concurrent use.
type Smoother struct {
	steps int
	order int

	r    *mat.SymDense // control-cost matrix R
	rInv *mat.SymDense // R^-1, covariance basis for noise
	proj *mat.Dense    // R^-1 with columns scaled to max 1/steps
	lCov *mat.TriDense // Cholesky factor of the normalized covariance
}

// NewSmoother builds the smoothing operator for the given trajectory
// length, derivative order and time step. Construction fails if the
// finite-difference matrix is singular for the requested size; that is a
// configuration error, not a runtime fault.
func NewSmoother(steps, order int, dt float64) (*Smoother, error) {
	stencil, ok := stencils[order]
	if !ok {
		return nil, &ConfigError{Field: "DerivativeOrder", Reason: "must be 1, 2 or 3"}
	}
	if steps < order+1 {
		return nil, &ConfigError{
			Field:  "NumTimesteps",
			Reason: fmt.Sprintf("must be at least %d for derivative order %d", order+1, order),
		}
	}
	if dt <= 0 {
		return nil, &ConfigError{Field: "DeltaT", Reason: "must be positive"}
	}

	// Sliding zero-padded stencil: the difference operator is applied at
	// every offset, treating values outside the trajectory as zero. This
	// keeps A at full column rank so R is positive-definite.
	rows := steps + order
	a := mat.NewDense(rows, steps, nil)
	scale := 1.0 / math.Pow(dt, float64(order))
	for i := 0; i < rows; i++ {
		for j := 0; j < steps; j++ {
			k := i - j
			if k >= 0 && k < len(stencil) {
				a.Set(i, j, stencil[k]*scale)
			}
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)

	r := mat.NewSymDense(steps, nil)
	for i := 0; i < steps; i++ {
		for j := i; j < steps; j++ {
			r.SetSym(i, j, ata.At(i, j))
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(r); !ok {
		return nil, &ConfigError{
			Field:  "NumTimesteps",
			Reason: fmt.Sprintf("finite-difference matrix is singular for %d timesteps at order %d", steps, order),
		}
	}

	rInv := mat.NewSymDense(steps, nil)
	if err := chol.InverseTo(rInv); err != nil {
		return nil, fmt.Errorf("inverting control-cost matrix: %w", err)
	}

	// Projection matrix: R^-1 with each column rescaled so its largest
	// element is 1/steps. Keeps update magnitudes independent of the
	// trajectory length.
	proj := mat.NewDense(steps, steps, nil)
	for j := 0; j < steps; j++ {
		maxAbs := 0.0
		for i := 0; i < steps; i++ {
			if v := math.Abs(rInv.At(i, j)); v > maxAbs {
				maxAbs = v
			}
		}
		colScale := 1.0 / (float64(steps) * maxAbs)
		for i := 0; i < steps; i++ {
			proj.Set(i, j, rInv.At(i, j)*colScale)
		}
	}

	// Noise covariance: R^-1 normalized so its largest diagonal entry is 1,
	// making the caller-supplied std-dev the actual peak std-dev.
	maxDiag := 0.0
	for i := 0; i < steps; i++ {
		if v := rInv.At(i, i); v > maxDiag {
			maxDiag = v
		}
	}
	cov := mat.NewSymDense(steps, nil)
	for i := 0; i < steps; i++ {
		for j := i; j < steps; j++ {
			cov.SetSym(i, j, rInv.At(i, j)/maxDiag)
		}
	}
	var covChol mat.Cholesky
	if ok := covChol.Factorize(cov); !ok {
		return nil, fmt.Errorf("noise covariance is not positive-definite for %d timesteps at order %d", steps, order)
	}
	lCov := mat.NewTriDense(steps, mat.Lower, nil)
	covChol.LTo(lCov)

	return &Smoother{
		steps: steps,
		order: order,
		r:     r,
		rInv:  rInv,
		proj:  proj,
		lCov:  lCov,
	}, nil
}

// Steps returns the trajectory length the smoother was built for.
func (s *Smoother) Steps() int { return s.steps }

// Project right-multiplies each dimension row of delta by the scaled
// inverse control-cost matrix, suppressing high-frequency components.
// Boundary columns of the result are zeroed: the fixed start and goal
// states are never updated.
func (s *Smoother) Project(delta *Trajectory) *Trajectory {
	out := NewTrajectory(delta.Dims, delta.Steps)
	var res mat.VecDense
	for d := 0; d < delta.Dims; d++ {
		v := mat.NewVecDense(delta.Steps, delta.Row(d))
		res.MulVec(s.proj, v)
		row := out.Row(d)
		for t := 1; t < delta.Steps-1; t++ {
			row[t] = res.AtVec(t)
		}
	}
	return out
}

// SampleNoise draws one perturbation matrix whose per-timestep covariance
// is proportional to R^-1, so perturbations are temporally smooth rather
// than independent per timestep. Boundary columns are zeroed.
func (s *Smoother) SampleNoise(rng *rand.Rand, stdDev []float64) *Trajectory {
	noise := NewTrajectory(len(stdDev), s.steps)
	z := mat.NewVecDense(s.steps, nil)
	var corr mat.VecDense
	for d := range stdDev {
		for t := 0; t < s.steps; t++ {
			z.SetVec(t, rng.NormFloat64())
		}
		corr.MulVec(s.lCov, z)
		row := noise.Row(d)
		for t := 1; t < s.steps-1; t++ {
			row[t] = corr.AtVec(t) * stdDev[d]
		}
	}
	return noise
}

// ControlCost returns q'Rq for one dimension row, the smoothness penalty
// the configured derivative operator assigns to the parameter sequence.
func (s *Smoother) ControlCost(row []float64) float64 {
	total := 0.0
	for i := 0; i < s.steps; i++ {
		if row[i] == 0 {
			continue
		}
		dot := 0.0
		for j := 0; j < s.steps; j++ {
			dot += s.r.At(i, j) * row[j]
		}
		total += row[i] * dot
	}
	return total
}
