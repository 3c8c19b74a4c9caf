package stomp

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
)

// Progress is a per-iteration snapshot delivered to the OnProgress
// callback on the orchestrating goroutine.
type Progress struct {
	Iteration     int
	BestCost      float64
	CurrentCost   float64
	NoiseScale    float64
	ValidRollouts int
	ValidFound    bool

	// Best is the best trajectory so far. The engine never mutates a
	// trajectory once it became the best, so the pointer stays valid after
	// the callback returns.
	Best *Trajectory
}

// ProgressFunc receives per-iteration progress snapshots.
type ProgressFunc func(Progress)

// Result is the outcome of an optimization run.
type Result struct {
	// Trajectory is the best trajectory found.
	Trajectory *Trajectory

	// Cost is the total cost of the best trajectory.
	Cost float64

	// InitialCost is the total cost of the input trajectory.
	InitialCost float64

	// Success is true iff at least one evaluated rollout across all
	// iterations was reported valid.
	Success bool

	// Iterations is the number of iterations actually used.
	Iterations int
}

// Optimizer runs the iterate-generate-evaluate-update loop.
type Optimizer struct {
	cfg      Config
	smoother *Smoother
	task     Task

	// OnProgress, when set, is called once per iteration. It runs on the
	// orchestrating goroutine and must not block.
	OnProgress ProgressFunc
}

// New validates the configuration, builds the smoothing operator and wires
// the task surface. A nil NoiseGenerator defaults to the smoother-backed
// Gaussian generator seeded from the configuration.
func New(cfg Config, task Task) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if task.Evaluator == nil {
		return nil, fmt.Errorf("a cost evaluator is required")
	}
	smoother, err := NewSmoother(cfg.NumTimesteps, cfg.DerivativeOrder, cfg.DeltaT)
	if err != nil {
		return nil, err
	}
	if task.Noise == nil {
		task.Noise = NewGaussianNoise(smoother, cfg.Seed)
	}
	return &Optimizer{cfg: cfg, smoother: smoother, task: task}, nil
}

// Smoother exposes the smoothing operator, e.g. for custom noise
// generators that want the correlated sampling helper.
func (o *Optimizer) Smoother() *Smoother { return o.smoother }

// Run executes the optimization loop until the iteration budget is
// exhausted or ctx is cancelled. Cancellation is polled at iteration
// boundaries; in-flight rollout evaluations run to completion first.
//
// A returned error means a collaborator failed hard or the input was
// malformed. Exhausting the budget without a valid solution is not an
// error: the result carries Success=false and the caller decides.
func (o *Optimizer) Run(ctx context.Context, initial *Trajectory) (*Result, error) {
	if err := initial.checkShape(o.cfg.NumDimensions, o.cfg.NumTimesteps); err != nil {
		return nil, err
	}
	dims, steps := o.cfg.NumDimensions, o.cfg.NumTimesteps

	current := initial.Clone()
	best := initial.Clone()

	// Score the input trajectory first: it seeds the best-so-far record, so
	// the stored best can only ever improve from here.
	initialCost, validFound, err := o.scoreTrajectory(current, 0, -1)
	if err != nil {
		return nil, err
	}
	bestCost := initialCost
	currentCost := initialCost

	slog.Info("Optimization started",
		"dimensions", dims,
		"timesteps", steps,
		"rollouts", o.cfg.NumRollouts,
		"max_iterations", o.cfg.MaxIterations,
		"initial_cost", initialCost,
	)

	tracker := newConvergenceTracker(o.cfg.Convergence)
	var prev []*Rollout
	itersAfterValid := 0
	iterations := 0

	for iter := 0; iter < o.cfg.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			slog.Info("Optimization cancelled", "iteration", iter)
			return o.result(best, bestCost, initialCost, validFound, iterations), nil
		default:
		}
		iterations = iter + 1

		scale := math.Pow(o.cfg.NoiseDecay, float64(iter))
		if scale < o.cfg.MinNoiseScale {
			scale = o.cfg.MinNoiseScale
		}
		stdDev := make([]float64, dims)
		for d := range stdDev {
			stdDev[d] = o.cfg.InitialStdDev[d] * scale
		}

		rollouts, err := o.assembleRollouts(current, prev, stdDev, iter)
		if err != nil {
			return nil, err
		}

		if err := o.scoreRollouts(rollouts, iter); err != nil {
			return nil, err
		}

		nValid := 0
		for _, r := range rollouts {
			if r.Valid {
				nValid++
				validFound = true
			}
		}

		if nValid > 0 {
			computeWeights(rollouts, steps)
			delta := weightedDelta(rollouts, dims, steps)
			current.Add(o.smoother.Project(delta))

			for i, f := range o.task.UpdateFilters {
				changed, ok, ferr := f.ApplyUpdate(current)
				if ferr != nil {
					return nil, fmt.Errorf("post-update filter %d failed: %w", i, ferr)
				}
				if changed && !ok {
					slog.Warn("Post-update filter left trajectory invalid", "filter", i, "iteration", iter)
				}
			}

			total, valid, serr := o.scoreTrajectory(current, iter, -1)
			if serr != nil {
				return nil, serr
			}
			if valid {
				validFound = true
			}
			currentCost = total
			if total < bestCost {
				bestCost = total
				best = current.Clone()
			}
		} else {
			// Keep the previous best and spend the iteration.
			slog.Debug("All rollouts invalid, skipping update", "iteration", iter)
		}

		if o.OnProgress != nil {
			o.OnProgress(Progress{
				Iteration:     iter,
				BestCost:      bestCost,
				CurrentCost:   currentCost,
				NoiseScale:    scale,
				ValidRollouts: nValid,
				ValidFound:    validFound,
				Best:          best,
			})
		}
		slog.Debug("Iteration complete",
			"iteration", iter,
			"best_cost", bestCost,
			"valid_rollouts", nValid,
			"noise_scale", scale,
		)

		// Noiseless rollout is excluded from reuse; it is rebuilt each
		// iteration from the updated trajectory anyway.
		prev = rollouts[:o.cfg.NumRollouts]

		if tracker.update(bestCost) {
			break
		}
		if validFound {
			itersAfterValid++
			if itersAfterValid > o.cfg.MaxIterationsAfterValid {
				slog.Info("Post-valid iteration budget exhausted", "iteration", iter)
				break
			}
		}
	}

	slog.Info("Optimization finished",
		"iterations", iterations,
		"best_cost", bestCost,
		"success", validFound,
	)
	return o.result(best, bestCost, initialCost, validFound, iterations), nil
}

func (o *Optimizer) result(best *Trajectory, bestCost, initialCost float64, success bool, iterations int) *Result {
	return &Result{
		Trajectory:  best,
		Cost:        bestCost,
		InitialCost: initialCost,
		Success:     success,
		Iterations:  iterations,
	}
}

// assembleRollouts builds the iteration's rollout pool: the best reusable
// rollouts from the previous iteration keep their noise matrices and are
// re-based on the updated trajectory; the remainder get fresh noise; one
// extra zero-noise rollout carries the unperturbed trajectory so the
// update can never degrade a currently-good solution.
//
// Noise is drawn sequentially on the orchestrating goroutine so that
// fixed-seed runs are reproducible.
func (o *Optimizer) assembleRollouts(current *Trajectory, prev []*Rollout, stdDev []float64, iter int) ([]*Rollout, error) {
	dims, steps := o.cfg.NumDimensions, o.cfg.NumTimesteps
	rollouts := make([]*Rollout, o.cfg.NumRollouts+1)

	idx := 0
	for _, r := range bestRollouts(prev, o.cfg.NumRolloutsReused) {
		nr := newRollout(dims, steps)
		copy(nr.Noise.Data, r.Noise.Data)
		rollouts[idx] = nr
		idx++
	}
	for ; idx < o.cfg.NumRollouts; idx++ {
		noise, err := o.task.Noise.Generate(stdDev, iter)
		if err != nil {
			return nil, fmt.Errorf("noise generator failed at iteration %d: %w", iter, err)
		}
		if err := noise.checkShape(dims, steps); err != nil {
			return nil, fmt.Errorf("noise generator: %w", err)
		}
		nr := newRollout(dims, steps)
		copy(nr.Noise.Data, noise.Data)
		rollouts[idx] = nr
	}
	rollouts[o.cfg.NumRollouts] = newRollout(dims, steps) // zero noise

	for _, r := range rollouts {
		copy(r.Params.Data, current.Data)
		r.Params.Add(r.Noise)
	}
	return rollouts, nil
}

// scoreRollouts fans the per-rollout filtering and cost evaluation out
// over a worker pool and joins before returning. Each worker writes only
// to its own rollout record; the first hard error wins and is returned
// after all in-flight work completes.
func (o *Optimizer) scoreRollouts(rollouts []*Rollout, iter int) error {
	workers := runtime.NumCPU()
	if workers > len(rollouts) {
		workers = len(rollouts)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range jobs {
				if err := o.scoreRollout(rollouts[k], iter, k); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}
	for k := range rollouts {
		jobs <- k
	}
	close(jobs)
	wg.Wait()
	return firstErr
}

// scoreRollout runs the pre-cost filter chain and the evaluator for one
// rollout. A filter reporting unrecoverable marks the rollout invalid and
// skips evaluation; a hard error from a collaborator is fatal.
func (o *Optimizer) scoreRollout(r *Rollout, iter, k int) error {
	steps := o.cfg.NumTimesteps

	for i, f := range o.task.Filters {
		_, ok, err := f.Apply(r.Params, k)
		if err != nil {
			return fmt.Errorf("pre-cost filter %d failed on rollout %d: %w", i, k, err)
		}
		if !ok {
			r.Valid = false
			return nil
		}
	}

	costs, valid, err := o.task.Evaluator.Evaluate(r.Params, 0, steps, iter, k)
	if err != nil {
		return fmt.Errorf("cost evaluator failed on rollout %d: %w", k, err)
	}
	if len(costs) != steps {
		return fmt.Errorf("cost evaluator returned %d costs for rollout %d, expected %d", len(costs), k, steps)
	}
	copy(r.Costs, costs)
	if o.cfg.CumulativeCosts {
		differenceCosts(r.Costs)
	}
	r.Valid = valid

	taskCost := 0.0
	for _, c := range r.Costs {
		taskCost += c
	}
	r.TotalCost = taskCost + o.cfg.ControlCostWeight*o.controlCost(r.Params)
	return nil
}

// scoreTrajectory evaluates a full trajectory the same way as a zero-noise
// rollout and returns its total cost.
func (o *Optimizer) scoreTrajectory(traj *Trajectory, iter, rollout int) (float64, bool, error) {
	steps := o.cfg.NumTimesteps
	costs, valid, err := o.task.Evaluator.Evaluate(traj, 0, steps, iter, rollout)
	if err != nil {
		return 0, false, fmt.Errorf("cost evaluator failed: %w", err)
	}
	if len(costs) != steps {
		return 0, false, fmt.Errorf("cost evaluator returned %d costs, expected %d", len(costs), steps)
	}
	if o.cfg.CumulativeCosts {
		costs = append([]float64(nil), costs...)
		differenceCosts(costs)
	}
	total := 0.0
	for _, c := range costs {
		total += c
	}
	return total + o.cfg.ControlCostWeight*o.controlCost(traj), valid, nil
}

func (o *Optimizer) controlCost(traj *Trajectory) float64 {
	total := 0.0
	for d := 0; d < traj.Dims; d++ {
		total += o.smoother.ControlCost(traj.Row(d))
	}
	return total
}
