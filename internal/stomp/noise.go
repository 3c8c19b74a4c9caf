package stomp

import "math/rand"

// GaussianNoise is the default NoiseGenerator: zero-mean draws whose
// temporal covariance follows the smoother's R^-1 basis, so perturbations
// bend the trajectory smoothly instead of jittering individual timesteps.
//
// The generator owns a seeded source and is called sequentially by the
// engine, which keeps fixed-seed runs bit-reproducible.
type GaussianNoise struct {
	smoother *Smoother
	rng      *rand.Rand
}

// NewGaussianNoise creates a generator drawing from the given smoother's
// covariance basis with a deterministic seed.
func NewGaussianNoise(smoother *Smoother, seed int64) *GaussianNoise {
	return &GaussianNoise{
		smoother: smoother,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Generate implements NoiseGenerator.
func (g *GaussianNoise) Generate(stdDev []float64, iteration int) (*Trajectory, error) {
	return g.smoother.SampleNoise(g.rng, stdDev), nil
}
