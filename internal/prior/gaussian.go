package prior

import (
	"math"
	"math/rand/v2"

	serrors "github.com/conneroisu/strata/internal/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// maxRejections bounds the number of truncated draws attempted before a
// sample is clamped into its box.
const maxRejections = 1000

// Gaussian is a multivariate normal distribution.
type Gaussian struct {
	Mu    []float64
	Sigma *mat.SymDense
}

// NewGaussian copies mu and sigma into a Gaussian.
func NewGaussian(mu []float64, sigma mat.Symmetric) (Gaussian, error) {
	n := sigma.SymmetricDim()
	if n != len(mu) {
		return Gaussian{}, serrors.Mismatch("mean has %d entries, covariance is %dx%d", len(mu), n, n)
	}
	s := mat.NewSymDense(n, nil)
	s.CopySym(sigma)
	return Gaussian{Mu: append([]float64(nil), mu...), Sigma: s}, nil
}

// CoupledGaussianBlock returns a Gaussian whose entries share a common
// component of standard deviation coupledSD plus an independent component
// of standard deviation uncoupledSD.
func CoupledGaussianBlock(mean []float64, coupledSD, uncoupledSD float64) Gaussian {
	n := len(mean)
	sigma := mat.NewSymDense(n, nil)
	c := coupledSD * coupledSD
	u := uncoupledSD * uncoupledSD
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := c
			if i == j {
				v += u
			}
			sigma.SetSym(i, j, v)
		}
	}
	return Gaussian{Mu: append([]float64(nil), mean...), Sigma: sigma}
}

// Dim returns the dimension of the distribution.
func (g Gaussian) Dim() int {
	return len(g.Mu)
}

// Masked returns a copy of g in which every inactive dimension is
// decorrelated from the rest and has unit variance.
func (g Gaussian) Masked(active []bool) (Gaussian, error) {
	if len(active) != g.Dim() {
		return Gaussian{}, serrors.Mismatch("mask has %d entries for a %d dimensional prior", len(active), g.Dim())
	}
	out, err := NewGaussian(g.Mu, g.Sigma)
	if err != nil {
		return Gaussian{}, err
	}
	n := g.Dim()
	for p, on := range active {
		if on {
			continue
		}
		for k := 0; k < n; k++ {
			out.Sigma.SetSym(p, k, 0)
		}
		out.Sigma.SetSym(p, p, 1)
	}
	return out, nil
}

// sampler holds the factorised form of a Gaussian.
type sampler struct {
	mu   []float64
	chol mat.Cholesky
	dist *distmv.Normal
}

func newSampler(g Gaussian) (*sampler, bool) {
	s := &sampler{mu: g.Mu}
	if ok := s.chol.Factorize(g.Sigma); !ok {
		return nil, false
	}
	s.dist = distmv.NewNormalChol(g.Mu, &s.chol, nil)
	return s, true
}

// logPDF is the Gaussian log density, or -Inf outside [lo, hi].
func (s *sampler) logPDF(x, lo, hi []float64) float64 {
	if !inBox(x, lo, hi) {
		return math.Inf(-1)
	}
	return s.dist.LogProb(x)
}

// drawTruncated draws from the Gaussian restricted to [lo, hi] by
// rejection, clamping the last draw if none lands inside.
func (s *sampler) drawTruncated(rng *rand.Rand, lo, hi []float64) []float64 {
	x := make([]float64, len(s.mu))
	for i := 0; i < maxRejections; i++ {
		distmv.NormalRand(x, s.mu, &s.chol, rng)
		if inBox(x, lo, hi) {
			return x
		}
	}
	clamp(x, lo, hi)
	return x
}

// uniformLogPDF is the log density of the uniform distribution over the
// active entries of the box [lo, hi], or -Inf outside it.
func uniformLogPDF(x, lo, hi []float64, active []bool) float64 {
	if !inBox(x, lo, hi) {
		return math.Inf(-1)
	}
	total := 0.0
	for i := range x {
		if active[i] {
			total -= math.Log(hi[i] - lo[i])
		}
	}
	return total
}

func drawUniform(rng *rand.Rand, lo, hi []float64) []float64 {
	x := make([]float64, len(lo))
	for i := range x {
		x[i] = lo[i] + rng.Float64()*(hi[i]-lo[i])
	}
	return x
}

func inBox(x, lo, hi []float64) bool {
	for i, v := range x {
		if v < lo[i] || v > hi[i] {
			return false
		}
	}
	return true
}

func clamp(x, lo, hi []float64) {
	for i := range x {
		x[i] = math.Min(math.Max(x[i], lo[i]), hi[i])
	}
}
