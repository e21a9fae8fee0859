// Package prior defines the prior distribution over world parameters and
// its mapping to and from a flat, whitened parameter vector θ.
//
// θ holds every active rock property of every layer followed by every
// active control point of every layer. Inactive entries are fixed at their
// prior mean and take no space in θ.
package prior

import (
	"fmt"
	"math"
	"math/rand/v2"

	serrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/world"
	"gonum.org/v1/gonum/mat"
)

// whitenRangeFraction caps the whitening scale at this fraction of a
// parameter's allowed range.
const whitenRangeFraction = 5.0

// LayerPrior is the prior over one layer's parameters. Control point
// grids are flattened row by row.
type LayerPrior struct {
	Class world.BoundaryClass

	Properties Gaussian
	PropMask   []bool
	PropMin    []float64
	PropMax    []float64

	CtrlPoints  Gaussian
	CtrlMask    [][]bool
	CtrlMin     *mat.Dense
	CtrlMax     *mat.Dense
	CoupledSD   float64
	UncoupledSD float64
}

// NumCtrlPoints returns the number of control points in the layer.
func (l LayerPrior) NumCtrlPoints() int {
	if len(l.CtrlMask) == 0 {
		return 0
	}
	return len(l.CtrlMask) * len(l.CtrlMask[0])
}

func (l LayerPrior) ctrlShape() (int, int) {
	if len(l.CtrlMask) == 0 {
		return 0, 0
	}
	return len(l.CtrlMask), len(l.CtrlMask[0])
}

func (l LayerPrior) flatCtrlMask() []bool {
	out := make([]bool, 0, l.NumCtrlPoints())
	for _, row := range l.CtrlMask {
		out = append(out, row...)
	}
	return out
}

// WorldPrior is the prior over a full set of world parameters.
type WorldPrior struct {
	Layers []LayerPrior

	props    []*sampler
	ctrl     []*sampler
	ctrlLo   [][]float64
	ctrlHi   [][]float64
	thetaMin []float64
	thetaMax []float64
}

// NewWorldPrior validates layers, decorrelates every masked-out entry and
// precomputes the bounds of θ.
func NewWorldPrior(layers []LayerPrior) (*WorldPrior, error) {
	if len(layers) == 0 {
		return nil, serrors.ErrEmptyWorld
	}
	wp := &WorldPrior{Layers: make([]LayerPrior, len(layers))}
	for i, l := range layers {
		if err := checkLayer(l); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}

		masked, err := l.Properties.Masked(l.PropMask)
		if err != nil {
			return nil, fmt.Errorf("layer %d properties: %w", i+1, err)
		}
		l.Properties = masked
		ps, ok := newSampler(masked)
		if !ok {
			return nil, fmt.Errorf("layer %d: property covariance is not positive definite", i+1)
		}

		masked, err = l.CtrlPoints.Masked(l.flatCtrlMask())
		if err != nil {
			return nil, fmt.Errorf("layer %d control points: %w", i+1, err)
		}
		l.CtrlPoints = masked
		cs, ok := newSampler(masked)
		if !ok {
			return nil, fmt.Errorf("layer %d: control point covariance is not positive definite", i+1)
		}

		wp.Layers[i] = l
		wp.props = append(wp.props, ps)
		wp.ctrl = append(wp.ctrl, cs)
		wp.ctrlLo = append(wp.ctrlLo, rowMajor(l.CtrlMin))
		wp.ctrlHi = append(wp.ctrlHi, rowMajor(l.CtrlMax))
	}

	lo := world.WorldParams{}
	hi := world.WorldParams{}
	for _, l := range wp.Layers {
		lo.RockProperties = append(lo.RockProperties, l.PropMin)
		hi.RockProperties = append(hi.RockProperties, l.PropMax)
		lo.ControlPoints = append(lo.ControlPoints, l.CtrlMin)
		hi.ControlPoints = append(hi.ControlPoints, l.CtrlMax)
	}
	var err error
	if wp.thetaMin, err = wp.Deconstruct(lo); err != nil {
		return nil, err
	}
	if wp.thetaMax, err = wp.Deconstruct(hi); err != nil {
		return nil, err
	}
	return wp, nil
}

func checkLayer(l LayerPrior) error {
	n := l.Properties.Dim()
	if len(l.PropMask) != n || len(l.PropMin) != n || len(l.PropMax) != n {
		return serrors.Mismatch("property prior has %d entries but mask/min/max have %d/%d/%d",
			n, len(l.PropMask), len(l.PropMin), len(l.PropMax))
	}
	rows, cols := l.ctrlShape()
	if rows == 0 || cols == 0 {
		return serrors.Mismatch("control point mask is empty")
	}
	for _, row := range l.CtrlMask {
		if len(row) != cols {
			return serrors.Mismatch("control point mask is ragged")
		}
	}
	if l.CtrlPoints.Dim() != rows*cols {
		return serrors.Mismatch("control point prior has %d entries for a %dx%d grid", l.CtrlPoints.Dim(), rows, cols)
	}
	for name, m := range map[string]*mat.Dense{"min": l.CtrlMin, "max": l.CtrlMax} {
		if m == nil {
			return serrors.Mismatch("control point %s is missing", name)
		}
		if r, c := m.Dims(); r != rows || c != cols {
			return serrors.Mismatch("control point %s is %dx%d, mask is %dx%d", name, r, c, rows, cols)
		}
	}
	return nil
}

// Size returns the length of θ.
func (wp *WorldPrior) Size() int {
	n := 0
	for _, l := range wp.Layers {
		for _, on := range l.PropMask {
			if on {
				n++
			}
		}
		for _, on := range l.flatCtrlMask() {
			if on {
				n++
			}
		}
	}
	return n
}

// ThetaMin returns the lower bound of every entry of θ.
func (wp *WorldPrior) ThetaMin() []float64 {
	return append([]float64(nil), wp.thetaMin...)
}

// ThetaMax returns the upper bound of every entry of θ.
func (wp *WorldPrior) ThetaMax() []float64 {
	return append([]float64(nil), wp.thetaMax...)
}

// Deconstruct flattens the active entries of params into a whitened θ.
func (wp *WorldPrior) Deconstruct(params world.WorldParams) ([]float64, error) {
	nLayers := len(wp.Layers)
	if len(params.RockProperties) != nLayers || len(params.ControlPoints) != nLayers {
		return nil, serrors.Mismatch("prior has %d layers, params have %d property sets and %d control point sets",
			nLayers, len(params.RockProperties), len(params.ControlPoints))
	}

	theta := make([]float64, 0, wp.Size())
	for i, l := range wp.Layers {
		props := params.RockProperties[i]
		if len(props) != l.Properties.Dim() {
			return nil, serrors.Mismatch("layer %d has %d properties, prior expects %d", i+1, len(props), l.Properties.Dim())
		}
		for j, on := range l.PropMask {
			if on {
				theta = append(theta, whiten(props[j], l.Properties.Mu[j], l.Properties.Sigma.At(j, j), l.PropMin[j], l.PropMax[j]))
			}
		}
	}
	for i, l := range wp.Layers {
		ctrl := params.ControlPoints[i]
		rows, cols := l.ctrlShape()
		if ctrl == nil {
			return nil, serrors.Mismatch("layer %d has no control points", i+1)
		}
		if r, c := ctrl.Dims(); r != rows || c != cols {
			return nil, serrors.Mismatch("layer %d control points are %dx%d, prior expects %dx%d", i+1, r, c, rows, cols)
		}
		for j := 0; j < rows; j++ {
			for k := 0; k < cols; k++ {
				if !l.CtrlMask[j][k] {
					continue
				}
				e := j*cols + k
				theta = append(theta, whiten(ctrl.At(j, k), l.CtrlPoints.Mu[e], l.CtrlPoints.Sigma.At(e, e), l.CtrlMin.At(j, k), l.CtrlMax.At(j, k)))
			}
		}
	}
	return theta, nil
}

// Reconstruct builds world parameters from θ. Inactive entries take their
// prior mean.
func (wp *WorldPrior) Reconstruct(theta []float64) (world.WorldParams, error) {
	if len(theta) != wp.Size() {
		return world.WorldParams{}, serrors.Mismatch("θ has %d entries, prior expects %d", len(theta), wp.Size())
	}

	var params world.WorldParams
	count := 0
	for _, l := range wp.Layers {
		props := make([]float64, l.Properties.Dim())
		for j := range props {
			if l.PropMask[j] {
				props[j] = unwhiten(theta[count], l.Properties.Mu[j], l.Properties.Sigma.At(j, j), l.PropMin[j], l.PropMax[j])
				count++
			} else {
				props[j] = l.Properties.Mu[j]
			}
		}
		params.RockProperties = append(params.RockProperties, props)
	}
	for _, l := range wp.Layers {
		rows, cols := l.ctrlShape()
		ctrl := mat.NewDense(rows, cols, nil)
		for j := 0; j < rows; j++ {
			for k := 0; k < cols; k++ {
				e := j*cols + k
				if l.CtrlMask[j][k] {
					ctrl.Set(j, k, unwhiten(theta[count], l.CtrlPoints.Mu[e], l.CtrlPoints.Sigma.At(e, e), l.CtrlMin.At(j, k), l.CtrlMax.At(j, k)))
					count++
				} else {
					ctrl.Set(j, k, l.CtrlPoints.Mu[e])
				}
			}
		}
		params.ControlPoints = append(params.ControlPoints, ctrl)
	}
	return params, nil
}

// LogPDF evaluates the log prior density of θ. It is -Inf when any
// parameter lies outside its bounds. Control points of warped boundaries
// are uniform over their bounds.
func (wp *WorldPrior) LogPDF(theta []float64) (float64, error) {
	params, err := wp.Reconstruct(theta)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for i, l := range wp.Layers {
		total += wp.props[i].logPDF(params.RockProperties[i], l.PropMin, l.PropMax)
		ctrl := rowMajor(params.ControlPoints[i])
		if l.Class == world.Warped {
			total += uniformLogPDF(ctrl, wp.ctrlLo[i], wp.ctrlHi[i], l.flatCtrlMask())
		} else {
			total += wp.ctrl[i].logPDF(ctrl, wp.ctrlLo[i], wp.ctrlHi[i])
		}
		if math.IsInf(total, -1) {
			return total, nil
		}
	}
	return total, nil
}

// Sample draws a θ whose parameters all lie inside their bounds.
func (wp *WorldPrior) Sample(rng *rand.Rand) ([]float64, error) {
	var params world.WorldParams
	for i, l := range wp.Layers {
		params.RockProperties = append(params.RockProperties, wp.props[i].drawTruncated(rng, l.PropMin, l.PropMax))

		var flat []float64
		if l.Class == world.Warped {
			flat = drawUniform(rng, wp.ctrlLo[i], wp.ctrlHi[i])
		} else {
			flat = wp.ctrl[i].drawTruncated(rng, wp.ctrlLo[i], wp.ctrlHi[i])
		}
		rows, cols := l.ctrlShape()
		params.ControlPoints = append(params.ControlPoints, mat.NewDense(rows, cols, flat))
	}
	return wp.Deconstruct(params)
}

func whitenScale(variance, lo, hi float64) float64 {
	return math.Min(math.Sqrt(variance), (hi-lo)/whitenRangeFraction)
}

func whiten(x, mu, variance, lo, hi float64) float64 {
	return (x - mu) / whitenScale(variance, lo, hi)
}

func unwhiten(x, mu, variance, lo, hi float64) float64 {
	return x*whitenScale(variance, lo, hi) + mu
}

func rowMajor(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	out := make([]float64, 0, rows*cols)
	for j := 0; j < rows; j++ {
		for k := 0; k < cols; k++ {
			out = append(out, m.At(j, k))
		}
	}
	return out
}
