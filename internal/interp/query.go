package interp

import (
	"fmt"
	"math"

	serrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/grid"
	"github.com/conneroisu/strata/internal/world"
	"gonum.org/v1/gonum/mat"
)

// SamplingStrategy is the anti-aliasing applied to grid queries.
type SamplingStrategy int

const (
	// NoAA samples once per output cell.
	NoAA SamplingStrategy = iota
	// SuperSample2X samples at twice the resolution on every axis.
	SuperSample2X
	// SuperSample4X samples at four times the resolution on every axis.
	SuperSample4X
)

// Factor returns the per-axis sampling multiplier.
func (s SamplingStrategy) Factor() int {
	switch s {
	case SuperSample2X:
		return 2
	case SuperSample4X:
		return 4
	default:
		return 1
	}
}

// Halvings returns how many 2×2×2 reductions bring a supersampled grid back
// to the output resolution.
func (s SamplingStrategy) Halvings() int {
	switch s {
	case SuperSample2X:
		return 1
	case SuperSample4X:
		return 2
	default:
		return 0
	}
}

// String returns the strategy name.
func (s SamplingStrategy) String() string {
	switch s {
	case NoAA:
		return "none"
	case SuperSample2X:
		return "2x"
	case SuperSample4X:
		return "4x"
	default:
		return fmt.Sprintf("SamplingStrategy(%d)", int(s))
	}
}

// SamplingForSupersample maps a supersample level (0, 1 or 2) to a strategy.
func SamplingForSupersample(level int) (SamplingStrategy, error) {
	switch level {
	case 0:
		return NoAA, nil
	case 1:
		return SuperSample2X, nil
	case 2:
		return SuperSample4X, nil
	default:
		return NoAA, fmt.Errorf("supersample level %d not supported (want 0, 1 or 2)", level)
	}
}

// Query is a fixed set of (x, y) locations with cached interpolation
// weights for every boundary.
type Query struct {
	// ResX, ResY and ResZ are the sampled resolution of a grid query,
	// already multiplied by the sampling factor. They are zero for scatter
	// queries.
	ResX, ResY, ResZ int
	// Positions has one (x, y) location per row.
	Positions *mat.Dense
	// EdgeX, EdgeY and EdgeZ hold the res+1 cell edges along each axis.
	EdgeX, EdgeY, EdgeZ []float64
	Sampling            SamplingStrategy
	BoundariesAreTimes  bool

	weights []*mat.Dense
}

// NewGridQuery creates a query over the columns of a resX×resY×resZ voxel
// grid covering spec. Columns are ordered with y varying fastest.
func NewGridQuery(interps []*Interpolator, spec world.WorldSpec, resX, resY, resZ int, sampling SamplingStrategy) (*Query, error) {
	if resX < 1 || resY < 1 || resZ < 1 {
		return nil, serrors.Mismatch("grid resolution must be positive, got %dx%dx%d", resX, resY, resZ)
	}
	f := sampling.Factor()
	resX, resY, resZ = resX*f, resY*f, resZ*f

	q := &Query{
		ResX:               resX,
		ResY:               resY,
		ResZ:               resZ,
		Positions:          grid.InternalGrid2DX(spec.XBounds, spec.YBounds, resX, resY),
		EdgeX:              grid.LinSpaced(resX+1, spec.XBounds.Min, spec.XBounds.Max),
		EdgeY:              grid.LinSpaced(resY+1, spec.YBounds.Min, spec.YBounds.Max),
		EdgeZ:              grid.LinSpaced(resZ+1, spec.ZBounds.Min, spec.ZBounds.Max),
		Sampling:           sampling,
		BoundariesAreTimes: spec.BoundariesAreTimes,
	}
	if err := q.initWeights(interps); err != nil {
		return nil, err
	}
	return q, nil
}

// NewScatterQuery creates a query at arbitrary locations, one (x, y) pair
// per row of points.
func NewScatterQuery(interps []*Interpolator, spec world.WorldSpec, points mat.Matrix) (*Query, error) {
	n, c := points.Dims()
	if c != 2 {
		return nil, serrors.Mismatch("scatter points must be N×2, got %dx%d", n, c)
	}
	for i := 0; i < n; i++ {
		x, y := points.At(i, 0), points.At(i, 1)
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("scatter point %d (%g, %g) is not finite", i+1, x, y)
		}
	}
	q := &Query{
		Positions:          mat.DenseCopyOf(points),
		BoundariesAreTimes: spec.BoundariesAreTimes,
	}
	if err := q.initWeights(interps); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Query) initWeights(interps []*Interpolator) error {
	q.weights = make([]*mat.Dense, len(interps))
	for i, in := range interps {
		w, err := in.Weights(q.Positions)
		if err != nil {
			return fmt.Errorf("boundary %d: %w", i+1, err)
		}
		q.weights[i] = w
	}
	return nil
}

// NumPoints returns the number of query locations.
func (q *Query) NumPoints() int {
	if q.Positions == nil || q.Positions.IsEmpty() {
		return 0
	}
	r, _ := q.Positions.Dims()
	return r
}

// NumBoundaries returns the number of boundaries the query has weights for.
func (q *Query) NumBoundaries() int {
	return len(q.weights)
}
