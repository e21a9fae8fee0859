// Package interp turns boundary control points into depth surfaces.
//
// Each boundary is a Gaussian-process mean over a regular grid of control
// points plus a fixed offset surface. An Interpolator holds the factorised
// control point kernel for one boundary; a Query caches the interpolation
// weights for a fixed set of (x, y) locations so that many parameter sets
// can be evaluated cheaply against the same geometry.
package interp

import (
	"fmt"
	"math"

	serrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/grid"
	"github.com/conneroisu/strata/internal/world"
	"gonum.org/v1/gonum/mat"
)

// Interpolator describes one boundary surface.
type Interpolator struct {
	Resolution [2]int
	// ControlPoints holds the control point locations, one per row, x
	// varying fastest.
	ControlPoints *mat.Dense
	Class         world.BoundaryClass
	Offset        *mat.Dense
	OffsetX       world.Bounds
	OffsetY       world.Bounds
	FloorHeight   float64

	lengthScale [2]float64
	chol        mat.Cholesky
}

// NewInterpolator builds the interpolator for boundary b of a world with
// the given extents.
func NewInterpolator(x, y, z world.Bounds, b world.BoundarySpec) (*Interpolator, error) {
	resX, resY := b.CtrlPointResolution[0], b.CtrlPointResolution[1]
	if resX < 1 || resY < 1 {
		return nil, serrors.Mismatch("control point resolution %dx%d", resX, resY)
	}
	if b.Offset == nil || b.Offset.IsEmpty() {
		return nil, serrors.Mismatch("boundary offset is empty")
	}

	in := &Interpolator{
		Resolution:    [2]int{resX, resY},
		ControlPoints: grid.EdgeGrid2D(x, y, resX, resY),
		Class:         b.Class,
		Offset:        b.Offset,
		OffsetX:       x,
		OffsetY:       y,
		FloorHeight:   z.Max,
		lengthScale:   AutoLengthScale(x, y, resX, resY),
	}

	kernel, err := SqExp2D(in.ControlPoints, in.ControlPoints, in.lengthScale, true)
	if err != nil {
		return nil, err
	}
	// the noisy kernel is regularised a second time by its own column sums
	addColumnSumsToDiagonal(kernel)

	n := in.NumControlPoints()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, kernel.At(i, j))
		}
	}
	if ok := in.chol.Factorize(sym); !ok {
		return nil, fmt.Errorf("control point kernel (%dx%d) is not positive definite", resX, resY)
	}
	return in, nil
}

// NumControlPoints returns the total number of control points.
func (in *Interpolator) NumControlPoints() int {
	return in.Resolution[0] * in.Resolution[1]
}

// Weights returns the nQuery×nCtrl matrix mapping flattened control point
// values to depths at points. Each row sums to one.
func (in *Interpolator) Weights(points mat.Matrix) (*mat.Dense, error) {
	kq, err := SqExp2D(points, in.ControlPoints, in.lengthScale, false)
	if err != nil {
		return nil, err
	}

	var w mat.Dense
	if err := in.chol.SolveTo(&w, kq.T()); err != nil {
		return nil, fmt.Errorf("solve interpolation weights: %w", err)
	}

	nCtrl, nQuery := w.Dims()
	out := mat.NewDense(nQuery, nCtrl, nil)
	for q := 0; q < nQuery; q++ {
		total := 0.0
		for c := 0; c < nCtrl; c++ {
			total += w.At(c, q)
		}
		for c := 0; c < nCtrl; c++ {
			out.Set(q, c, w.At(c, q)/total)
		}
	}
	return out, nil
}

// FromWorldSpec builds one interpolator per boundary of spec.
func FromWorldSpec(spec world.WorldSpec) ([]*Interpolator, error) {
	out := make([]*Interpolator, len(spec.Boundaries))
	for i, b := range spec.Boundaries {
		in, err := NewInterpolator(spec.XBounds, spec.YBounds, spec.ZBounds, b)
		if err != nil {
			return nil, fmt.Errorf("boundary %d: %w", i+1, err)
		}
		out[i] = in
	}
	return out, nil
}

// KernelInterpolate evaluates the control point surface of a boundary at
// every query point. ctrl has one row per x control point and one column
// per y control point.
func KernelInterpolate(q *Query, boundary int, ctrl mat.Matrix) ([]float64, error) {
	if boundary < 0 || boundary >= len(q.weights) {
		return nil, serrors.Mismatch("boundary %d out of range (query has %d)", boundary, len(q.weights))
	}
	w := q.weights[boundary]
	nQuery, nCtrl := w.Dims()

	flat := grid.Flatten(ctrl)
	if len(flat) != nCtrl {
		r, c := ctrl.Dims()
		return nil, serrors.Mismatch("boundary %d has %d control points, got %dx%d", boundary+1, nCtrl, r, c)
	}

	var depth mat.VecDense
	depth.MulVec(w, mat.NewVecDense(nCtrl, flat))
	out := make([]float64, nQuery)
	for i := range out {
		out[i] = depth.AtVec(i)
	}
	return out, nil
}

// LinearInterpolate looks up the offset surface of in at every query point
// with bilinear interpolation, clamping to the surface edges.
func LinearInterpolate(q *Query, in *Interpolator) []float64 {
	nQuery := q.NumPoints()
	width, height := in.Offset.Dims()
	maxX := float64(width - 1)
	maxY := float64(height - 1)
	scaleW := float64(width) / in.OffsetX.Span()
	scaleH := float64(height) / in.OffsetY.Span()

	out := make([]float64, nQuery)
	for i := 0; i < nQuery; i++ {
		xx := (q.Positions.At(i, 0) - in.OffsetX.Min) * scaleW
		yy := (q.Positions.At(i, 1) - in.OffsetY.Min) * scaleH
		xx = math.Min(math.Max(xx, 0), maxX)
		yy = math.Min(math.Max(yy, 0), maxY)

		x1 := int(math.Floor(xx))
		y1 := int(math.Floor(yy))
		x2, y2 := x1, y1
		if xx < maxX {
			x2++
		}
		if yy < maxY {
			y2++
		}
		ax := xx - float64(x1)
		ay := yy - float64(y1)

		v11 := in.Offset.At(x1, y1)
		v21 := in.Offset.At(x2, y1)
		v12 := in.Offset.At(x1, y2)
		v22 := in.Offset.At(x2, y2)
		out[i] = (1-ax)*((1-ay)*v11+ay*v12) + ax*((1-ay)*v21+ay*v22)
	}
	return out
}
