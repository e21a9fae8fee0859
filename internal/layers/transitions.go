// Package layers evaluates boundary depths for a parameter set and converts
// them into layer thicknesses and voxelised property volumes.
package layers

import (
	"fmt"
	"math"

	serrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/interp"
	"github.com/conneroisu/strata/internal/world"
	"gonum.org/v1/gonum/mat"
)

// warpedRegulariser keeps the warped profile finite as the available height
// approaches zero.
const warpedRegulariser = 1e-3

// Transitions returns the depth of every boundary at every query point as
// an nBoundaries×nQuery matrix. Boundaries never cross: each is clipped to
// lie at or below the one above it (the first at or below zero) and at or
// above the floor of the world.
func Transitions(interps []*interp.Interpolator, params world.WorldParams, q *interp.Query) (*mat.Dense, error) {
	nb := len(interps)
	if nb == 0 {
		return nil, serrors.ErrEmptyWorld
	}
	if len(params.ControlPoints) != nb {
		return nil, serrors.Mismatch("%d control point sets for %d boundaries", len(params.ControlPoints), nb)
	}
	if q.BoundariesAreTimes && len(params.RockProperties) < nb-1 {
		return nil, serrors.Mismatch("%d property sets for %d time boundaries", len(params.RockProperties), nb)
	}

	nQuery := q.NumPoints()
	if nQuery == 0 {
		return nil, serrors.Mismatch("query has no points")
	}
	floor := interps[0].FloorHeight
	out := mat.NewDense(nb, nQuery, nil)

	previous := make([]float64, nQuery)
	var lastOffset []float64
	for i, in := range interps {
		if params.ControlPoints[i] == nil {
			return nil, serrors.Mismatch("boundary %d has no control points", i+1)
		}
		current, err := interp.KernelInterpolate(q, i, params.ControlPoints[i])
		if err != nil {
			return nil, err
		}
		offset := interp.LinearInterpolate(q, in)

		if q.BoundariesAreTimes {
			if i > 0 {
				props := params.RockProperties[i-1]
				if len(props) <= int(world.PWaveVelocity) {
					return nil, serrors.Mismatch("layer %d has no P-wave velocity", i)
				}
				v := props[world.PWaveVelocity]
				for k := range offset {
					offset[k] = lastOffset[k] + offset[k]*v
				}
			}
			lastOffset = offset
		}

		for k := range current {
			current[k] = math.Min(math.Max(current[k]+offset[k], previous[k]), floor)
		}

		if in.Class == world.Warped {
			current, err = warp(current, offset, previous, q, i, params.ControlPoints[i], floor)
			if err != nil {
				return nil, fmt.Errorf("warp boundary %d: %w", i+1, err)
			}
		}

		out.SetRow(i, current)
		previous = current
	}
	return out, nil
}

// warp reshapes a warped boundary into a dome rising from the boundary
// above it. The dome's ceiling comes from the control points dilated by a
// 3×3 maximum filter.
func warp(current, offset, upper []float64, q *interp.Query, boundary int, ctrl *mat.Dense, floor float64) ([]float64, error) {
	dilated := dilate(ctrl)
	ceiling, err := interp.KernelInterpolate(q, boundary, dilated)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(current))
	for k := range current {
		l := math.Max(math.Min(ceiling[k]+offset[k], floor), upper[k])
		c := math.Max(current[k], upper[k])
		h := l - upper[k]
		g := math.Min(c-upper[k], h)
		h += warpedRegulariser
		r := g / h
		out[k] = upper[k] + h*math.Sqrt(math.Max(1-(1-r)*(1-r), 0))
	}
	return out, nil
}

// dilate replaces every control point by the maximum of its 3×3
// neighbourhood (and zero).
func dilate(ctrl *mat.Dense) *mat.Dense {
	rows, cols := ctrl.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := 0.0
			for ii := max(i-1, 0); ii <= min(i+1, rows-1); ii++ {
				for jj := max(j-1, 0); jj <= min(j+1, cols-1); jj++ {
					v = math.Max(v, ctrl.At(ii, jj))
				}
			}
			out.Set(i, j, v)
		}
	}
	return out
}

// Thickness converts an nLayers×nQuery transition matrix into an
// nQuery×nLayers matrix of layer thicknesses. The deepest layer is a half
// space and has infinite thickness.
func Thickness(transitions mat.Matrix) *mat.Dense {
	nLayers, nQuery := transitions.Dims()
	out := mat.NewDense(nQuery, nLayers, nil)
	for s := 0; s < nQuery; s++ {
		for l := 0; l < nLayers; l++ {
			if l == nLayers-1 {
				out.Set(s, l, math.Inf(1))
				continue
			}
			out.Set(s, l, transitions.At(l+1, s)-transitions.At(l, s))
		}
	}
	return out
}
