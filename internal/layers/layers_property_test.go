//go:build property

package layers

import (
	"testing"

	"github.com/conneroisu/strata/internal/interp"
	"github.com/conneroisu/strata/internal/world"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gonum.org/v1/gonum/mat"
)

func TestLayerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("transitions never cross and stay inside the world", prop.ForAll(
		func(offsets []float64, c0, c1, c2, c3 float64) bool {
			if len(offsets) == 0 {
				return true
			}
			spec, params := flatWorld(offsets...)
			params.ControlPoints[len(offsets)-1] = mat.NewDense(2, 2, []float64{c0, c1, c2, c3})
			interps, err := interp.FromWorldSpec(spec)
			if err != nil {
				return false
			}
			q, err := interp.NewScatterQuery(interps, spec, mat.NewDense(3, 2, []float64{-9, -9, 0, 0, 7, 2}))
			if err != nil {
				return false
			}
			tr, err := Transitions(interps, params, q)
			if err != nil {
				return false
			}
			for c := 0; c < 3; c++ {
				col := mat.Col(nil, c, tr)
				if col[0] < 0 {
					return false
				}
				for i := 1; i < len(col); i++ {
					if col[i] < col[i-1] || col[i] > spec.ZBounds.Max {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(4, gen.Float64Range(-5, 25)),
		gen.Float64Range(-5, 5),
		gen.Float64Range(-5, 5),
		gen.Float64Range(-5, 5),
		gen.Float64Range(-5, 5),
	))

	properties.Property("voxel values lie within the layer property range", prop.ForAll(
		func(offsets []float64, zRes int) bool {
			spec, params := flatWorld(offsets...)
			interps, err := interp.FromWorldSpec(spec)
			if err != nil {
				return false
			}
			q, err := interp.NewGridQuery(interps, spec, 2, 2, zRes, interp.NoAA)
			if err != nil {
				return false
			}
			props := make([]float64, len(offsets))
			for i := range props {
				props[i] = float64(i + 1)
			}
			v, err := Voxels(interps, params, q, world.Density)
			if err != nil {
				return false
			}
			lo, hi := props[0], props[len(props)-1]
			for _, x := range v.RawMatrix().Data {
				if x < lo-1e-9 || x > hi+1e-9 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(3, gen.Float64Range(0, 20)),
		gen.IntRange(1, 12),
	))

	properties.TestingRun(t)
}
