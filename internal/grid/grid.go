// Package grid builds the regular point sets used to place control points,
// sensors and voxel columns over a world.
//
// Point sets are returned as N×2 (or N×3) matrices with one point per row.
package grid

import (
	"math"

	"github.com/conneroisu/strata/internal/world"
	"gonum.org/v1/gonum/mat"
)

func cellCentre(b world.Bounds, i, res int) float64 {
	return b.Min + b.Span()*(float64(i)+0.5)/float64(res)
}

func edgePoint(b world.Bounds, i, res int) float64 {
	if res == 1 {
		return b.Min + b.Span()/2
	}
	return b.Min + b.Span()*float64(i)/float64(res-1)
}

// InternalGrid2D returns the centres of a resX×resY cell grid. x varies
// fastest.
func InternalGrid2D(x, y world.Bounds, resX, resY int) *mat.Dense {
	out := mat.NewDense(max(resX*resY, 1), 2, nil)
	c := 0
	for j := 0; j < resY; j++ {
		for i := 0; i < resX; i++ {
			out.Set(c, 0, cellCentre(x, i, resX))
			out.Set(c, 1, cellCentre(y, j, resY))
			c++
		}
	}
	return trimRows(out, c)
}

// InternalGrid2DX returns the same points as InternalGrid2D with y varying
// fastest. Voxel columns use this ordering.
func InternalGrid2DX(x, y world.Bounds, resX, resY int) *mat.Dense {
	out := mat.NewDense(max(resX*resY, 1), 2, nil)
	c := 0
	for i := 0; i < resX; i++ {
		for j := 0; j < resY; j++ {
			out.Set(c, 0, cellCentre(x, i, resX))
			out.Set(c, 1, cellCentre(y, j, resY))
			c++
		}
	}
	return trimRows(out, c)
}

// EdgeGrid2D returns a resX×resY grid spanning the bounds edge to edge,
// x varying fastest. An axis with a single point uses its midpoint.
func EdgeGrid2D(x, y world.Bounds, resX, resY int) *mat.Dense {
	out := mat.NewDense(max(resX*resY, 1), 2, nil)
	c := 0
	for j := 0; j < resY; j++ {
		for i := 0; i < resX; i++ {
			out.Set(c, 0, edgePoint(x, i, resX))
			out.Set(c, 1, edgePoint(y, j, resY))
			c++
		}
	}
	return trimRows(out, c)
}

// SensorGrid places resX×resY sensors at cell centres at height z.
func SensorGrid(spec world.WorldSpec, resX, resY int, z float64) *mat.Dense {
	xy := InternalGrid2D(spec.XBounds, spec.YBounds, resX, resY)
	n, _ := xy.Dims()
	out := mat.NewDense(n, 3, nil)
	for r := 0; r < n; r++ {
		out.Set(r, 0, xy.At(r, 0))
		out.Set(r, 1, xy.At(r, 1))
		out.Set(r, 2, z)
	}
	return out
}

// SensorGrid3D returns the centres of a resX×resY×resZ voxel grid with z
// varying fastest, then y, then x.
func SensorGrid3D(spec world.WorldSpec, resX, resY, resZ int) *mat.Dense {
	out := mat.NewDense(max(resX*resY*resZ, 1), 3, nil)
	c := 0
	for i := 0; i < resX; i++ {
		for j := 0; j < resY; j++ {
			for k := 0; k < resZ; k++ {
				out.Set(c, 0, cellCentre(spec.XBounds, i, resX))
				out.Set(c, 1, cellCentre(spec.YBounds, j, resY))
				out.Set(c, 2, cellCentre(spec.ZBounds, k, resZ))
				c++
			}
		}
	}
	return trimRows(out, c)
}

// Linrange returns from, from+step, ... up to and including to when it
// falls on a step.
func Linrange(from, to, step float64) []float64 {
	n := int(math.Floor((to-from)/step)) + 1
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

// LinSpaced returns n evenly spaced samples from a to b inclusive.
func LinSpaced(n int, a, b float64) []float64 {
	out := make([]float64, n)
	switch n {
	case 0:
	case 1:
		out[0] = b
	default:
		step := (b - a) / float64(n-1)
		for i := range out {
			out[i] = a + float64(i)*step
		}
		out[n-1] = b
	}
	return out
}

// Flatten stacks the columns of m into one vector.
func Flatten(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

// MakeGrid builds a regular mesh between start and end with res points on
// each axis. It returns the flattened mesh (y varying fastest) and the
// coordinate vectors of both axes. An axis with one point uses the midpoint
// of its range.
func MakeGrid(start, end [2]float64, res [2]int) (*mat.Dense, [2][]float64) {
	var axes [2][]float64
	for d := 0; d < 2; d++ {
		if res[d] == 1 {
			axes[d] = []float64{(start[d] + end[d]) / 2}
			continue
		}
		spacing := (end[d] - start[d]) / float64(res[d]-1)
		axes[d] = Linrange(start[d], end[d]+spacing*1e-9, spacing)
	}

	nx, ny := len(axes[0]), len(axes[1])
	mesh := mat.NewDense(max(nx*ny, 1), 2, nil)
	c := 0
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			mesh.Set(c, 0, axes[0][i])
			mesh.Set(c, 1, axes[1][j])
			c++
		}
	}
	return trimRows(mesh, c), axes
}

// trimRows guards the zero-resolution case: gonum does not allow empty
// dense matrices, so one zero row is allocated and sliced away here.
func trimRows(m *mat.Dense, n int) *mat.Dense {
	r, _ := m.Dims()
	if n == r {
		return m
	}
	return &mat.Dense{}
}
