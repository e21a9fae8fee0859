package layers

import (
	"fmt"

	serrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/interp"
	"github.com/conneroisu/strata/internal/world"
	"gonum.org/v1/gonum/mat"
)

// Voxelise converts transitions into an nCells×nQuery matrix of property
// values, one column per query point and one row per cell between
// consecutive zEdges. A cell crossed by boundaries takes the thickness
// weighted mean of the layers inside it.
func Voxelise(transitions mat.Matrix, zEdges []float64, props []float64) (*mat.Dense, error) {
	nTransitions, nQuery := transitions.Dims()
	if len(props) != nTransitions {
		return nil, serrors.Mismatch("%d property values for %d layers", len(props), nTransitions)
	}
	nCells := len(zEdges) - 1
	if nCells < 1 {
		return nil, serrors.Mismatch("need at least two z edges, got %d", len(zEdges))
	}

	final := nTransitions - 1
	out := mat.NewDense(nCells, nQuery, nil)
	for i := 0; i < nQuery; i++ {
		layer := 0
		next := 0.0
		if layer < final {
			next = transitions.At(layer+1, i)
		}
		// layers ending above the grid contribute nothing
		for layer < final && next <= zEdges[0] {
			layer++
			if layer < final {
				next = transitions.At(layer+1, i)
			}
		}

		for z := 0; z < nCells; z++ {
			top := zEdges[z]
			bottom := zEdges[z+1]

			if layer == final || bottom < next {
				out.Set(z, i, props[layer])
				continue
			}

			total := 0.0
			last := top
			for next <= bottom {
				total += props[layer] * (next - last)
				layer++
				last = next
				if layer == final {
					break
				}
				next = transitions.At(layer+1, i)
			}
			total += props[layer] * (bottom - last)
			out.Set(z, i, total/(bottom-top))
		}
	}
	return out, nil
}

// Voxels computes the transitions for params and voxelises prop over the
// z edges of a grid query.
func Voxels(interps []*interp.Interpolator, params world.WorldParams, q *interp.Query, prop world.RockProperty) (*mat.Dense, error) {
	transitions, err := Transitions(interps, params, q)
	if err != nil {
		return nil, err
	}
	props, err := world.ExtractProperty(params, prop)
	if err != nil {
		return nil, err
	}
	return Voxelise(transitions, q.EdgeZ, props)
}

// LayerIndicator returns a property vector that is one for layer and zero
// elsewhere. Voxelising it gives the fraction of each cell inside layer.
func LayerIndicator(layer, nLayers int) []float64 {
	out := make([]float64, nLayers)
	if layer >= 0 && layer < nLayers {
		out[layer] = 1
	}
	return out
}

// LayerIndex returns 0, 1, ... nLayers-1. Voxelising it gives the mean layer
// number of each cell.
func LayerIndex(nLayers int) []float64 {
	out := make([]float64, nLayers)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// ColumnMajor flattens a voxel matrix (cells × columns) into a vector with
// the cells of each column contiguous. For a grid query this is x, y, z
// order with z varying fastest.
func ColumnMajor(voxels mat.Matrix) []float64 {
	nCells, nCols := voxels.Dims()
	out := make([]float64, 0, nCells*nCols)
	for c := 0; c < nCols; c++ {
		for z := 0; z < nCells; z++ {
			out = append(out, voxels.At(z, c))
		}
	}
	return out
}

// Shrink3D halves a flattened nx×ny×nz volume (z fastest) along every axis
// by averaging each 2×2×2 block.
func Shrink3D(values []float64, nx, ny, nz int) ([]float64, error) {
	if len(values) != nx*ny*nz {
		return nil, serrors.Mismatch("%d values for a %dx%dx%d volume", len(values), nx, ny, nz)
	}
	if nx%2 != 0 || ny%2 != 0 || nz%2 != 0 {
		return nil, fmt.Errorf("cannot halve a %dx%dx%d volume: dimensions must be even", nx, ny, nz)
	}

	at := func(i, j, k int) float64 {
		return values[(i*ny+j)*nz+k]
	}

	out := make([]float64, 0, (nx/2)*(ny/2)*(nz/2))
	for i := 0; i < nx; i += 2 {
		for j := 0; j < ny; j += 2 {
			for k := 0; k < nz; k += 2 {
				sum := at(i, j, k) + at(i+1, j, k) + at(i, j+1, k) + at(i+1, j+1, k) +
					at(i, j, k+1) + at(i+1, j, k+1) + at(i, j+1, k+1) + at(i+1, j+1, k+1)
				out = append(out, sum/8)
			}
		}
	}
	return out, nil
}

// VoxelGrid voxelises props over the grid described by vs. With
// supersampling the world is evaluated at the higher resolution and
// averaged back down. The result is flattened x, y, z with z fastest.
func VoxelGrid(interps []*interp.Interpolator, spec world.WorldSpec, params world.WorldParams, vs world.VoxelSpec, props []float64) ([]float64, error) {
	q, err := GridQuery(interps, spec, vs)
	if err != nil {
		return nil, err
	}
	transitions, err := Transitions(interps, params, q)
	if err != nil {
		return nil, err
	}
	return VoxelGridFromTransitions(transitions, q, props)
}

// GridQuery builds the query VoxelGrid evaluates.
func GridQuery(interps []*interp.Interpolator, spec world.WorldSpec, vs world.VoxelSpec) (*interp.Query, error) {
	sampling, err := interp.SamplingForSupersample(vs.Supersample)
	if err != nil {
		return nil, err
	}
	return interp.NewGridQuery(interps, spec, vs.XResolution, vs.YResolution, vs.ZResolution, sampling)
}

// VoxelGridFromTransitions voxelises props for precomputed transitions of a
// grid query and reduces any supersampling.
func VoxelGridFromTransitions(transitions mat.Matrix, q *interp.Query, props []float64) ([]float64, error) {
	voxels, err := Voxelise(transitions, q.EdgeZ, props)
	if err != nil {
		return nil, err
	}
	flat := ColumnMajor(voxels)
	nx, ny, nz := q.ResX, q.ResY, q.ResZ
	for h := 0; h < q.Sampling.Halvings(); h++ {
		flat, err = Shrink3D(flat, nx, ny, nz)
		if err != nil {
			return nil, err
		}
		nx, ny, nz = nx/2, ny/2, nz/2
	}
	return flat, nil
}
