package layers

import (
	"errors"
	"math"
	"testing"

	serrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/interp"
	"github.com/conneroisu/strata/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// flatWorld builds a 20×20×20 world whose boundaries sit at the given
// offsets with all control points at zero.
func flatWorld(offsets ...float64) (world.WorldSpec, world.WorldParams) {
	spec := world.NewWorldSpec(-10, 10, -10, 10, 0, 20)
	var params world.WorldParams
	for i, o := range offsets {
		spec.Boundaries = append(spec.Boundaries, world.BoundarySpec{
			Offset:              mat.NewDense(1, 1, []float64{o}),
			CtrlPointResolution: [2]int{2, 2},
		})
		props := make([]float64, world.Count)
		props[world.Density] = float64(i + 1)
		props[world.PWaveVelocity] = 1
		params.RockProperties = append(params.RockProperties, props)
		params.ControlPoints = append(params.ControlPoints, mat.NewDense(2, 2, nil))
	}
	return spec, params
}

func scatterAt(t *testing.T, interps []*interp.Interpolator, spec world.WorldSpec, xy ...float64) *interp.Query {
	t.Helper()
	q, err := interp.NewScatterQuery(interps, spec, mat.NewDense(len(xy)/2, 2, xy))
	require.NoError(t, err)
	return q
}

func TestTransitionsBoundariesAreTimes(t *testing.T) {
	spec, params := flatWorld(0, 1, 2, 3, 4)
	spec.BoundariesAreTimes = true
	for i := range params.RockProperties {
		params.RockProperties[i][world.PWaveVelocity] = float64(1 + i%2)
	}

	interps, err := interp.FromWorldSpec(spec)
	require.NoError(t, err)
	q := scatterAt(t, interps, spec, 0, 0)

	got, err := Transitions(interps, params, q)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1, 5, 8, 16}, mat.Col(nil, 0, got), 1e-9)
}

func TestTransitionsClipping(t *testing.T) {
	// the second boundary lies above the first and the third below the floor
	spec, params := flatWorld(5, 2, 30)
	interps, err := interp.FromWorldSpec(spec)
	require.NoError(t, err)
	q := scatterAt(t, interps, spec, 0, 0, 9, -9)

	got, err := Transitions(interps, params, q)
	require.NoError(t, err)
	for c := 0; c < 2; c++ {
		assert.InDeltaSlice(t, []float64{5, 5, 20}, mat.Col(nil, c, got), 1e-9)
	}
}

func TestTransitionsControlPointsShiftDepth(t *testing.T) {
	spec, params := flatWorld(0, 10)
	params.ControlPoints[1] = mat.NewDense(2, 2, []float64{3, 3, 3, 3})
	interps, err := interp.FromWorldSpec(spec)
	require.NoError(t, err)
	q := scatterAt(t, interps, spec, 1, 1)

	got, err := Transitions(interps, params, q)
	require.NoError(t, err)
	assert.InDelta(t, 13, got.At(1, 0), 1e-9)
}

func TestTransitionsErrors(t *testing.T) {
	spec, params := flatWorld(0, 10)
	interps, err := interp.FromWorldSpec(spec)
	require.NoError(t, err)
	q := scatterAt(t, interps, spec, 0, 0)

	_, err = Transitions(nil, params, q)
	assert.True(t, errors.Is(err, serrors.ErrEmptyWorld))

	short := params.Clone()
	short.ControlPoints = short.ControlPoints[:1]
	_, err = Transitions(interps, short, q)
	assert.True(t, errors.Is(err, serrors.ErrDimensionMismatch))

	missing := params.Clone()
	missing.ControlPoints[1] = nil
	_, err = Transitions(interps, missing, q)
	assert.True(t, errors.Is(err, serrors.ErrDimensionMismatch))

	wrong := params.Clone()
	wrong.ControlPoints[0] = mat.NewDense(3, 3, nil)
	_, err = Transitions(interps, wrong, q)
	assert.True(t, errors.Is(err, serrors.ErrDimensionMismatch))
}

func TestTransitionsWarpedStaysBetweenNeighbours(t *testing.T) {
	spec, params := flatWorld(0, 4, 12)
	spec.Boundaries[1].Class = world.Warped
	params.ControlPoints[1] = mat.NewDense(2, 2, []float64{1, 6, 2, 9})
	interps, err := interp.FromWorldSpec(spec)
	require.NoError(t, err)
	q := scatterAt(t, interps, spec, -8, -8, 0, 0, 8, 3)

	got, err := Transitions(interps, params, q)
	require.NoError(t, err)
	for c := 0; c < 3; c++ {
		col := mat.Col(nil, c, got)
		assert.GreaterOrEqual(t, col[1], col[0])
		assert.LessOrEqual(t, col[1], 20.0)
		assert.False(t, math.IsNaN(col[1]))
	}
}

func TestDilate(t *testing.T) {
	ctrl := mat.NewDense(3, 3, []float64{
		-1, -1, -1,
		-1, 5, -1,
		-1, -1, -2,
	})
	d := dilate(ctrl)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, 5.0, d.At(i, j))
		}
	}

	neg := dilate(mat.NewDense(1, 2, []float64{-3, -4}))
	assert.Equal(t, []float64{0, 0}, neg.RawMatrix().Data)
}

func TestThickness(t *testing.T) {
	transitions := mat.NewDense(3, 2, []float64{
		0, 0,
		4, 6,
		10, 7,
	})
	th := Thickness(transitions)
	r, c := th.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 3, c)
	assert.Equal(t, []float64{4, 6}, mat.Row(nil, 0, th)[:2])
	assert.Equal(t, []float64{6, 1}, mat.Row(nil, 1, th)[:2])
	assert.True(t, math.IsInf(th.At(0, 2), 1))
	assert.True(t, math.IsInf(th.At(1, 2), 1))
}

func TestVoxelise(t *testing.T) {
	tests := []struct {
		name        string
		transitions []float64
		zEdges      []float64
		props       []float64
		want        []float64
	}{
		{
			name:        "boundary inside a cell",
			transitions: []float64{0, 5},
			zEdges:      []float64{0, 4, 8},
			props:       []float64{2, 6},
			want:        []float64{2, 5},
		},
		{
			name:        "boundary on a cell edge",
			transitions: []float64{0, 4},
			zEdges:      []float64{0, 4, 8},
			props:       []float64{2, 6},
			want:        []float64{2, 6},
		},
		{
			name:        "several boundaries in one cell",
			transitions: []float64{0, 1, 2},
			zEdges:      []float64{0, 4},
			props:       []float64{10, 20, 30},
			want:        []float64{22.5},
		},
		{
			name:        "boundaries above the first edge",
			transitions: []float64{50, 50, 150},
			zEdges:      []float64{100, 200},
			props:       []float64{1, 2, 4},
			want:        []float64{3},
		},
		{
			name:        "boundary on the first edge",
			transitions: []float64{0, 100},
			zEdges:      []float64{100, 150, 200},
			props:       []float64{1, 2},
			want:        []float64{2, 2},
		},
		{
			name:        "single layer",
			transitions: []float64{0},
			zEdges:      []float64{0, 1, 2, 3},
			props:       []float64{7},
			want:        []float64{7, 7, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mat.NewDense(len(tt.transitions), 1, tt.transitions)
			got, err := Voxelise(tr, tt.zEdges, tt.props)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, mat.Col(nil, 0, got), 1e-12)
		})
	}
}

func TestVoxeliseErrors(t *testing.T) {
	tr := mat.NewDense(2, 1, []float64{0, 1})
	_, err := Voxelise(tr, []float64{0, 1}, []float64{1})
	assert.True(t, errors.Is(err, serrors.ErrDimensionMismatch))
	_, err = Voxelise(tr, []float64{0}, []float64{1, 2})
	assert.True(t, errors.Is(err, serrors.ErrDimensionMismatch))
}

func TestShrink3D(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	got, err := Shrink3D(values, 2, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{4.5}, got)

	// a 4×2×2 volume holding its x index
	var xs []float64
	for i := 0; i < 4; i++ {
		for k := 0; k < 4; k++ {
			xs = append(xs, float64(i))
		}
	}
	got, err = Shrink3D(xs, 4, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 2.5}, got)

	_, err = Shrink3D(values, 2, 2, 3)
	assert.True(t, errors.Is(err, serrors.ErrDimensionMismatch))
	_, err = Shrink3D(make([]float64, 12), 3, 2, 2)
	assert.Error(t, err)
}

func TestVoxelGrid(t *testing.T) {
	spec, params := flatWorld(0, 10)
	interps, err := interp.FromWorldSpec(spec)
	require.NoError(t, err)
	props, err := world.ExtractProperty(params, world.Density)
	require.NoError(t, err)

	for _, ss := range []int{0, 1} {
		vs := world.VoxelSpec{XResolution: 2, YResolution: 3, ZResolution: 2, Supersample: ss}
		got, err := VoxelGrid(interps, spec, params, vs, props)
		require.NoError(t, err)
		require.Len(t, got, vs.NumVoxels())
		for i, v := range got {
			// z varies fastest: even cells are above the boundary at 10
			want := 1.0
			if i%2 == 1 {
				want = 2
			}
			assert.InDelta(t, want, v, 1e-9, "ss=%d cell %d", ss, i)
		}
	}

	_, err = VoxelGrid(interps, spec, params, world.VoxelSpec{XResolution: 2, YResolution: 2, ZResolution: 2, Supersample: 5}, props)
	assert.Error(t, err)
}

func TestVoxelsLayerFractions(t *testing.T) {
	spec, params := flatWorld(0, 5)
	interps, err := interp.FromWorldSpec(spec)
	require.NoError(t, err)
	q, err := interp.NewGridQuery(interps, spec, 1, 1, 2, interp.NoAA)
	require.NoError(t, err)

	v, err := Voxels(interps, params, q, world.Density)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.5, 2}, mat.Col(nil, 0, v), 1e-9)

	tr, err := Transitions(interps, params, q)
	require.NoError(t, err)
	upper, err := Voxelise(tr, q.EdgeZ, LayerIndicator(0, 2))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0}, mat.Col(nil, 0, upper), 1e-9)
	index, err := Voxelise(tr, q.EdgeZ, LayerIndex(2))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 1}, mat.Col(nil, 0, index), 1e-9)
}

func TestVoxelsBoundariesAboveDepthRange(t *testing.T) {
	spec := world.NewWorldSpec(-10, 10, -10, 10, 100, 200)
	var params world.WorldParams
	for range 2 {
		spec.Boundaries = append(spec.Boundaries, world.BoundarySpec{
			Offset:              mat.NewDense(1, 1, []float64{100}),
			CtrlPointResolution: [2]int{2, 2},
		})
		params.ControlPoints = append(params.ControlPoints, mat.NewDense(2, 2, []float64{-50, -50, -50, -50}))
		params.RockProperties = append(params.RockProperties, make([]float64, world.Count))
	}
	require.NoError(t, world.Validate(spec, params))

	interps, err := interp.FromWorldSpec(spec)
	require.NoError(t, err)
	q, err := interp.NewGridQuery(interps, spec, 2, 2, 4, interp.NoAA)
	require.NoError(t, err)
	tr, err := Transitions(interps, params, q)
	require.NoError(t, err)
	assert.InDelta(t, 50, tr.At(1, 0), 1e-9)

	for layer := 0; layer < 2; layer++ {
		got, err := Voxelise(tr, q.EdgeZ, LayerIndicator(layer, 2))
		require.NoError(t, err)
		for _, v := range got.RawMatrix().Data {
			assert.InDelta(t, float64(layer), v, 1e-12, "layer %d", layer)
		}
	}
}

func TestLayerIndicator(t *testing.T) {
	assert.Equal(t, []float64{0, 1, 0}, LayerIndicator(1, 3))
	assert.Equal(t, []float64{0, 0}, LayerIndicator(4, 2))
	assert.Equal(t, []float64{0, 1, 2}, LayerIndex(3))
}

func TestColumnMajor(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, ColumnMajor(m))
}
