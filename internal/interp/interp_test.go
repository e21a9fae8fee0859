package interp

import (
	"errors"
	"math"
	"testing"

	serrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSqExp2D(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{
		0, 0,
		1, 0,
	})

	k, err := SqExp2D(x, x, [2]float64{1, 1}, false)
	require.NoError(t, err)
	assert.InDelta(t, 1, k.At(0, 0), 1e-12)
	assert.InDelta(t, math.Exp(-0.5), k.At(0, 1), 1e-12)
	assert.InDelta(t, k.At(0, 1), k.At(1, 0), 1e-12)

	noisy, err := SqExp2D(x, x, [2]float64{1, 1}, true)
	require.NoError(t, err)
	assert.InDelta(t, 2+math.Exp(-0.5), noisy.At(0, 0), 1e-12)
	assert.InDelta(t, math.Exp(-0.5), noisy.At(0, 1), 1e-12)

	_, err = SqExp2D(x, mat.NewDense(3, 2, nil), [2]float64{1, 1}, true)
	assert.True(t, errors.Is(err, serrors.ErrDimensionMismatch))
	_, err = SqExp2D(x, mat.NewDense(1, 3, nil), [2]float64{1, 1}, false)
	assert.True(t, errors.Is(err, serrors.ErrDimensionMismatch))
}

func TestAutoLengthScale(t *testing.T) {
	ls := AutoLengthScale(world.Bounds{Min: 0, Max: 10}, world.Bounds{Min: -5, Max: 5}, 3, 6)
	assert.InDelta(t, 5/(3-0.99999), ls[0], 1e-12)
	assert.InDelta(t, 5/(6-0.99999), ls[1], 1e-12)
}

func testSpec(res [2]int, offsets ...float64) world.WorldSpec {
	spec := world.NewWorldSpec(-10, 10, -10, 10, 0, 20)
	for _, o := range offsets {
		spec.Boundaries = append(spec.Boundaries, world.BoundarySpec{
			Offset:              mat.NewDense(1, 1, []float64{o}),
			CtrlPointResolution: res,
		})
	}
	return spec
}

func TestWeightsRowsSumToOne(t *testing.T) {
	spec := testSpec([2]int{4, 3}, 5)
	interps, err := FromWorldSpec(spec)
	require.NoError(t, err)
	require.Len(t, interps, 1)
	assert.Equal(t, 12, interps[0].NumControlPoints())
	assert.Equal(t, 20.0, interps[0].FloorHeight)

	q, err := NewGridQuery(interps, spec, 5, 4, 2, NoAA)
	require.NoError(t, err)
	assert.Equal(t, 20, q.NumPoints())
	assert.Equal(t, 1, q.NumBoundaries())

	w := q.weights[0]
	rows, cols := w.Dims()
	require.Equal(t, 20, rows)
	require.Equal(t, 12, cols)
	for r := 0; r < rows; r++ {
		assert.InDelta(t, 1, mat.Sum(w.RowView(r)), 1e-9)
	}
}

func TestKernelInterpolateConstant(t *testing.T) {
	spec := testSpec([2]int{3, 3}, 0)
	interps, err := FromWorldSpec(spec)
	require.NoError(t, err)

	points := mat.NewDense(3, 2, []float64{
		0, 0,
		-7, 3,
		9.5, -9.5,
	})
	q, err := NewScatterQuery(interps, spec, points)
	require.NoError(t, err)

	ctrl := mat.NewDense(3, 3, []float64{
		4, 4, 4,
		4, 4, 4,
		4, 4, 4,
	})
	depth, err := KernelInterpolate(q, 0, ctrl)
	require.NoError(t, err)
	for _, d := range depth {
		assert.InDelta(t, 4, d, 1e-9)
	}

	_, err = KernelInterpolate(q, 0, mat.NewDense(2, 2, nil))
	assert.True(t, errors.Is(err, serrors.ErrDimensionMismatch))
	_, err = KernelInterpolate(q, 3, ctrl)
	assert.Error(t, err)
}

func TestKernelInterpolateSingleControlPoint(t *testing.T) {
	spec := testSpec([2]int{1, 1}, 0)
	interps, err := FromWorldSpec(spec)
	require.NoError(t, err)

	q, err := NewScatterQuery(interps, spec, mat.NewDense(1, 2, []float64{3, -2}))
	require.NoError(t, err)
	depth, err := KernelInterpolate(q, 0, mat.NewDense(1, 1, []float64{7}))
	require.NoError(t, err)
	assert.InDelta(t, 7, depth[0], 1e-9)
}

func TestLinearInterpolate(t *testing.T) {
	spec := world.NewWorldSpec(0, 2, 0, 2, 0, 100)
	spec.Boundaries = []world.BoundarySpec{{
		Offset: mat.NewDense(2, 2, []float64{
			0, 10,
			20, 30,
		}),
		CtrlPointResolution: [2]int{2, 2},
	}}
	interps, err := FromWorldSpec(spec)
	require.NoError(t, err)

	points := mat.NewDense(4, 2, []float64{
		0, 0, // first pixel corner
		0.5, 0, // halfway between rows in x
		0, 0.5, // halfway between columns in y
		2, 2, // clamped to the far corner
	})
	q, err := NewScatterQuery(interps, spec, points)
	require.NoError(t, err)

	got := LinearInterpolate(q, interps[0])
	assert.InDeltaSlice(t, []float64{0, 10, 5, 30}, got, 1e-12)
}

func TestScatterQueryRejectsNonFinitePoints(t *testing.T) {
	spec := world.NewWorldSpec(0, 10, 0, 10, 0, 100)
	spec.Boundaries = []world.BoundarySpec{{
		Offset:              mat.NewDense(1, 1, []float64{10}),
		CtrlPointResolution: [2]int{2, 2},
	}}
	interps, err := FromWorldSpec(spec)
	require.NoError(t, err)

	for _, p := range [][]float64{
		{math.NaN(), 5},
		{5, math.Inf(1)},
		{math.Inf(-1), math.NaN()},
	} {
		_, err := NewScatterQuery(interps, spec, mat.NewDense(1, 2, p))
		assert.Error(t, err, "point %v", p)
	}
}

func TestNewInterpolatorErrors(t *testing.T) {
	b := world.Bounds{Min: 0, Max: 1}
	_, err := NewInterpolator(b, b, b, world.BoundarySpec{
		Offset:              mat.NewDense(1, 1, nil),
		CtrlPointResolution: [2]int{0, 2},
	})
	assert.Error(t, err)

	_, err = NewInterpolator(b, b, b, world.BoundarySpec{CtrlPointResolution: [2]int{2, 2}})
	assert.Error(t, err)
}

func TestGridQuerySampling(t *testing.T) {
	spec := testSpec([2]int{2, 2}, 1)
	interps, err := FromWorldSpec(spec)
	require.NoError(t, err)

	q, err := NewGridQuery(interps, spec, 3, 2, 5, SuperSample2X)
	require.NoError(t, err)
	assert.Equal(t, 6, q.ResX)
	assert.Equal(t, 4, q.ResY)
	assert.Equal(t, 10, q.ResZ)
	assert.Equal(t, 24, q.NumPoints())
	assert.Len(t, q.EdgeZ, 11)
	assert.Equal(t, 0.0, q.EdgeZ[0])
	assert.Equal(t, 20.0, q.EdgeZ[10])

	_, err = NewGridQuery(interps, spec, 0, 2, 5, NoAA)
	assert.Error(t, err)

	_, err = NewScatterQuery(interps, spec, mat.NewDense(2, 3, nil))
	assert.Error(t, err)
}

func TestSamplingForSupersample(t *testing.T) {
	for level, want := range []SamplingStrategy{NoAA, SuperSample2X, SuperSample4X} {
		got, err := SamplingForSupersample(level)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, 1<<level, got.Factor())
		assert.Equal(t, level, got.Halvings())
	}
	_, err := SamplingForSupersample(3)
	assert.Error(t, err)
}
