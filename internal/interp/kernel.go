package interp

import (
	"math"

	serrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/world"
	"gonum.org/v1/gonum/mat"
)

// SqExp2D computes the squared-exponential covariance between two sets of
// 2-D points (one point per row). When noisy is set each diagonal entry is
// increased by the sum of its column, which requires x1 and x2 to hold the
// same number of points.
func SqExp2D(x1, x2 mat.Matrix, lengthScale [2]float64, noisy bool) (*mat.Dense, error) {
	n1, c1 := x1.Dims()
	n2, c2 := x2.Dims()
	if c1 != 2 || c2 != 2 {
		return nil, serrors.Mismatch("kernel inputs must be N×2, got N×%d and N×%d", c1, c2)
	}
	if noisy && n1 != n2 {
		return nil, serrors.Mismatch("noisy kernel needs square input, got %d and %d points", n1, n2)
	}

	wx := 1 / (lengthScale[0] * lengthScale[0])
	wy := 1 / (lengthScale[1] * lengthScale[1])

	k := mat.NewDense(n1, n2, nil)
	for i := 0; i < n1; i++ {
		ax, ay := x1.At(i, 0), x1.At(i, 1)
		for j := 0; j < n2; j++ {
			dx := ax - x2.At(j, 0)
			dy := ay - x2.At(j, 1)
			d := math.Max(0, wx*dx*dx+wy*dy*dy)
			k.Set(i, j, math.Exp(-0.5*d))
		}
	}

	if noisy {
		addColumnSumsToDiagonal(k)
	}
	return k, nil
}

func addColumnSumsToDiagonal(k *mat.Dense) {
	n, _ := k.Dims()
	sums := make([]float64, n)
	for j := 0; j < n; j++ {
		sums[j] = mat.Sum(k.ColView(j))
	}
	for j := 0; j < n; j++ {
		k.Set(j, j, k.At(j, j)+sums[j])
	}
}

// AutoLengthScale picks kernel length scales from the control point spacing.
func AutoLengthScale(x, y world.Bounds, resX, resY int) [2]float64 {
	return [2]float64{
		0.5 * x.Span() / (float64(resX) - 0.99999),
		0.5 * y.Span() / (float64(resY) - 0.99999),
	}
}
