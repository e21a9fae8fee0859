package csvio

import "gonum.org/v1/gonum/mat"

// Grids are stored on disk as a map: rows run north to south and columns
// west to east. In memory rows index x and columns index y with y growing
// northwards. Flip converts the on-disk layout to the in-memory one by
// transposing and then reversing each row. Unflip is its inverse.

// Flip transposes m and reverses every row of the result.
func Flip[T any](m [][]T) [][]T {
	if len(m) == 0 {
		return nil
	}
	rows, cols := len(m), len(m[0])
	out := make([][]T, cols)
	for i := range out {
		out[i] = make([]T, rows)
		for j := 0; j < rows; j++ {
			out[i][rows-1-j] = m[j][i]
		}
	}
	return out
}

// Unflip reverses every row of m and transposes the result.
func Unflip[T any](m [][]T) [][]T {
	if len(m) == 0 {
		return nil
	}
	rows, cols := len(m), len(m[0])
	out := make([][]T, cols)
	for i := range out {
		out[i] = make([]T, rows)
		for j := 0; j < rows; j++ {
			out[i][j] = m[j][cols-1-i]
		}
	}
	return out
}

// FlipDense is Flip for a dense matrix.
func FlipDense(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(c, r, nil)
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			out.Set(i, r-1-j, m.At(j, i))
		}
	}
	return out
}

// UnflipDense is Unflip for a dense matrix.
func UnflipDense(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(c, r, nil)
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			out.Set(i, j, m.At(j, c-1-i))
		}
	}
	return out
}
