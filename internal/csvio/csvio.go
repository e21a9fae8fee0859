// Package csvio reads and writes the plain numeric CSV grids used by world
// description files.
//
// Everything after a '#' on a line is a comment. Cells are trimmed, empty
// cells and blank lines are dropped, and a row shorter than the first row
// is an error.
package csvio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	serrors "github.com/conneroisu/strata/internal/errors"
	"gonum.org/v1/gonum/mat"
)

// Separator is written between cells.
const Separator = ", "

// Parse splits r into rows of non-empty trimmed cells.
func Parse(r io.Reader) ([][]string, error) {
	var rows [][]string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		var row []string
		for _, cell := range strings.Split(line, ",") {
			if cell = strings.TrimSpace(cell); cell != "" {
				row = append(row, cell)
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

func parseFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func checkRectangular(path string, rows [][]string) (int, int, error) {
	if len(rows) == 0 {
		return 0, 0, serrors.Mismatch("%s: no data", path)
	}
	cols := len(rows[0])
	for i, row := range rows {
		if len(row) != cols {
			return 0, 0, serrors.Mismatch("%s: row %d has %d columns, expected %d", path, i+1, len(row), cols)
		}
	}
	return len(rows), cols, nil
}

// ReadMatrix reads a rectangular grid of floats.
func ReadMatrix(path string) (*mat.Dense, error) {
	rows, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	r, c, err := checkRectangular(path, rows)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(r, c, nil)
	for i, row := range rows {
		for j, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %d: %w", path, i+1, j+1, err)
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// ReadIntMatrix reads a rectangular grid of integers.
func ReadIntMatrix(path string) ([][]int, error) {
	rows, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	if _, _, err := checkRectangular(path, rows); err != nil {
		return nil, err
	}
	out := make([][]int, len(rows))
	for i, row := range rows {
		out[i] = make([]int, len(row))
		for j, cell := range row {
			v, err := strconv.Atoi(cell)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %d: %w", path, i+1, j+1, err)
			}
			out[i][j] = v
		}
	}
	return out, nil
}

// ReadVector reads every value in the file in row order. Both a single row
// and a single column are accepted.
func ReadVector(path string) ([]float64, error) {
	rows, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	var out []float64
	for i, row := range rows {
		for j, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %d: %w", path, i+1, j+1, err)
			}
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, serrors.Mismatch("%s: no data", path)
	}
	return out, nil
}

// FormatFloat renders v with the fewest digits that read back exactly.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatRow joins vals with sep.
func FormatRow(vals []float64, sep string) string {
	cells := make([]string, len(vals))
	for i, v := range vals {
		cells[i] = FormatFloat(v)
	}
	return strings.Join(cells, sep)
}

func writeLines(path string, lines func(w *bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := lines(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteMatrix writes m one row per line.
func WriteMatrix(path string, m mat.Matrix) error {
	r, _ := m.Dims()
	return writeLines(path, func(w *bufio.Writer) error {
		for i := 0; i < r; i++ {
			if _, err := fmt.Fprintln(w, FormatRow(mat.Row(nil, i, m), Separator)); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteVector writes v as a single column.
func WriteVector(path string, v []float64) error {
	return writeLines(path, func(w *bufio.Writer) error {
		for _, x := range v {
			if _, err := fmt.Fprintln(w, FormatFloat(x)); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteIntMatrix writes m one row per line.
func WriteIntMatrix(path string, m [][]int) error {
	return writeLines(path, func(w *bufio.Writer) error {
		for _, row := range m {
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = strconv.Itoa(v)
			}
			if _, err := fmt.Fprintln(w, strings.Join(cells, Separator)); err != nil {
				return err
			}
		}
		return nil
	})
}
