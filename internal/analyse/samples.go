// Package analyse turns world parameters into voxel volumes and averages
// them over sets of posterior samples.
package analyse

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/conneroisu/strata/internal/csvio"
	serrors "github.com/conneroisu/strata/internal/errors"
)

// bookkeepingColumns trail θ on every sample line.
const bookkeepingColumns = 5

// Sample is one recorded chain state.
type Sample struct {
	Theta    []float64
	Energy   float64
	Sigma    float64
	Beta     float64
	Accepted bool
	SwapType int
}

// ParseSampleLine parses one comma separated sample: the values of θ
// followed by energy, sigma, beta, accepted and swap type.
func ParseSampleLine(line string) (Sample, error) {
	rows, err := csvio.Parse(strings.NewReader(line))
	if err != nil {
		return Sample{}, err
	}
	if len(rows) != 1 {
		return Sample{}, serrors.Mismatch("want one sample, got %d lines", len(rows))
	}
	return parseFields(rows[0])
}

func parseFields(cells []string) (Sample, error) {
	if len(cells) <= bookkeepingColumns {
		return Sample{}, serrors.Mismatch("sample has %d columns, need more than %d", len(cells), bookkeepingColumns)
	}
	vals := make([]float64, len(cells))
	for i, c := range cells {
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return Sample{}, fmt.Errorf("column %d: %w", i+1, err)
		}
		vals[i] = v
	}
	n := len(vals) - bookkeepingColumns
	tail := vals[n:]
	return Sample{
		Theta:    vals[:n:n],
		Energy:   tail[0],
		Sigma:    tail[1],
		Beta:     tail[2],
		Accepted: tail[3] != 0,
		SwapType: int(tail[4]),
	}, nil
}

// ReadSamples parses every sample in r. All samples must have the same
// length.
func ReadSamples(r io.Reader) ([]Sample, error) {
	rows, err := csvio.Parse(r)
	if err != nil {
		return nil, err
	}
	out := make([]Sample, 0, len(rows))
	for i, row := range rows {
		s, err := parseFields(row)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i+1, err)
		}
		if len(out) > 0 && len(s.Theta) != len(out[0].Theta) {
			return nil, serrors.Mismatch("sample %d has %d parameters, sample 1 has %d", i+1, len(s.Theta), len(out[0].Theta))
		}
		out = append(out, s)
	}
	return out, nil
}

// ReadSampleFile parses the samples stored at path.
func ReadSampleFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, err := ReadSamples(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}
