package input

import (
	"fmt"

	"github.com/conneroisu/strata/internal/csvio"
	serrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/world"
)

// ParseSpec reads the world geometry.
func ParseSpec(f *File) (world.WorldSpec, error) {
	x1, x2, err := f.pair(KeyXRange)
	if err != nil {
		return world.WorldSpec{}, err
	}
	y1, y2, err := f.pair(KeyYRange)
	if err != nil {
		return world.WorldSpec{}, err
	}
	z1, z2, err := f.pair(KeyDepthRange)
	if err != nil {
		return world.WorldSpec{}, err
	}
	spec := world.NewWorldSpec(x1, x2, y1, y2, z1, z2)
	spec.BoundariesAreTimes = f.Bool(KeyUseTimes)

	offsets := f.Files(KeyOffsets)
	if spec.BoundariesAreTimes {
		offsets = f.Files(KeyTimes)
	}
	masks := f.Files(KeyCtrlPointMasks)
	if len(masks) != len(offsets) {
		return world.WorldSpec{}, serrors.Mismatch("%d boundaries but %d control point masks", len(offsets), len(masks))
	}
	classes, err := parseClasses(f, len(offsets))
	if err != nil {
		return world.WorldSpec{}, err
	}

	for i := range offsets {
		mask, err := csvio.ReadIntMatrix(masks[i])
		if err != nil {
			return world.WorldSpec{}, fmt.Errorf("boundary %d mask: %w", i+1, err)
		}
		mask = csvio.Flip(mask)
		offset, err := csvio.ReadMatrix(offsets[i])
		if err != nil {
			return world.WorldSpec{}, fmt.Errorf("boundary %d offset: %w", i+1, err)
		}
		spec.Boundaries = append(spec.Boundaries, world.BoundarySpec{
			Offset:              csvio.FlipDense(offset),
			CtrlPointResolution: [2]int{len(mask), len(mask[0])},
			Class:               classes[i],
		})
	}
	return spec, nil
}

// parseClasses reads boundaries.types. A missing list makes every boundary
// normal.
func parseClasses(f *File, n int) ([]world.BoundaryClass, error) {
	names := f.Strings(KeyTypes)
	out := make([]world.BoundaryClass, n)
	if len(names) == 0 {
		return out, nil
	}
	if len(names) != n {
		return nil, serrors.Mismatch("%d boundaries but %d boundary types", n, len(names))
	}
	for i, name := range names {
		c, err := world.ParseBoundaryClass(name)
		if err != nil {
			return nil, fmt.Errorf("boundary %d: %w", i+1, err)
		}
		out[i] = c
	}
	return out, nil
}

// ParseSimulationParams reads the true world parameters used to simulate
// data.
func ParseSimulationParams(f *File) (world.WorldParams, error) {
	return readParams(f.Files(KeySimCtrlPoints), f.Files(KeySimLayerProperties))
}

func readParams(ctrlFiles, propFiles []string) (world.WorldParams, error) {
	if len(ctrlFiles) != len(propFiles) {
		return world.WorldParams{}, serrors.Mismatch("%d control point files but %d layer property files", len(ctrlFiles), len(propFiles))
	}
	var params world.WorldParams
	for i := range ctrlFiles {
		ctrl, err := csvio.ReadMatrix(ctrlFiles[i])
		if err != nil {
			return world.WorldParams{}, fmt.Errorf("layer %d control points: %w", i+1, err)
		}
		props, err := csvio.ReadVector(propFiles[i])
		if err != nil {
			return world.WorldParams{}, fmt.Errorf("layer %d properties: %w", i+1, err)
		}
		params.ControlPoints = append(params.ControlPoints, csvio.FlipDense(ctrl))
		params.RockProperties = append(params.RockProperties, props)
	}
	return params, nil
}

// ParseInitStates reads the initial chain states. Files are listed state by
// state, one control point and one property file per boundary of spec.
// Leftover files are reported as warnings and ignored.
func ParseInitStates(f *File, spec world.WorldSpec) ([]world.WorldParams, error) {
	nb := len(spec.Boundaries)
	if nb == 0 {
		return nil, serrors.ErrEmptyWorld
	}
	ctrl := f.Files(KeyInitCtrlPoints)
	props := f.Files(KeyInitLayerProps)
	count := min(len(ctrl), len(props)) / nb
	if count*nb != len(ctrl) {
		f.Warnings.Warnf(KeyInitCtrlPoints, 0, "%d files is not a multiple of %d boundaries", len(ctrl), nb)
	}
	if count*nb != len(props) {
		f.Warnings.Warnf(KeyInitLayerProps, 0, "%d files is not a multiple of %d boundaries", len(props), nb)
	}

	states := make([]world.WorldParams, 0, count)
	for s := 0; s < count; s++ {
		p, err := readParams(ctrl[s*nb:(s+1)*nb], props[s*nb:(s+1)*nb])
		if err != nil {
			return nil, fmt.Errorf("initial state %d: %w", s+1, err)
		}
		states = append(states, p)
	}
	return states, nil
}

func boolGrid(m [][]int) [][]bool {
	out := make([][]bool, len(m))
	for i, row := range m {
		out[i] = make([]bool, len(row))
		for j, v := range row {
			out[i][j] = v != 0
		}
	}
	return out
}

func intGrid(m [][]bool) [][]int {
	out := make([][]int, len(m))
	for i, row := range m {
		out[i] = make([]int, len(row))
		for j, v := range row {
			if v {
				out[i][j] = 1
			}
		}
	}
	return out
}
