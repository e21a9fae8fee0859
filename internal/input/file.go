// Package input reads and writes world description files.
//
// A world file is YAML with one section per concern:
//
//	world:
//	  xRange: [0, 1000]
//	  yRange: 0 1000
//	  depthRange: [0, 500]
//	boundaries:
//	  offsets: offset1.csv offset2.csv
//	  types: [normal, warped]
//	  ...
//
// Numeric pairs and file lists may be written either as YAML lists or as
// whitespace separated strings. Relative file names are resolved against
// the directory holding the world file. Grids stored in CSV files are
// flipped into the in-memory layout on read (see csvio.Flip).
package input

import (
	"fmt"
	"path/filepath"
	"strconv"

	serrors "github.com/conneroisu/strata/internal/errors"
	"github.com/spf13/viper"
)

// Keys understood in world files.
const (
	KeyXRange             = "world.xRange"
	KeyYRange             = "world.yRange"
	KeyDepthRange         = "world.depthRange"
	KeyOffsets            = "boundaries.offsets"
	KeyTimes              = "boundaries.times"
	KeyUseTimes           = "boundaries.useTimes"
	KeyTypes              = "boundaries.types"
	KeyCtrlPointMasks     = "boundaries.ctrlPointMasks"
	KeyCtrlPointMins      = "boundaries.ctrlPointMins"
	KeyCtrlPointMaxs      = "boundaries.ctrlPointMaxs"
	KeyCoupledSDs         = "boundaries.coupledSDs"
	KeyUncoupledSDs       = "boundaries.uncoupledSDs"
	KeySimCtrlPoints      = "simulation.ctrlPoints"
	KeySimLayerProperties = "simulation.layerProperties"
	KeyRockMeans          = "rocks.means"
	KeyRockMins           = "rocks.mins"
	KeyRockMaxs           = "rocks.maxs"
	KeyRockCovariances    = "rocks.covariances"
	KeyRockMasks          = "rocks.masks"
	KeyIgnoreAniso        = "mtaniso.ignoreAniso"
	KeyInitCtrlPoints     = "initialisation.ctrlPoints"
	KeyInitLayerProps     = "initialisation.layerProperties"
)

// File is a loaded world description.
type File struct {
	Path string
	// Warnings collects non-fatal problems found while parsing.
	Warnings *serrors.ErrorCollector

	dir string
	v   *viper.Viper
}

// Load reads the world file at path.
func Load(path string) (*File, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read world file %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &File{
		Path:     path,
		Warnings: serrors.NewErrorCollector(),
		dir:      filepath.Dir(abs),
		v:        v,
	}, nil
}

// IsSet reports whether key appears in the file.
func (f *File) IsSet(key string) bool {
	return f.v.IsSet(key)
}

// Bool returns a boolean setting, false when absent.
func (f *File) Bool(key string) bool {
	return f.v.GetBool(key)
}

// Strings returns a list setting written as a YAML list or a whitespace
// separated string.
func (f *File) Strings(key string) []string {
	return f.v.GetStringSlice(key)
}

// Files returns a list of file names resolved against the world file's
// directory.
func (f *File) Files(key string) []string {
	names := f.Strings(key)
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = f.Resolve(n)
	}
	return out
}

// Resolve makes name relative to the world file's directory unless it is
// already absolute.
func (f *File) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(f.dir, name)
}

// Floats returns a numeric list setting. A single scalar is a list of one.
func (f *File) Floats(key string) ([]float64, error) {
	if !f.v.IsSet(key) {
		return nil, fmt.Errorf("%s: missing", key)
	}
	raw := f.Strings(key)
	if len(raw) == 0 {
		v, err := strconv.ParseFloat(f.v.GetString(key), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return []float64{v}, nil
	}
	out := make([]float64, len(raw))
	for i, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", key, i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// fileKeys lists every setting that names data files.
var fileKeys = []string{
	KeyOffsets, KeyTimes, KeyCtrlPointMasks, KeyCtrlPointMins, KeyCtrlPointMaxs,
	KeySimCtrlPoints, KeySimLayerProperties,
	KeyRockMeans, KeyRockMins, KeyRockMaxs, KeyRockCovariances, KeyRockMasks,
	KeyInitCtrlPoints, KeyInitLayerProps,
}

// ReferencedFiles returns the world file followed by every distinct data
// file it names, in order of first mention.
func (f *File) ReferencedFiles() []string {
	abs, err := filepath.Abs(f.Path)
	if err != nil {
		abs = f.Path
	}
	out := []string{abs}
	seen := map[string]bool{abs: true}
	for _, key := range fileKeys {
		for _, name := range f.Files(key) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// pair reads a two element numeric setting.
func (f *File) pair(key string) (float64, float64, error) {
	v, err := f.Floats(key)
	if err != nil {
		return 0, 0, err
	}
	if len(v) != 2 {
		return 0, 0, serrors.Mismatch("%s: want 2 values, got %d", key, len(v))
	}
	return v[0], v[1], nil
}
