package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/conneroisu/strata/internal/config"
	"github.com/conneroisu/strata/internal/world"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// voxelFlags are the grid flags shared by voxelise, analyse and watch. Flags
// left unset fall back to the configured voxel defaults.
type voxelFlags struct {
	fs          *pflag.FlagSet
	x, y, z     int
	supersample int
	output      string
}

func addVoxelFlags(cmd *cobra.Command) *voxelFlags {
	f := &voxelFlags{fs: cmd.Flags()}
	f.fs.IntVarP(&f.x, "x-resolution", "x", 0, "voxels along x (default from config)")
	f.fs.IntVarP(&f.y, "y-resolution", "y", 0, "voxels along y (default from config)")
	f.fs.IntVarP(&f.z, "z-resolution", "z", 0, "voxels along z (default from config)")
	f.fs.IntVar(&f.supersample, "supersample", 0, fmt.Sprintf("supersampling level 0..%d (default from config)", config.MaxSupersample))
	f.fs.StringVarP(&f.output, "output", "o", "", "output .npz file (default from config)")
	return f
}

// spec merges the flags that were set over the configured defaults.
func (f *voxelFlags) spec(cfg *config.Config) (world.VoxelSpec, error) {
	vs := world.VoxelSpec{
		XResolution: cfg.Voxel.XResolution,
		YResolution: cfg.Voxel.YResolution,
		ZResolution: cfg.Voxel.ZResolution,
		Supersample: cfg.Voxel.Supersample,
	}
	if f.fs.Changed("x-resolution") {
		vs.XResolution = f.x
	}
	if f.fs.Changed("y-resolution") {
		vs.YResolution = f.y
	}
	if f.fs.Changed("z-resolution") {
		vs.ZResolution = f.z
	}
	if f.fs.Changed("supersample") {
		vs.Supersample = f.supersample
	}
	if vs.XResolution < 1 || vs.YResolution < 1 || vs.ZResolution < 1 {
		return vs, fmt.Errorf("resolution must be positive, got %dx%dx%d", vs.XResolution, vs.YResolution, vs.ZResolution)
	}
	if vs.Supersample < 0 || vs.Supersample > config.MaxSupersample {
		return vs, fmt.Errorf("supersample must be between 0 and %d, got %d", config.MaxSupersample, vs.Supersample)
	}
	return vs, nil
}

func (f *voxelFlags) outputPath(cfg *config.Config) string {
	if f.output != "" {
		return f.output
	}
	return cfg.Output.Path()
}

// validateFormat rejects output formats other than the supported ones.
func validateFormat(format string, supported ...string) error {
	for _, s := range supported {
		if format == s {
			return nil
		}
	}
	return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(supported, ", "))
}

// parsePoint parses an "x,y" location.
func parsePoint(s string) ([2]float64, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return [2]float64{}, fmt.Errorf("invalid point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return [2]float64{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return [2]float64{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return [2]float64{}, fmt.Errorf("invalid point %q: coordinates must be finite", s)
	}
	return [2]float64{x, y}, nil
}
