package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/conneroisu/strata/internal/analyse"
	"github.com/conneroisu/strata/internal/layers"
	"github.com/conneroisu/strata/internal/npz"
	"github.com/conneroisu/strata/internal/store"
	"github.com/conneroisu/strata/internal/world"
	"github.com/spf13/cobra"
)

var (
	voxeliseProperties []string
	voxeliseVoxelFlags *voxelFlags
)

var voxeliseCmd = &cobra.Command{
	Use:   "voxelise <world.yml>",
	Short: "Voxelise the simulation parameters of a world",
	Long: `Evaluate the simulation parameters of a world file on a regular voxel grid
and write the volumes to a NumPy .npz archive. The archive holds every
stored rock property (or only those selected with --property), the mean
layer index and the fraction of each voxel inside every layer.

Every written volume is recorded in the run history unless the store is
disabled in the configuration.

Examples:
  strata voxelise world.yml                          # Use configured resolution
  strata voxelise world.yml -x 64 -y 64 -z 40        # Override the resolution
  strata voxelise world.yml --property Density -o d.npz
  strata voxelise world.yml --supersample 2          # Smoother layer edges`,
	Args: cobra.ExactArgs(1),
	RunE: runVoxelise,
}

func init() {
	rootCmd.AddCommand(voxeliseCmd)

	voxeliseVoxelFlags = addVoxelFlags(voxeliseCmd)
	voxeliseCmd.Flags().StringSliceVar(&voxeliseProperties, "property", nil, "rock properties to write (default all stored)")
}

func runVoxelise(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	vs, err := voxeliseVoxelFlags.spec(a.cfg)
	if err != nil {
		return err
	}
	props, err := parseProperties(voxeliseProperties)
	if err != nil {
		return err
	}
	out, err := a.voxelise(cmd.Context(), args[0], vs, props, voxeliseVoxelFlags.outputPath(a.cfg))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
	return nil
}

func parseProperties(names []string) ([]world.RockProperty, error) {
	out := make([]world.RockProperty, 0, len(names))
	for _, n := range names {
		p, err := world.ParseRockProperty(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// voxelise writes the volumes of the world at path to output and records
// the run. An empty props selects every stored property.
func (a *app) voxelise(ctx context.Context, path string, vs world.VoxelSpec, props []world.RockProperty, output string) (string, error) {
	op := a.start("voxelise")
	w, err := a.loadWorld(ctx, path)
	if err != nil {
		op.EndWithError(ctx, err)
		return "", err
	}
	params, err := a.simulationParams(w)
	if err != nil {
		op.EndWithError(ctx, err)
		return "", err
	}
	a.logWarnings(ctx, w.file)

	q, err := layers.GridQuery(w.interps, w.spec, vs)
	if err != nil {
		op.EndWithError(ctx, err)
		return "", err
	}
	vols, err := analyse.WorldVolumes(w.interps, params, q)
	if err != nil {
		op.EndWithError(ctx, err)
		return "", err
	}
	dump := vols.Dump(w.spec, vs)
	if len(props) > 0 {
		if dump.Properties, err = selectVolumes(vols, w, params, vs, props); err != nil {
			op.EndWithError(ctx, err)
			return "", err
		}
	}

	if err := writeDump(output, dump); err != nil {
		op.EndWithError(ctx, err)
		return "", err
	}
	op.End(ctx, "file", path, "output", output, "voxels", vs.NumVoxels(), "supersample", vs.Supersample)

	runs := make([]*store.Run, 0, len(dump.Properties))
	for _, v := range dump.Properties {
		runs = append(runs, store.NewRun(path, v.Name, output, vs, v.Values))
	}
	a.recordRuns(ctx, runs)
	return output, nil
}

// selectVolumes picks the stored volumes named in props and voxelises the
// derived ones.
func selectVolumes(vols *analyse.Volumes, w *loadedWorld, params world.WorldParams, vs world.VoxelSpec, props []world.RockProperty) ([]npz.Volume, error) {
	out := make([]npz.Volume, 0, len(props))
	for _, p := range props {
		if !p.IsDerived() {
			out = append(out, npz.Volume{Name: p.String(), Values: vols.Properties[p]})
			continue
		}
		values, err := world.ExtractProperty(params, p)
		if err != nil {
			return nil, err
		}
		grid, err := layers.VoxelGrid(w.interps, w.spec, params, vs, values)
		if err != nil {
			return nil, err
		}
		out = append(out, npz.Volume{Name: p.String(), Values: grid})
	}
	return out, nil
}

func writeDump(output string, d *npz.VoxelDump) error {
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	return npz.WriteDump(output, d)
}
