// Package npz writes voxel volumes as NumPy .npz archives.
package npz

import (
	"fmt"

	"github.com/conneroisu/strata/internal/world"
	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"
)

// Volume is one named voxel volume, flattened x, y, z with z fastest.
type Volume struct {
	Name   string
	Values []float64
}

// VoxelDump is everything written for one voxelised world.
type VoxelDump struct {
	Resolution [3]int
	XBounds    world.Bounds
	YBounds    world.Bounds
	ZBounds    world.Bounds
	Properties []Volume
	// Layers holds, per layer, the fraction of each voxel inside it.
	Layers [][]float64
	// LayerIndex is the mean layer number of each voxel, omitted when nil.
	LayerIndex []float64
}

// NumVoxels returns the voxel count implied by the resolution.
func (d *VoxelDump) NumVoxels() int {
	return d.Resolution[0] * d.Resolution[1] * d.Resolution[2]
}

func (d *VoxelDump) check() error {
	n := d.NumVoxels()
	for _, v := range d.Properties {
		if len(v.Values) != n {
			return fmt.Errorf("%s has %d values, resolution %v needs %d", v.Name, len(v.Values), d.Resolution, n)
		}
	}
	for i, l := range d.Layers {
		if len(l) != n {
			return fmt.Errorf("layer %d has %d values, resolution %v needs %d", i, len(l), d.Resolution, n)
		}
	}
	if d.LayerIndex != nil && len(d.LayerIndex) != n {
		return fmt.Errorf("layer index has %d values, resolution %v needs %d", len(d.LayerIndex), d.Resolution, n)
	}
	return nil
}

// Writer writes arrays into an .npz archive.
type Writer struct {
	path string
	zw   *npz.Writer
}

// Create creates or truncates the archive at path.
func Create(path string) (*Writer, error) {
	zw, err := npz.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &Writer{path: path, zw: zw}, nil
}

// Path returns the archive's file name.
func (w *Writer) Path() string { return w.path }

// WriteMatrix stores m as a 2-D array.
func (w *Writer) WriteMatrix(name string, m mat.Matrix) error {
	return w.write(name, mat.DenseCopyOf(m))
}

// WriteVector stores v as a 1-D array.
func (w *Writer) WriteVector(name string, v []float64) error {
	return w.write(name, v)
}

// WriteScalar stores v as a one element array.
func (w *Writer) WriteScalar(name string, v float64) error {
	return w.write(name, []float64{v})
}

func (w *Writer) write(name string, v any) error {
	if err := w.zw.Write(name, v); err != nil {
		return fmt.Errorf("write %s to %s: %w", name, w.path, err)
	}
	return nil
}

// WriteVoxelDump stores d under the keys resolution, x_bounds, y_bounds,
// z_bounds, one key per property volume, layer0 ... layerN-1 and
// layer_index.
func (w *Writer) WriteVoxelDump(d *VoxelDump) error {
	if err := d.check(); err != nil {
		return err
	}
	res := []float64{float64(d.Resolution[0]), float64(d.Resolution[1]), float64(d.Resolution[2])}
	if err := w.WriteVector("resolution", res); err != nil {
		return err
	}
	for _, b := range []struct {
		name string
		b    world.Bounds
	}{{"x_bounds", d.XBounds}, {"y_bounds", d.YBounds}, {"z_bounds", d.ZBounds}} {
		if err := w.WriteVector(b.name, []float64{b.b.Min, b.b.Max}); err != nil {
			return err
		}
	}
	for _, v := range d.Properties {
		if err := w.WriteVector(v.Name, v.Values); err != nil {
			return err
		}
	}
	for i, l := range d.Layers {
		if err := w.WriteVector(fmt.Sprintf("layer%d", i), l); err != nil {
			return err
		}
	}
	if d.LayerIndex != nil {
		return w.WriteVector("layer_index", d.LayerIndex)
	}
	return nil
}

// Close flushes the archive.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.path, err)
	}
	return nil
}

// WriteDump creates path and writes d into it.
func WriteDump(path string, d *VoxelDump) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	if err := w.WriteVoxelDump(d); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// ReadVector reads one 1-D array from the archive at path.
func ReadVector(path, name string) ([]float64, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()
	var out []float64
	if err := r.Read(name, &out); err != nil {
		return nil, fmt.Errorf("read %s from %s: %w", name, path, err)
	}
	return out, nil
}
