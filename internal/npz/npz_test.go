package npz

import (
	"path/filepath"
	"testing"

	"github.com/conneroisu/strata/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDump() *VoxelDump {
	return &VoxelDump{
		Resolution: [3]int{1, 2, 2},
		XBounds:    world.Bounds{Min: 0, Max: 10},
		YBounds:    world.Bounds{Min: -5, Max: 5},
		ZBounds:    world.Bounds{Min: 0, Max: 20},
		Properties: []Volume{{Name: "Density", Values: []float64{1, 2, 1, 2}}},
		Layers:     [][]float64{{1, 0, 1, 0}, {0, 1, 0, 1}},
		LayerIndex: []float64{0, 1, 0, 1},
	}
}

func TestWriteVoxelDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxels.npz")
	require.NoError(t, WriteDump(path, testDump()))

	tests := map[string][]float64{
		"resolution":  {1, 2, 2},
		"x_bounds":    {0, 10},
		"y_bounds":    {-5, 5},
		"z_bounds":    {0, 20},
		"Density":     {1, 2, 1, 2},
		"layer0":      {1, 0, 1, 0},
		"layer1":      {0, 1, 0, 1},
		"layer_index": {0, 1, 0, 1},
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ReadVector(path, name)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestWriteVoxelDumpRejectsWrongLength(t *testing.T) {
	d := testDump()
	d.Layers[1] = d.Layers[1][:3]
	err := WriteDump(filepath.Join(t.TempDir(), "bad.npz"), d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layer 1")

	d = testDump()
	d.LayerIndex = []float64{0}
	assert.Error(t, WriteDump(filepath.Join(t.TempDir(), "bad.npz"), d))
}

func TestWriteScalar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.npz")
	w, err := Create(path)
	require.NoError(t, err)
	assert.Equal(t, path, w.Path())
	require.NoError(t, w.WriteScalar("samples", 42))
	require.NoError(t, w.Close())

	got, err := ReadVector(path, "samples")
	require.NoError(t, err)
	assert.Equal(t, []float64{42}, got)

	_, err = ReadVector(path, "missing")
	assert.Error(t, err)
}

func TestCreateInMissingDirectory(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "no", "such", "dir.npz"))
	assert.Error(t, err)
}
