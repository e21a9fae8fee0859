//go:build integration
// +build integration

package integration_tests

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/conneroisu/strata/internal/analyse"
	"github.com/conneroisu/strata/internal/input"
	"github.com/conneroisu/strata/internal/interp"
	"github.com/conneroisu/strata/internal/layers"
	"github.com/conneroisu/strata/internal/npz"
	"github.com/conneroisu/strata/internal/store"
	"github.com/conneroisu/strata/internal/watcher"
	"github.com/conneroisu/strata/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var grid = world.VoxelSpec{XResolution: 2, YResolution: 2, ZResolution: 5}

// voxelise loads the world at path and writes its volumes to output.
func voxelise(path, output string) (*npz.VoxelDump, error) {
	f, err := input.Load(path)
	if err != nil {
		return nil, err
	}
	spec, err := input.ParseSpec(f)
	if err != nil {
		return nil, err
	}
	params, err := input.ParseSimulationParams(f)
	if err != nil {
		return nil, err
	}
	interps, err := interp.FromWorldSpec(spec)
	if err != nil {
		return nil, err
	}
	q, err := layers.GridQuery(interps, spec, grid)
	if err != nil {
		return nil, err
	}
	vols, err := analyse.WorldVolumes(interps, params, q)
	if err != nil {
		return nil, err
	}
	d := vols.Dump(spec, grid)
	return d, npz.WriteDump(output, d)
}

func TestIntegration_WatcherRevoxelisesOnDataChange(t *testing.T) {
	path := copyWorld(t)
	dir := filepath.Dir(path)
	output := filepath.Join(t.TempDir(), "voxels.npz")

	_, err := voxelise(path, output)
	require.NoError(t, err)
	before, err := npz.ReadVector(output, "Density")
	require.NoError(t, err)
	require.InDelta(t, 2.2, before[0], 1e-9)

	f, err := input.Load(path)
	require.NoError(t, err)
	fileWatcher, err := watcher.NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer fileWatcher.Stop()
	require.NoError(t, fileWatcher.WatchFiles(f.ReferencedFiles()...))

	var runs int64
	fileWatcher.AddHandler(func(events []watcher.ChangeEvent) error {
		atomic.AddInt64(&runs, 1)
		_, err := voxelise(path, output)
		return err
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, fileWatcher.Start(ctx))

	// Wait for initial setup
	time.Sleep(200 * time.Millisecond)

	props := filepath.Join(dir, "rockProperties1.csv")
	data, err := os.ReadFile(props)
	require.NoError(t, err)
	edited := strings.Replace(string(data), "2.2\n", "2.4\n", 1)
	require.NotEqual(t, string(data), edited)
	require.NoError(t, os.WriteFile(props, []byte(edited), 0o644))

	require.Eventually(t, func() bool {
		after, err := npz.ReadVector(output, "Density")
		return err == nil && len(after) > 0 && after[0] > 2.3
	}, 5*time.Second, 50*time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt64(&runs), int64(1))

	// Files the world does not reference are ignored.
	count := atomic.LoadInt64(&runs)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("1\n"), 0o644))
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, count, atomic.LoadInt64(&runs))
}

func TestIntegration_ExportVoxeliseRecord(t *testing.T) {
	path := copyWorld(t)
	out := t.TempDir()

	f, err := input.Load(path)
	require.NoError(t, err)
	spec, err := input.ParseSpec(f)
	require.NoError(t, err)
	params, err := input.ParseSimulationParams(f)
	require.NoError(t, err)
	wp, err := input.ParsePrior(f)
	require.NoError(t, err)

	specDoc, err := input.WriteSpec(out, "", spec)
	require.NoError(t, err)
	paramDoc, err := input.WriteParams(out, "", params)
	require.NoError(t, err)
	priorDoc, err := input.WritePrior(out, "", wp)
	require.NoError(t, err)
	exported := filepath.Join(out, "world.yml")
	require.NoError(t, input.Save(exported, specDoc, paramDoc, priorDoc))

	original, err := voxelise(path, filepath.Join(out, "a.npz"))
	require.NoError(t, err)
	copied, err := voxelise(exported, filepath.Join(out, "b.npz"))
	require.NoError(t, err)
	require.Len(t, copied.Properties, len(original.Properties))
	for i := range original.Properties {
		assert.InDeltaSlice(t, original.Properties[i].Values, copied.Properties[i].Values, 1e-9)
	}

	s, err := store.Open(filepath.Join(out, ".strata"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()
	for _, v := range copied.Properties {
		require.NoError(t, s.Record(ctx, store.NewRun(exported, v.Name, "b.npz", grid, v.Values)))
	}
	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, len(world.StoredProperties()))
}
