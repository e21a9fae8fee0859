package cmd

import (
	"context"
	"fmt"

	"github.com/conneroisu/strata/internal/config"
	"github.com/conneroisu/strata/internal/input"
	"github.com/conneroisu/strata/internal/interp"
	"github.com/conneroisu/strata/internal/logging"
	"github.com/conneroisu/strata/internal/store"
	"github.com/conneroisu/strata/internal/world"
	"github.com/spf13/cobra"
)

// app is the configuration and logger shared by every command.
type app struct {
	cfg    *config.Config
	logger logging.Logger
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	return &app{cfg: cfg, logger: logger.WithComponent(cmd.Name())}, nil
}

// loadedWorld is a parsed world file with its interpolators.
type loadedWorld struct {
	file    *input.File
	spec    world.WorldSpec
	interps []*interp.Interpolator
}

func (a *app) loadWorld(ctx context.Context, path string) (*loadedWorld, error) {
	f, err := input.Load(path)
	if err != nil {
		return nil, err
	}
	spec, err := input.ParseSpec(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	interps, err := interp.FromWorldSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.logger.Debug(ctx, "Loaded world", "file", path, "boundaries", len(spec.Boundaries))
	return &loadedWorld{file: f, spec: spec, interps: interps}, nil
}

// simulationParams reads and validates the world's simulation parameters.
func (a *app) simulationParams(w *loadedWorld) (world.WorldParams, error) {
	params, err := input.ParseSimulationParams(w.file)
	if err != nil {
		return world.WorldParams{}, err
	}
	if err := world.Validate(w.spec, params); err != nil {
		return world.WorldParams{}, err
	}
	return params, nil
}

// logWarnings reports every non-fatal problem collected while parsing.
func (a *app) logWarnings(ctx context.Context, f *input.File) {
	for _, p := range f.Warnings.Problems() {
		a.logger.Warn(ctx, nil, p.Message, "field", p.Field, "index", p.Index)
	}
}

// recordRuns stores one run per volume. Store failures are logged and do
// not fail the command.
func (a *app) recordRuns(ctx context.Context, runs []*store.Run) {
	if !a.cfg.Store.Enabled || len(runs) == 0 {
		return
	}
	s, err := store.Open(a.cfg.Store.Dir)
	if err != nil {
		a.logger.Warn(ctx, err, "Run history unavailable", "dir", a.cfg.Store.Dir)
		return
	}
	defer s.Close()
	for _, r := range runs {
		if err := s.Record(ctx, r); err != nil {
			a.logger.Warn(ctx, err, "Failed to record run", "property", r.Property)
			return
		}
	}
	a.logger.Debug(ctx, "Recorded runs", "count", len(runs), "db", s.Path())
}

func (a *app) start(operation string) *logging.PerfLogger {
	return logging.StartOperation(a.logger, operation)
}
