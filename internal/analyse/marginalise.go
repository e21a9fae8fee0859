package analyse

import (
	"context"
	"fmt"

	"github.com/conneroisu/strata/internal/interp"
	"github.com/conneroisu/strata/internal/prior"
	"golang.org/x/sync/errgroup"
)

// Marginalise averages the volumes of every sample's world. Samples are
// split into threads contiguous chunks that are voxelised concurrently.
func Marginalise(ctx context.Context, samples []Sample, wp *prior.WorldPrior, interps []*interp.Interpolator, q *interp.Query, threads int) (*Volumes, error) {
	n := len(samples)
	if n == 0 {
		return nil, fmt.Errorf("no samples to marginalise")
	}
	threads = max(1, min(threads, n))
	chunk := 1 + (n-1)/threads

	partial := make([]*Volumes, threads)
	g, ctx := errgroup.WithContext(ctx)
	for t := 0; t < threads; t++ {
		start, end := t*chunk, min((t+1)*chunk, n)
		if start >= end {
			continue
		}
		g.Go(func() error {
			sum := &Volumes{}
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				params, err := wp.Reconstruct(samples[i].Theta)
				if err != nil {
					return fmt.Errorf("sample %d: %w", i+1, err)
				}
				v, err := WorldVolumes(interps, params, q)
				if err != nil {
					return fmt.Errorf("sample %d: %w", i+1, err)
				}
				sum.add(v)
			}
			partial[t] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := &Volumes{}
	for _, p := range partial {
		if p != nil {
			total.add(p)
		}
	}
	total.scale(1 / float64(n))
	return total, nil
}
