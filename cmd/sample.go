package cmd

import (
	"bufio"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/conneroisu/strata/internal/csvio"
	"github.com/conneroisu/strata/internal/input"
	"github.com/conneroisu/strata/internal/prior"
	"github.com/spf13/cobra"
)

var (
	sampleCount       int
	sampleEnergy      bool
	sampleAppendDummy int
	sampleOutput      string
	sampleSeed        uint64
)

var sampleCmd = &cobra.Command{
	Use:   "sample <world.yml>",
	Short: "Draw parameter vectors from the prior",
	Long: `Draw parameter vectors from the prior of a world file and write them one per
line. --energy appends the negative log prior density of each draw and
--append-dummy appends zero columns, so that --append-dummy 5 produces a
file the analyse command accepts.

Examples:
  strata sample world.yml -n 1000
  strata sample world.yml -n 100 --energy --seed 42 -o draws.csv
  strata sample world.yml -n 100 --append-dummy 5 -o chain.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().IntVarP(&sampleCount, "count", "n", 1, "number of draws")
	sampleCmd.Flags().BoolVar(&sampleEnergy, "energy", false, "append the negative log prior density")
	sampleCmd.Flags().IntVar(&sampleAppendDummy, "append-dummy", 0, "append this many zero columns")
	sampleCmd.Flags().StringVarP(&sampleOutput, "output", "o", "prior-samples.csv", "output file")
	sampleCmd.Flags().Uint64Var(&sampleSeed, "seed", 0, "random seed (default time based)")
}

func runSample(cmd *cobra.Command, args []string) error {
	if sampleCount < 1 {
		return fmt.Errorf("count must be at least 1, got %d", sampleCount)
	}
	if sampleAppendDummy < 0 {
		return fmt.Errorf("append-dummy must not be negative, got %d", sampleAppendDummy)
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	f, err := input.Load(args[0])
	if err != nil {
		return err
	}
	wp, err := input.ParsePrior(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	a.logWarnings(ctx, f)

	seed := sampleSeed
	if !cmd.Flags().Changed("seed") {
		seed = uint64(time.Now().UnixNano())
	}
	if err := a.sample(ctx, wp, seed, sampleOutput); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d samples of %d parameters to %s\n", sampleCount, wp.Size(), sampleOutput)
	return nil
}

// sample writes sampleCount draws from wp, seeded with seed, to path.
func (a *app) sample(ctx context.Context, wp *prior.WorldPrior, seed uint64, path string) error {
	op := a.start("sample")
	rng := rand.New(rand.NewPCG(seed, seed>>32|1))
	if err := writeSamples(wp, rng, path); err != nil {
		op.EndWithError(ctx, err)
		return err
	}
	op.End(ctx, "count", sampleCount, "size", wp.Size(), "seed", seed, "output", path)
	return nil
}

func writeSamples(wp *prior.WorldPrior, rng *rand.Rand, path string) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(out)
	dummy := make([]float64, sampleAppendDummy)
	for i := 0; i < sampleCount; i++ {
		theta, err := wp.Sample(rng)
		if err != nil {
			return err
		}
		row := theta
		if sampleEnergy {
			lp, err := wp.LogPDF(theta)
			if err != nil {
				return err
			}
			row = append(row, -lp)
		}
		row = append(row, dummy...)
		if _, err := fmt.Fprintln(w, csvio.FormatRow(row, csvio.Separator)); err != nil {
			return err
		}
	}
	return w.Flush()
}
