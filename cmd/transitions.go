package cmd

import (
	"fmt"
	"io"
	"math"

	"github.com/conneroisu/strata/internal/interp"
	"github.com/conneroisu/strata/internal/layers"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

var (
	transitionPoints []string
	transitionFormat string
)

var transitionsCmd = &cobra.Command{
	Use:   "transitions <world.yml>",
	Short: "Print boundary depths and layer thicknesses at points",
	Long: `Evaluate the simulation parameters of a world file at one or more (x, y)
locations and print the depth of every boundary and the thickness of every
layer. The deepest layer extends to infinity.

Examples:
  strata transitions world.yml -p 100,200
  strata transitions world.yml -p 0,0 -p 500,500 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runTransitions,
}

func init() {
	rootCmd.AddCommand(transitionsCmd)

	transitionsCmd.Flags().StringArrayVarP(&transitionPoints, "points", "p", nil, "query location as x,y (repeatable)")
	transitionsCmd.Flags().StringVarP(&transitionFormat, "format", "f", "text", "Output format (text, json)")
	_ = transitionsCmd.MarkFlagRequired("points")
}

// PointTransitions holds the boundary depths at one location. The
// thickness of the deepest layer is null.
type PointTransitions struct {
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Depths      []float64  `json:"depths"`
	Thicknesses []*float64 `json:"thicknesses"`
}

func runTransitions(cmd *cobra.Command, args []string) error {
	if err := validateFormat(transitionFormat, "text", "json"); err != nil {
		return err
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	points := mat.NewDense(len(transitionPoints), 2, nil)
	for i, s := range transitionPoints {
		p, err := parsePoint(s)
		if err != nil {
			return err
		}
		points.SetRow(i, p[:])
	}

	w, err := a.loadWorld(ctx, args[0])
	if err != nil {
		return err
	}
	params, err := a.simulationParams(w)
	if err != nil {
		return err
	}
	q, err := interp.NewScatterQuery(w.interps, w.spec, points)
	if err != nil {
		return err
	}
	transitions, err := layers.Transitions(w.interps, params, q)
	if err != nil {
		return err
	}
	result := pointTransitions(points, transitions)
	a.logWarnings(ctx, w.file)

	if transitionFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	printTransitions(cmd.OutOrStdout(), result)
	return nil
}

func pointTransitions(points *mat.Dense, transitions *mat.Dense) []PointTransitions {
	thickness := layers.Thickness(transitions)
	nb, nq := transitions.Dims()
	out := make([]PointTransitions, nq)
	for s := 0; s < nq; s++ {
		pt := PointTransitions{X: points.At(s, 0), Y: points.At(s, 1)}
		for b := 0; b < nb; b++ {
			pt.Depths = append(pt.Depths, transitions.At(b, s))
			t := thickness.At(s, b)
			if math.IsInf(t, 0) {
				pt.Thicknesses = append(pt.Thicknesses, nil)
				continue
			}
			pt.Thicknesses = append(pt.Thicknesses, &t)
		}
		out[s] = pt
	}
	return out
}

func printTransitions(w io.Writer, points []PointTransitions) {
	for _, p := range points {
		fmt.Fprintf(w, "(%g, %g)\n", p.X, p.Y)
		for b, d := range p.Depths {
			thickness := "inf"
			if t := p.Thicknesses[b]; t != nil {
				thickness = fmt.Sprintf("%g", *t)
			}
			fmt.Fprintf(w, "  layer %d: top %g thickness %s\n", b+1, d, thickness)
		}
	}
}
