package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	serrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/input"
	"github.com/conneroisu/strata/internal/interp"
	"github.com/conneroisu/strata/internal/world"
	"github.com/spf13/cobra"
)

var validateFormatFlag string

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate <world.yml>",
	Short: "Check a world file for errors",
	Long: `Validate a world file and every data file it references:

- World extent and boundary geometry
- Simulation parameters against the geometry
- The prior, including bounds that exclude the prior mean
- Initial chain states

Sections that are absent from the file are skipped. Non-fatal problems such
as prior means close to a bound are reported as warnings.

Examples:
  strata validate world.yml               # Validate and print a summary
  strata validate world.yml --format json # Output results as JSON`,
	Args: cobra.ExactArgs(1),
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().
		StringVarP(&validateFormatFlag, "format", "f", "text", "Output format (text, json)")
}

// SectionResult is the outcome of validating one part of a world file.
type SectionResult struct {
	Section string   `json:"section"`
	Valid   bool     `json:"valid"`
	Errors  []string `json:"errors,omitempty"`
}

// ValidationSummary is the outcome of validating a world file.
type ValidationSummary struct {
	File     string          `json:"file"`
	Valid    bool            `json:"valid"`
	Sections []SectionResult `json:"sections"`
	Warnings []string        `json:"warnings,omitempty"`
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	if err := validateFormat(validateFormatFlag, "text", "json"); err != nil {
		return err
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	op := a.start("validate")

	f, err := input.Load(args[0])
	if err != nil {
		return err
	}
	summary := validateWorld(f)
	op.End(ctx, "file", args[0], "valid", summary.Valid)

	if validateFormatFlag == "json" {
		if err := writeJSON(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
	} else {
		printSummary(cmd.OutOrStdout(), summary)
	}
	if !summary.Valid {
		return fmt.Errorf("%s is not a valid world file", args[0])
	}
	return nil
}

// validateWorld checks every section present in f.
func validateWorld(f *input.File) ValidationSummary {
	s := ValidationSummary{File: f.Path, Valid: true}
	add := func(section string, err error) {
		r := SectionResult{Section: section, Valid: err == nil}
		if err != nil {
			r.Errors = errorLines(err)
			s.Valid = false
		}
		s.Sections = append(s.Sections, r)
	}

	spec, err := input.ParseSpec(f)
	if err == nil {
		ec := serrors.NewErrorCollector()
		world.ValidateSpec(spec, ec)
		err = ec.Err()
	}
	if err == nil {
		_, err = interp.FromWorldSpec(spec)
	}
	add("world", err)
	if err != nil {
		return s
	}

	if f.IsSet(input.KeySimCtrlPoints) {
		params, err := input.ParseSimulationParams(f)
		if err == nil {
			err = world.Validate(spec, params)
		}
		add("simulation", err)
	}
	if f.IsSet(input.KeyCtrlPointMins) {
		_, err := input.ParsePrior(f)
		add("prior", err)
	}
	if f.IsSet(input.KeyInitCtrlPoints) {
		states, err := input.ParseInitStates(f, spec)
		for i := 0; err == nil && i < len(states); i++ {
			if verr := world.Validate(spec, states[i]); verr != nil {
				err = fmt.Errorf("initial state %d: %w", i+1, verr)
			}
		}
		add("initialisation", err)
	}

	for _, p := range f.Warnings.Problems() {
		s.Warnings = append(s.Warnings, p.Error())
	}
	return s
}

// errorLines splits joined errors into one message per line.
func errorLines(err error) []string {
	var out []string
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func printSummary(w io.Writer, s ValidationSummary) {
	for _, r := range s.Sections {
		if r.Valid {
			fmt.Fprintf(w, "✓ %s\n", r.Section)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", r.Section)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}
	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "! %s\n", warning)
	}
	if s.Valid {
		fmt.Fprintf(w, "%s is valid\n", s.File)
	}
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
