package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/conneroisu/strata/internal/docindex"
	"github.com/spf13/cobra"
)

var (
	docindexOutput    string
	docindexNamespace string
	docindexFile      string
)

var docindexCmd = &cobra.Command{
	Use:   "docindex",
	Short: "Render the navigation index of the world model types",
	Long: `Render the documentation navigation index for the world model types as a
JavaScript array: one entry per type page and one per enum, with an
anchored child per enum value.

Examples:
  strata docindex                     # Print to stdout
  strata docindex -o world_8go.js     # Write to a file`,
	Args: cobra.NoArgs,
	RunE: runDocindex,
}

func init() {
	rootCmd.AddCommand(docindexCmd)

	defaults := docindex.DefaultOptions()
	docindexCmd.Flags().StringVarP(&docindexOutput, "output", "o", "", "output file (default stdout)")
	docindexCmd.Flags().StringVar(&docindexNamespace, "namespace", defaults.Namespace, "namespace of the indexed types")
	docindexCmd.Flags().StringVar(&docindexFile, "file", defaults.File, "source file the index describes")
}

func runDocindex(cmd *cobra.Command, args []string) error {
	opts := docindex.Options{Namespace: docindexNamespace, File: docindexFile}
	entries := docindex.Index(opts)
	if err := docindex.Validate(entries); err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if docindexOutput != "" {
		f, err := os.Create(docindexOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", docindexOutput, err)
		}
		defer f.Close()
		out = f
	}
	return docindex.Render(out, opts.VarName(), entries)
}
