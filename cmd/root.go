// Package cmd provides the strata command-line interface.
//
// Configuration System:
//
//	The CLI reads its settings from several sources with clear precedence:
//	1. Command-line flags (--config, --log-level, -x, ...) - highest priority
//	2. STRATA_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (STRATA_VOXEL_X_RESOLUTION, etc.)
//	4. Configuration files (.strata.yml) - lowest priority
//
// Environment Variables:
//
//	STRATA_CONFIG_FILE: Path to custom configuration file
//	STRATA_LOG_LEVEL: Override the log level
//	STRATA_STORE_ENABLED: Enable/disable the run history
//	And others following the STRATA_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Layered-earth world model toolkit",
	Long: `strata models a region of the earth as a stack of rock layers separated by
smooth boundary surfaces, described by a YAML world file and CSV grids.

Quick Start:
  strata validate world.yml                 Check a world description
  strata transitions world.yml -p 10,20     Boundary depths at a point
  strata voxelise world.yml                 Write voxel volumes to voxels.npz
  strata sample world.yml -n 100            Draw parameters from the prior
  strata analyse world.yml -s samples.csv   Average voxels over samples
  strata watch world.yml                    Re-voxelise on every change`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .strata.yml, can also use STRATA_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig selects the configuration file and enables STRATA_ environment
// variables.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag
//  2. STRATA_CONFIG_FILE environment variable
//  3. .strata.yml in the current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("STRATA_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".strata")
	}

	viper.SetEnvPrefix("STRATA")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or unreadable file leaves the defaults in place.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
