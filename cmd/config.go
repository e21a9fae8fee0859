package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/conneroisu/strata/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// defaultConfigFile is the configuration file looked up in the working
// directory.
const defaultConfigFile = ".strata.yml"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage strata configuration",
	Long: `Manage strata configuration files and settings.

Examples:
  strata config init                   # Write the defaults to .strata.yml
  strata config validate               # Validate .strata.yml
  strata config show                   # Show the resolved configuration
  strata config validate --file my.yml # Validate a specific file`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file holding the defaults",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a strata configuration file: log settings, voxel resolution and
supersampling, output and store directories, thread count and debounce.

Examples:
  strata config validate               # Validate .strata.yml in current directory
  strata config validate --file config.yml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the configuration after loading the configuration file, applying
environment variable overrides and defaults, and processing flags.

Examples:
  strata config show                  # Show in YAML format
  strata config show --format json    # Show in JSON format`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var (
	configOutput string
	configFile   string
	configFormat string
	configForce  bool
)

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().StringVarP(&configOutput, "output", "o", defaultConfigFile, "Output configuration file")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")

	configValidateCmd.Flags().
		StringVarP(&configFile, "file", "f", "", "Configuration file to validate (default: .strata.yml)")

	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "Output format (yaml, json)")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configOutput); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configOutput)
	}
	cfg, err := config.LoadFrom(viper.New())
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	if err := os.WriteFile(configOutput, data, 0o644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to: %s\n", configOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	targetFile := configFile
	if targetFile == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return errors.New("no configuration file found. Use --file to specify a config file " +
				"or run 'strata config init' to create one")
		}
		targetFile = defaultConfigFile
	}

	v := viper.New()
	v.SetConfigFile(targetFile)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read %s: %w", targetFile, err)
	}
	if _, err := config.LoadFrom(v); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "✗ %s\n", targetFile)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", targetFile)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if err := validateFormat(configFormat, "yaml", "json"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if configFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), cfg)
	}
	encoder := yaml.NewEncoder(cmd.OutOrStdout())
	defer encoder.Close()
	return encoder.Encode(cfg)
}
