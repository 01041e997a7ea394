package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xfollowers/pkg/auth"
	"xfollowers/pkg/config"
	"xfollowers/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage xfollowers configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (XFOLLOWERS_*)
  - .env and ~/.xfollowers.env
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with every default",
	Long: `Write a configuration file holding every option at its default value.

The file is created as '.xfollowers.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

The bearer token is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".xfollowers.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		ui.PrintError("Configuration file already exists", path)
		fmt.Fprintln(ui.Out, "\nTo overwrite, first remove the existing file:")
		fmt.Fprintf(ui.Out, "  rm %s\n", path)
		return fmt.Errorf("%s already exists", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Fprintln(ui.Out, "\nNext steps:")
	fmt.Fprintln(ui.Out, "1. Store your X API bearer token with 'xfollowers auth set-token'")
	fmt.Fprintln(ui.Out, "2. Run 'xfollowers config validate' to check the configuration")
	fmt.Fprintln(ui.Out, "3. Start the server with 'xfollowers serve'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		return err
	}

	data, err := renderConfig(cfg)
	if err != nil {
		return err
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, string(data))

	fmt.Fprintln(ui.Out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(ui.Out, "1. Command line flags")
	fmt.Fprintln(ui.Out, "2. Environment variables (XFOLLOWERS_*)")
	if configFile != "" {
		fmt.Fprintf(ui.Out, "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(ui.Out, "3. Configuration file: (searched)")
	}
	fmt.Fprintln(ui.Out, "4. Default values")
	return nil
}

// renderConfig marshals cfg as YAML with the bearer token masked
func renderConfig(cfg *config.Config) ([]byte, error) {
	display := *cfg
	if display.Provider.BearerToken != "" {
		display.Provider.BearerToken = auth.MaskToken(display.Provider.BearerToken)
	}
	data, err := yaml.Marshal(&display)
	if err != nil {
		return nil, fmt.Errorf("failed to format configuration: %w", err)
	}
	return data, nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, _, err := loadConfig(nil); err != nil {
		ui.PrintError("Configuration is invalid")
		return err
	}
	ui.PrintSuccess("Configuration is valid")
	return nil
}
