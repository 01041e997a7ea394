package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xfollowers/pkg/classify"
	"xfollowers/pkg/errors"
	"xfollowers/pkg/models"
	"xfollowers/pkg/twitter"
	"xfollowers/pkg/ui"
)

var (
	overrideName string
	overrideBio  string
)

// overrideCmd represents the override command
var overrideCmd = &cobra.Command{
	Use:     "override",
	Aliases: []string{"overrides"},
	Short:   "Manage manual follower categories",
	Long: `Pin a follower to a category regardless of what their name and bio say.

Overrides are applied whenever a scrape is recorded and by the run server
when it classifies an analytics run.`,
}

// overrideSetCmd represents the override set command
var overrideSetCmd = &cobra.Command{
	Use:   "set <username> <category>",
	Short: "Pin a follower to a category",
	Long: `Pin a follower to tech_vc, medical or other.

When --name or --bio is given the follower is classified from them first;
choosing the category it would get anyway removes the override instead.`,
	Example: `  xfollowers override set drjane medical
  xfollowers override set @acmevc tech_vc --bio "Partner at Acme Ventures"`,
	Args: cobra.ExactArgs(2),
	RunE: runOverrideSet,
}

// overrideClearCmd represents the override clear command
var overrideClearCmd = &cobra.Command{
	Use:   "clear <username>",
	Short: "Remove a follower's override",
	Args:  cobra.ExactArgs(1),
	RunE:  runOverrideClear,
}

// overrideListCmd represents the override list command
var overrideListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every override",
	Args:  cobra.NoArgs,
	RunE:  runOverrideList,
}

func init() {
	rootCmd.AddCommand(overrideCmd)
	overrideCmd.AddCommand(overrideSetCmd)
	overrideCmd.AddCommand(overrideClearCmd)
	overrideCmd.AddCommand(overrideListCmd)

	overrideSetCmd.Flags().StringVar(&overrideName, "name", "", "display name used to compute the category")
	overrideSetCmd.Flags().StringVar(&overrideBio, "bio", "", "bio used to compute the category")
}

func runOverrideSet(cmd *cobra.Command, args []string) error {
	username := twitter.NormalizeHandle(args[0])
	if username == "" {
		return errors.InvalidInput("Missing or invalid username.")
	}
	category, ok := models.ParseCategory(strings.TrimSpace(args[1]))
	if !ok {
		return errors.InvalidInput(fmt.Sprintf("Unknown category %q; use tech_vc, medical or other.", args[1]))
	}

	computed, known := computedCategory(overrideName, overrideBio)

	cfg, _, err := loadConfig(nil)
	if err != nil {
		return err
	}
	st, err := openStores(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.overrides.Set(cmd.Context(), username, category, computed); err != nil {
		return err
	}
	reportOverrideSet(username, category, computed, known)
	return nil
}

// computedCategory classifies name and bio. known is false when neither
// was given, in which case nothing can be compared against the override.
func computedCategory(name, bio string) (category models.Category, known bool) {
	if name == "" && bio == "" {
		return "", false
	}
	return classify.Default().Classify(name, bio).Category, true
}

func reportOverrideSet(username string, category, computed models.Category, known bool) {
	if known && category == computed {
		ui.PrintSuccess(fmt.Sprintf("@%s already classifies as %s; override removed", username, category.Label()))
		return
	}
	ui.PrintSuccess(fmt.Sprintf("@%s pinned to %s", username, category.Label()))
	if !known {
		ui.PrintWarning("Computed category unknown; pass --name or --bio to drop an override that matches it")
	}
}

func runOverrideClear(cmd *cobra.Command, args []string) error {
	username := twitter.NormalizeHandle(args[0])
	if username == "" {
		return errors.InvalidInput("Missing or invalid username.")
	}

	cfg, _, err := loadConfig(nil)
	if err != nil {
		return err
	}
	st, err := openStores(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.overrides.Clear(cmd.Context(), username); err != nil {
		return err
	}
	ui.PrintSuccess("Override cleared for @" + username)
	return nil
}

func runOverrideList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		return err
	}
	st, err := openStores(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	all, err := st.overrides.All(cmd.Context())
	if err != nil {
		ui.PrintWarning("Overrides could not be read", errors.Message(err))
	}
	if len(all) == 0 {
		ui.PrintInfo("Overrides", "none")
		return nil
	}
	fmt.Fprintln(ui.Out, ui.OverridesTable(all))
	return nil
}
