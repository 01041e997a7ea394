package main

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xfollowers/pkg/auth"
	"xfollowers/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the X API bearer token",
	Long: `Manage the X API bearer token used by 'xfollowers serve'.

The token is looked up in this order:
  - bearer_token in the configuration file
  - XFOLLOWERS_BEARER_TOKEN or TWITTER_BEARER_TOKEN
  - the system keychain

Never share your token or commit it to a config file in version control!`,
}

// setTokenCmd represents the auth set-token command
var setTokenCmd = &cobra.Command{
	Use:   "set-token",
	Short: "Store the bearer token in the system keychain",
	Args:  cobra.NoArgs,
	RunE:  runSetToken,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which bearer token would be used",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

// deleteTokenCmd represents the auth delete-token command
var deleteTokenCmd = &cobra.Command{
	Use:   "delete-token",
	Short: "Remove the stored bearer token",
	Args:  cobra.NoArgs,
	RunE:  runDeleteToken,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(setTokenCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(deleteTokenCmd)
}

func runSetToken(cmd *cobra.Command, args []string) error {
	auth.ShowTokenGuide(ui.Out)

	fmt.Fprint(ui.Out, "Bearer token: ")
	token, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	if err := auth.NewManager().Store(token); err != nil {
		if stderrors.Is(err, auth.ErrStoreUnavailable) {
			ui.PrintError("No writable credential store", "set XFOLLOWERS_BEARER_TOKEN instead")
		}
		return err
	}
	ui.PrintSuccess("Bearer token stored " + auth.MaskToken(strings.TrimSpace(token)))
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		return err
	}

	token, source, err := auth.NewManager().Resolve(cfg.Provider.BearerToken)
	if stderrors.Is(err, auth.ErrTokenNotFound) {
		ui.PrintWarning("No bearer token configured")
		fmt.Fprintln(ui.Out, "\nTo store one securely, run:")
		fmt.Fprintln(ui.Out, "  xfollowers auth set-token")
		return nil
	}
	if err != nil {
		return err
	}

	ui.PrintInfo("Token", auth.MaskToken(token))
	ui.PrintInfo("Source", string(source))
	return nil
}

func runDeleteToken(cmd *cobra.Command, args []string) error {
	if err := auth.NewManager().Delete(); err != nil {
		if stderrors.Is(err, auth.ErrTokenNotFound) {
			ui.PrintInfo("Token", "nothing stored")
			return nil
		}
		return err
	}
	ui.PrintSuccess("Bearer token removed")
	return nil
}

// readPassword reads a secret from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(ui.Out)
		if err == nil {
			return string(secret), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// confirm asks a yes/no question on stdin; only y or yes agrees
func confirm(question string) bool {
	fmt.Fprintf(ui.Out, "%s (y/N): ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
