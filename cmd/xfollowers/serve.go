package main

import (
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"xfollowers/internal/runner"
	"xfollowers/pkg/auth"
	"xfollowers/pkg/scraper"
	"xfollowers/pkg/server"
	"xfollowers/pkg/ui"
)

var (
	serveAddr     string
	serveMaxPages int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the follower run server",
	Long: `Serve the run API that fetches followers from X in the background.

Endpoints:
  POST /v1/runs        start a run        {"handle":"acme","mode":"followers"}
  POST /v1/runs/poll   poll a run         {"handle":"acme","runId":"..."}
  POST /v1/scrape      fetch and wait     {"handle":"acme"}

The X API bearer token is read from the config file, the
XFOLLOWERS_BEARER_TOKEN or TWITTER_BEARER_TOKEN environment variables, or
the system keychain ('xfollowers auth set-token').`,
	Example: `  # Serve on the default address
  xfollowers serve

  # Serve on another port, capping each run at 5 pages
  xfollowers serve --addr :9090 --max-pages 5`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8080)")
	serveCmd.Flags().IntVar(&serveMaxPages, "max-pages", 0, "maximum follower pages per run (default 10)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(map[string]interface{}{
		"addr":      serveAddr,
		"max-pages": serveMaxPages,
	})
	if err != nil {
		return err
	}

	token, source, err := auth.NewManager().Resolve(cfg.Provider.BearerToken)
	switch {
	case err == nil:
		cfg.Provider.BearerToken = token
		log.WithField("source", string(source)).Info("Using X API bearer token")
	case stderrors.Is(err, auth.ErrTokenNotFound):
		log.Warn("No X API bearer token configured; runs will fail until one is set")
		ui.PrintWarning("No X API bearer token found", "run 'xfollowers auth set-token'")
	default:
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	fetcher := scraper.New(cfg, log)
	registry := runner.New(fetcher, cfg.Server.Workers,
		runner.WithOverrides(st.overrides),
		runner.WithRetention(cfg.Server.RunRetention),
		runner.WithLogger(log),
	)
	defer registry.Stop()

	srv := server.New(cfg, registry, fetcher, server.WithLogger(log))

	ui.PrintInfo("Listening", cfg.Server.Addr)
	ui.PrintInfo("Storage", cfg.Storage.Backend)
	return srv.ListenAndServe(ctx)
}
