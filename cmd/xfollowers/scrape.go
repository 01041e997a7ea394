package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"xfollowers/pkg/classify"
	"xfollowers/pkg/config"
	"xfollowers/pkg/csvcodec"
	"xfollowers/pkg/errors"
	"xfollowers/pkg/models"
	"xfollowers/pkg/orchestrator"
	"xfollowers/pkg/storage"
	"xfollowers/pkg/twitter"
	"xfollowers/pkg/ui"
)

var (
	// Scrape command flags
	endpoint     string
	outputDir    string
	pollInterval time.Duration
	deadline     time.Duration
	analyticsRun bool
	noRecord     bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <handle>",
	Short: "Export the followers of an X account",
	Long: `Start a follower run on the run server, poll it until it finishes and
save the CSV export.

With --analytics the server classifies every follower as Tech/VC, Medical or
Other and the export carries a category column. Unless --no-record is given,
the category counts are appended to the local timeline used by 'trends'.
Manual overrides ('xfollowers override set') are applied before counting.`,
	Example: `  # Export followers to the current directory
  xfollowers scrape acme

  # Classified export against a remote run server
  xfollowers scrape @acme --analytics --endpoint https://runs.example.com

  # Give up after ten minutes
  xfollowers scrape acme --deadline 10m`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&endpoint, "endpoint", "e", "", "run server base URL (default http://localhost:8080)")
	scrapeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for the CSV export (default: current directory)")
	scrapeCmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "delay between polls (default 5s)")
	scrapeCmd.Flags().DurationVar(&deadline, "deadline", 0, "give up waiting after this long (default: wait until the run finishes)")
	scrapeCmd.Flags().BoolVarP(&analyticsRun, "analytics", "a", false, "classify followers and return category counts")
	scrapeCmd.Flags().BoolVar(&noRecord, "no-record", false, "do not add a snapshot to the trend timeline")
}

func runScrape(cmd *cobra.Command, args []string) error {
	handle := twitter.NormalizeHandle(args[0])
	if handle == "" {
		return errors.InvalidInput("Missing or invalid handle.")
	}

	flags := map[string]interface{}{
		"endpoint":      endpoint,
		"output":        outputDir,
		"poll-interval": pollInterval,
	}
	if cmd.Flags().Changed("deadline") {
		flags["deadline"] = deadline
	}
	cfg, log, err := loadConfig(flags)
	if err != nil {
		return err
	}

	session := orchestrator.Session{Mode: models.RunModeFollowers}
	if analyticsRun {
		session.Mode = models.RunModeAnalytics
	}

	ui.PrintInfo("Target", "@"+handle)
	ui.PrintInfo("Run server", cfg.Poll.Endpoint)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := ui.NewPollTracker(handle, cfg.Provider.MaxPages, cfg.Provider.PageSize)
	client := orchestrator.New(cfg.Poll,
		orchestrator.WithLogger(log),
		orchestrator.WithProgress(func(o orchestrator.Outcome) {
			tracker.Update(o.Fetched)
			tracker.PrintProgress()
		}),
	)

	runID, err := client.Start(ctx, session, handle)
	if err != nil {
		return err
	}
	ui.PrintInfo("Run", runID)

	outcome, err := client.Await(ctx, session, handle, runID)
	if tracker.Polls > 0 {
		fmt.Fprintln(ui.Out)
	}
	if err != nil {
		log.WithError(err).WithField("handle", handle).Error("Run failed")
		return err
	}
	if outcome.Kind == orchestrator.Failed {
		ui.PrintError("RUN FAILED", outcome.Message)
		if outcome.Detail != "" {
			ui.PrintInfo("Detail", outcome.Detail)
		}
		return errors.UpstreamFailure(0, outcome.Message, outcome.Detail)
	}

	exports, err := storage.NewManager(cfg.Output.Directory)
	if err != nil {
		return err
	}
	path, err := writeExport(exports, handle, outcome)
	if err != nil {
		return err
	}
	ui.PrintSuccess("[EXPORT SAVED] " + path)

	counts := models.Counts{
		Total:   outcome.Fields.Total,
		Tech:    outcome.Fields.Tech,
		Medical: outcome.Fields.Medical,
		Other:   outcome.Fields.Other,
	}
	if !noRecord {
		rec, err := recordOutcome(cmd, cfg, outcome)
		if err != nil {
			return err
		}
		counts = rec.Counts
	}

	meta := storage.NewManifest(handle, session.Mode, path, counts)
	meta.RunID = runID
	meta.Truncated = outcome.Fields.Truncated
	if _, err := exports.SaveManifest(meta); err != nil {
		ui.PrintWarning("Manifest not saved", err)
	}
	return nil
}

func recordOutcome(cmd *cobra.Command, cfg *config.Config, outcome orchestrator.Outcome) (*orchestrator.Recorded, error) {
	st, err := openStores(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	recorder := orchestrator.NewRecorder(classify.Default(), st.overrides, st.timeline, nil)
	rec, err := recorder.Record(cmd.Context(), outcome)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(ui.Out, ui.CountsTable(rec.Counts))
	if outcome.Fields.Truncated {
		ui.PrintWarning("Follower list truncated at the page cap")
	}
	for _, w := range rec.Warnings {
		ui.PrintWarning("Snapshot may not have been saved", errors.Message(w))
	}
	if len(rec.Warnings) == 0 {
		ui.PrintInfo("Snapshot", rec.Snapshot.Timestamp.Local().Format(time.DateTime)+" ("+strconv.Itoa(rec.Snapshot.Total)+" followers)")
	}
	return rec, nil
}

// writeExport saves the CSV carried by outcome through exports and returns
// its path
func writeExport(exports *storage.Manager, handle string, outcome orchestrator.Outcome) (string, error) {
	var text, name string
	switch outcome.Kind {
	case orchestrator.CSV:
		text, name = outcome.Text, outcome.Filename
		if name == "" {
			name = csvcodec.FollowersFilename(handle)
		}
	case orchestrator.Structured:
		text, name = outcome.Fields.CSV, csvcodec.ExportFilename("analytics", handle)
	default:
		return "", errors.InvalidInput("Run has not finished.")
	}
	if text == "" {
		return "", errors.ProtocolViolation("Run finished without an export.")
	}
	return exports.SaveExport(strings.NewReader(text), name)
}
