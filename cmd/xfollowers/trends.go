package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"

	"xfollowers/pkg/analytics"
	"xfollowers/pkg/models"
	"xfollowers/pkg/ui"
)

const (
	chartWidth  = 480
	chartHeight = 200
	pieRadius   = 80
)

var (
	svgPath    string
	confirmYes bool
)

// trendsCmd represents the trends command
var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show how the follower mix changed over time",
	Long: `Show every recorded snapshot and the percentage change of each category
over the last day, week and month.

A change is measured against the newest snapshot at least that old. It is
n/a when no such snapshot exists or the older value was zero.`,
	Example: `  # Print the timeline and deltas
  xfollowers trends

  # Also write a line and pie chart
  xfollowers trends --svg trends.svg`,
	Args: cobra.NoArgs,
	RunE: runTrends,
}

// trendsResetCmd represents the trends reset command
var trendsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every recorded snapshot",
	Args:  cobra.NoArgs,
	RunE:  runTrendsReset,
}

func init() {
	rootCmd.AddCommand(trendsCmd)
	trendsCmd.AddCommand(trendsResetCmd)

	trendsCmd.Flags().StringVar(&svgPath, "svg", "", "write an SVG chart of the timeline to this path")
	trendsResetCmd.Flags().BoolVarP(&confirmYes, "yes", "y", false, "do not ask for confirmation")
}

func runTrends(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		return err
	}
	st, err := openStores(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	timeline, err := st.timeline.Timeline(cmd.Context())
	if err != nil {
		ui.PrintWarning("Timeline could not be read", err)
	}
	if len(timeline) == 0 {
		ui.PrintInfo("Snapshots", "none yet; run 'xfollowers scrape <handle> --analytics'")
		return nil
	}

	fmt.Fprintln(ui.Out, ui.TimelineTable(timeline))
	fmt.Fprintln(ui.Out, ui.TrendTable(analytics.Deltas(timeline)))

	if svgPath == "" {
		return nil
	}
	f, err := os.Create(svgPath)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	defer f.Close()

	if err := renderChart(f, timeline); err != nil {
		return err
	}
	ui.PrintSuccess("[CHART SAVED] " + svgPath)
	return nil
}

// renderChart draws the timeline and the latest category split. A chart
// that has too little data is left as a placeholder.
func renderChart(w io.Writer, timeline []models.Snapshot) error {
	var line *analytics.LineChart
	if lc, err := analytics.LineSeries(timeline, chartWidth, chartHeight); err == nil {
		line = &lc
	} else if !stderrors.Is(err, analytics.ErrInsufficientHistory) {
		return err
	}

	var pie *analytics.PieChart
	if len(timeline) > 0 {
		latest := timeline[len(timeline)-1]
		if pc, err := analytics.PieArcs(latest.Counts(), 2*math.Pi*pieRadius); err == nil {
			pie = &pc
		} else if !stderrors.Is(err, analytics.ErrEmptyPie) {
			return err
		}
	}

	return analytics.RenderSVG(w, line, pie)
}

func runTrendsReset(cmd *cobra.Command, args []string) error {
	if !confirmYes && !confirm("Delete every recorded snapshot?") {
		ui.PrintInfo("Reset", "cancelled")
		return nil
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

	if err := st.timeline.Reset(cmd.Context()); err != nil {
		return err
	}
	ui.PrintSuccess("Timeline cleared")
	return nil
}
