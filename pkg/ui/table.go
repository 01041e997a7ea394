package ui

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"xfollowers/pkg/analytics"
	"xfollowers/pkg/classify"
	"xfollowers/pkg/models"
)

// Alignment of a table column
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// RenderTable draws headers and rows with rounded borders. Short rows are
// padded with empty cells.
func RenderTable(headers []string, rows [][]string, aligns []Alignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// CountsTable shows one row per category of counts
func CountsTable(c models.Counts) string {
	rows := [][]string{
		{models.CategoryTechVC.Label(), strconv.Itoa(c.Tech), share(c.Tech, c.Total)},
		{models.CategoryMedical.Label(), strconv.Itoa(c.Medical), share(c.Medical, c.Total)},
		{models.CategoryOther.Label(), strconv.Itoa(c.Other), share(c.Other, c.Total)},
		{"Total", strconv.Itoa(c.Total), ""},
	}
	return RenderTable([]string{"Category", "Followers", "Share"}, rows, []Alignment{AlignLeft, AlignRight, AlignRight})
}

// TrendTable shows the percentage change of every metric per horizon
func TrendTable(report analytics.Report) string {
	rows := make([][]string, 0, len(analytics.Horizons))
	for _, h := range analytics.Horizons {
		d := report.ByHorizon(h)
		if d == nil {
			rows = append(rows, []string{h.Name, "n/a", "-", "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{
			h.Name,
			d.Reference.Timestamp.Local().Format(time.DateTime),
			FormatChange(d.Change.Total),
			FormatChange(d.Change.Tech),
			FormatChange(d.Change.Medical),
			FormatChange(d.Change.Other),
		})
	}
	return RenderTable(
		[]string{"Horizon", "Compared to", "Total", "Tech/VC", "Medical", "Other"},
		rows,
		[]Alignment{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight},
	)
}

// TimelineTable lists snapshots, newest first
func TimelineTable(timeline []models.Snapshot) string {
	rows := make([][]string, 0, len(timeline))
	for i := len(timeline) - 1; i >= 0; i-- {
		s := timeline[i]
		rows = append(rows, []string{
			s.Timestamp.Local().Format(time.DateTime),
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Tech),
			strconv.Itoa(s.Medical),
			strconv.Itoa(s.Other),
		})
	}
	return RenderTable(
		[]string{"Taken", "Total", "Tech/VC", "Medical", "Other"},
		rows,
		[]Alignment{AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight},
	)
}

// OverridesTable lists overrides sorted by username
func OverridesTable(overrides classify.Overrides) string {
	usernames := make([]string, 0, len(overrides))
	for u := range overrides {
		usernames = append(usernames, u)
	}
	sort.Strings(usernames)

	rows := make([][]string, 0, len(usernames))
	for _, u := range usernames {
		rows = append(rows, []string{"@" + u, overrides[u].Label()})
	}
	return RenderTable([]string{"Username", "Category"}, rows, nil)
}

// FormatChange renders a percentage change with its sign. A nil change
// has no reference value and renders as "n/a".
func FormatChange(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", *v)
}

func share(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
}
