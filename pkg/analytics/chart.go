package analytics

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"xfollowers/pkg/models"
)

var (
	// ErrInsufficientHistory is returned when fewer than two snapshots exist
	ErrInsufficientHistory = errors.New("insufficient history: need at least 2 snapshots")

	// ErrEmptyPie is returned when there is nothing to divide
	ErrEmptyPie = errors.New("no followers to chart")
)

// Point is one plotted vertex in SVG coordinates (y grows downward)
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LineChart holds one polyline per category
type LineChart struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Max     int     `json:"max"`
	Tech    []Point `json:"tech"`
	Medical []Point `json:"medical"`
	Other   []Point `json:"other"`
}

// Arc is one slice of the pie drawn as a dashed circle stroke
type Arc struct {
	Category models.Category `json:"category"`
	Count    int             `json:"count"`
	Length   float64         `json:"length"`
	Offset   float64         `json:"offset"`
}

// PieChart lays arcs contiguously around a circle of the given circumference
type PieChart struct {
	Circumference float64 `json:"circumference"`
	Arcs          []Arc   `json:"arcs"`
}

// LineSeries spaces the timeline evenly across width and scales every
// category against the largest value of the three, which touches y=0.
func LineSeries(timeline []models.Snapshot, width, height float64) (LineChart, error) {
	n := len(timeline)
	if n < 2 {
		return LineChart{}, ErrInsufficientHistory
	}

	chart := LineChart{Width: width, Height: height}
	for _, s := range timeline {
		chart.Max = max(chart.Max, s.Tech, s.Medical, s.Other)
	}

	step := width / float64(n-1)
	y := func(v int) float64 {
		if chart.Max == 0 {
			return height
		}
		return height * (1 - float64(v)/float64(chart.Max))
	}

	chart.Tech = make([]Point, n)
	chart.Medical = make([]Point, n)
	chart.Other = make([]Point, n)
	for i, s := range timeline {
		x := float64(i) * step
		chart.Tech[i] = Point{X: x, Y: y(s.Tech)}
		chart.Medical[i] = Point{X: x, Y: y(s.Medical)}
		chart.Other[i] = Point{X: x, Y: y(s.Other)}
	}
	return chart, nil
}

// PieArcs divides circumference between the categories of counts. Each
// arc starts where the previous ended, so its offset is the negative sum
// of the lengths before it.
func PieArcs(counts models.Counts, circumference float64) (PieChart, error) {
	total := counts.Tech + counts.Medical + counts.Other
	if total == 0 {
		return PieChart{}, ErrEmptyPie
	}

	pie := PieChart{Circumference: circumference}
	offset := 0.0
	for _, slice := range []struct {
		cat   models.Category
		count int
	}{
		{models.CategoryTechVC, counts.Tech},
		{models.CategoryMedical, counts.Medical},
		{models.CategoryOther, counts.Other},
	} {
		length := float64(slice.count) / float64(total) * circumference
		pie.Arcs = append(pie.Arcs, Arc{
			Category: slice.cat,
			Count:    slice.count,
			Length:   length,
			Offset:   offset,
		})
		offset -= length
	}
	return pie, nil
}

var categoryColors = map[models.Category]string{
	models.CategoryTechVC:  "#3b82f6",
	models.CategoryMedical: "#10b981",
	models.CategoryOther:   "#9ca3af",
}

// RenderSVG writes a standalone SVG with the line chart on the left and the
// pie on the right. Either chart may be nil; a missing chart is replaced
// by a placeholder label.
func RenderSVG(w io.Writer, line *LineChart, pie *PieChart) error {
	const (
		pad     = 20.0
		lineW   = 480.0
		lineH   = 200.0
		radius  = 80.0
		canvasW = lineW + 2*radius + 4*pad
		canvasH = lineH + 2*pad
	)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`+"\n",
		canvasW, canvasH, canvasW, canvasH)

	if line != nil {
		sx, sy := 1.0, 1.0
		if line.Width > 0 {
			sx = lineW / line.Width
		}
		if line.Height > 0 {
			sy = lineH / line.Height
		}
		fmt.Fprintf(&b, `<g transform="translate(%g %g)">`+"\n", pad, pad)
		for _, series := range []struct {
			cat    models.Category
			points []Point
		}{
			{models.CategoryTechVC, line.Tech},
			{models.CategoryMedical, line.Medical},
			{models.CategoryOther, line.Other},
		} {
			coords := make([]string, len(series.points))
			for i, p := range series.points {
				coords[i] = fmt.Sprintf("%.2f,%.2f", p.X*sx, p.Y*sy)
			}
			fmt.Fprintf(&b, `<polyline fill="none" stroke="%s" stroke-width="2" points="%s"><title>%s</title></polyline>`+"\n",
				categoryColors[series.cat], strings.Join(coords, " "), series.cat.Label())
		}
		b.WriteString("</g>\n")
	} else {
		fmt.Fprintf(&b, `<text x="%g" y="%g" fill="#6b7280">%s</text>`+"\n", pad, canvasH/2, ErrInsufficientHistory.Error())
	}

	cx, cy := lineW+2*pad+radius, canvasH/2
	if pie != nil && pie.Circumference > 0 {
		// dash lengths are scaled from the chart circumference to the drawn one
		scale := 2 * math.Pi * (radius / 2) / pie.Circumference
		for _, arc := range pie.Arcs {
			if arc.Length == 0 {
				continue
			}
			fmt.Fprintf(&b, `<circle cx="%g" cy="%g" r="%g" fill="none" stroke="%s" stroke-width="%g" stroke-dasharray="%.2f %.2f" stroke-dashoffset="%.2f" transform="rotate(-90 %g %g)"><title>%s: %d</title></circle>`+"\n",
				cx, cy, radius/2, categoryColors[arc.Category], radius,
				arc.Length*scale, pie.Circumference*scale, arc.Offset*scale,
				cx, cy, arc.Category.Label(), arc.Count)
		}
	} else {
		fmt.Fprintf(&b, `<text x="%g" y="%g" fill="#6b7280" text-anchor="middle">%s</text>`+"\n", cx, cy, ErrEmptyPie.Error())
	}

	b.WriteString("</svg>\n")
	_, err := io.WriteString(w, b.String())
	return err
}
