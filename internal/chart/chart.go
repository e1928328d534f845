package chart

import (
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/openmohaa/fourthdown-api/internal/logic"
	"github.com/openmohaa/fourthdown-api/internal/models"
)

// Metric selects what each heat-map cell shows.
type Metric string

const (
	// MetricRecommendation colours cells by the recommended option.
	MetricRecommendation Metric = "recommendation"
	// MetricMargin shades the recommendation by how far it beats the runner-up.
	MetricMargin Metric = "margin"
	// MetricBreakEven shades cells by the break-even conversion probability.
	MetricBreakEven Metric = "break_even"
)

var optionColors = map[models.Option]string{
	models.OptionGo:   "#2ecc71",
	models.OptionFG:   "#4a90e2",
	models.OptionPunt: "#e74c3c",
}

const (
	width        = 900
	padding      = 60
	legendHeight = 40
	cellHeight   = 28
	background   = "#1a1a1a"
	emptyCell    = "#333333"
	breakEvenHue = "#f1c40f"
)

// ParseMetric accepts a metric name; empty means recommendation.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MetricRecommendation, nil
	case MetricRecommendation, MetricMargin, MetricBreakEven:
		return m, nil
	default:
		return "", fmt.Errorf("unknown chart metric: %q", s)
	}
}

// DefaultYardLines spans the field in five yard steps.
func DefaultYardLines() []int {
	var out []int
	for yl := 5; yl <= 95; yl += 5 {
		out = append(out, yl)
	}
	return out
}

// DefaultDistances covers the common 4th-down distances.
func DefaultDistances() []float64 {
	return []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 12, 15}
}

// Grid holds one decision per (distance, yard line) pair. Cells[i][j] is
// Distances[i] to go at YardLines[j].
type Grid struct {
	YardLines []int
	Distances []float64
	Cells     [][]*models.Decision
}

// ErrNoTables is returned when the service has no lookup tables loaded.
var ErrNoTables = errors.New("no lookup tables loaded")

// NewGrid evaluates every cell against a single snapshot so the whole chart
// reflects one version of the tables.
func NewGrid(svc logic.DecisionService, yardLines []int, distances []float64) (*Grid, error) {
	tables := svc.Tables()
	if tables == nil {
		return nil, ErrNoTables
	}
	g := &Grid{
		YardLines: yardLines,
		Distances: distances,
		Cells:     make([][]*models.Decision, len(distances)),
	}
	for i, ytg := range distances {
		g.Cells[i] = make([]*models.Decision, len(yardLines))
		for j, yl := range yardLines {
			g.Cells[i][j] = logic.Evaluate(tables, yl, ytg, models.Overrides{})
		}
	}
	return g, nil
}

// Counts tallies recommendations across the grid.
func (g *Grid) Counts() map[models.Option]int {
	counts := make(map[models.Option]int, len(models.Options))
	for _, row := range g.Cells {
		for _, d := range row {
			counts[d.Recommendation]++
		}
	}
	return counts
}

// SVG renders the grid as a heat-map.
func SVG(g *Grid, title string, metric Metric) (string, error) {
	if len(g.YardLines) == 0 || len(g.Distances) == 0 {
		return "", fmt.Errorf("chart grid is empty")
	}
	if _, err := ParseMetric(string(metric)); err != nil {
		return "", err
	}

	cellWidth := (width - 2*padding) / len(g.YardLines)
	height := 2*padding + legendHeight + cellHeight*len(g.Distances)
	top := padding

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`, width, height, width, height))

	// Background
	sb.WriteString(fmt.Sprintf(`<rect width="100%%" height="100%%" fill="%s" />`, background))

	// Title
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="30" fill="white" font-family="Arial" font-size="20" text-anchor="middle">%s</text>`, width/2, html.EscapeString(title)))

	for i, ytg := range g.Distances {
		y := top + i*cellHeight

		// Row label
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="white" font-family="Arial" font-size="12" text-anchor="end">%s</text>`, padding-8, y+cellHeight/2+4, formatDistance(ytg)))

		for j, d := range g.Cells[i] {
			x := padding + j*cellWidth
			fill, opacity := cellStyle(d, metric)
			sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s" fill-opacity="%.2f" stroke="%s" stroke-width="1"><title>%s</title></rect>`,
				x, y, cellWidth, cellHeight, fill, opacity, background, cellTooltip(d)))
		}
	}

	bottom := top + cellHeight*len(g.Distances)

	// Column labels
	for j, yl := range g.YardLines {
		x := padding + j*cellWidth + cellWidth/2
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="white" font-family="Arial" font-size="12" text-anchor="middle">%d</text>`, x, bottom+16, yl))
	}

	// X-axis
	sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="white" stroke-width="2" />`, padding, bottom, padding+cellWidth*len(g.YardLines), bottom))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="white" font-family="Arial" font-size="12" text-anchor="middle">Yard line (own goal = 0)</text>`, width/2, bottom+34))

	writeLegend(&sb, metric, bottom+legendHeight+10)

	sb.WriteString(`</svg>`)
	return sb.String(), nil
}

func writeLegend(sb *strings.Builder, metric Metric, y int) {
	if metric == MetricBreakEven {
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="14" height="14" fill="%s" />`, padding, y-11, breakEvenHue))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="white" font-family="Arial" font-size="12">brighter = higher break-even p(convert)</text>`, padding+20, y))
		return
	}
	for i, o := range models.Options {
		x := padding + i*120
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="14" height="14" fill="%s" />`, x, y-11, optionColors[o]))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="white" font-family="Arial" font-size="12">%s</text>`, x+20, y, strings.ToUpper(string(o))))
	}
}

func cellStyle(d *models.Decision, metric Metric) (string, float64) {
	switch metric {
	case MetricBreakEven:
		if d.BreakEvenPConvert == nil {
			return emptyCell, 1
		}
		return breakEvenHue, 0.15 + 0.85*(*d.BreakEvenPConvert)
	case MetricMargin:
		// Scale so a one point edge is fully saturated
		return optionColors[d.Recommendation], 0.25 + 0.75*min(1, margin(d))
	default:
		return optionColors[d.Recommendation], 1
	}
}

// margin is how far the best option's EV exceeds the runner-up.
func margin(d *models.Decision) float64 {
	gap := -1.0
	for _, o := range models.Options {
		if o == d.Recommendation {
			continue
		}
		if delta := -d.DeltaEV.Get(o); gap < 0 || delta < gap {
			gap = delta
		}
	}
	return max(0, gap)
}

func cellTooltip(d *models.Decision) string {
	return fmt.Sprintf("4th and %s at %d: %s (go %+.2f, fg %+.2f, punt %+.2f)",
		formatDistance(d.YardsToGo), d.YardLine, strings.ToUpper(string(d.Recommendation)),
		d.EV.Go, d.EV.FG, d.EV.Punt)
}

func formatDistance(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}

// Save writes an SVG document, creating parent directories as needed.
func Save(path, svg string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(svg), 0644)
}
