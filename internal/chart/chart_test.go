package chart

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openmohaa/fourthdown-api/internal/logic"
	"github.com/openmohaa/fourthdown-api/internal/lookup"
	"github.com/openmohaa/fourthdown-api/internal/models"
)

func newTestGrid(t *testing.T) *Grid {
	t.Helper()
	store, err := lookup.NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	g, err := NewGrid(logic.NewDecisionService(store), []int{20, 70, 90, 99}, []float64{1, 4, 5})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

type emptySource struct{}

func (emptySource) Snapshot() *lookup.Tables { return nil }

func TestNewGrid_NoTables(t *testing.T) {
	g, err := NewGrid(logic.NewDecisionService(emptySource{}), DefaultYardLines(), DefaultDistances())
	if !errors.Is(err, ErrNoTables) {
		t.Errorf("err = %v, want ErrNoTables", err)
	}
	if g != nil {
		t.Error("grid should be nil without tables")
	}
}

func TestNewGrid(t *testing.T) {
	g := newTestGrid(t)

	if len(g.Cells) != 3 || len(g.Cells[0]) != 4 {
		t.Fatalf("unexpected grid shape %dx%d", len(g.Cells), len(g.Cells[0]))
	}

	tests := []struct {
		row, col int
		want     models.Option
	}{
		{0, 0, models.OptionPunt}, // 4th and 1 at own 20
		{1, 1, models.OptionFG},   // 4th and 4 at opponent 30
		{2, 2, models.OptionFG},   // 4th and 5 at opponent 10
		{0, 3, models.OptionGo},   // 4th and 1 at the goal line
	}
	for _, tt := range tests {
		d := g.Cells[tt.row][tt.col]
		if d.Recommendation != tt.want {
			t.Errorf("cell (%v, %d) = %s, want %s", d.YardsToGo, d.YardLine, d.Recommendation, tt.want)
		}
	}

	total := 0
	for _, n := range g.Counts() {
		total += n
	}
	if total != 12 {
		t.Errorf("Counts total = %d, want 12", total)
	}
}

func TestSVG(t *testing.T) {
	g := newTestGrid(t)

	for _, metric := range []Metric{MetricRecommendation, MetricMargin, MetricBreakEven} {
		t.Run(string(metric), func(t *testing.T) {
			svg, err := SVG(g, "4th Down <Decisions>", metric)
			if err != nil {
				t.Fatalf("SVG: %v", err)
			}
			if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
				t.Error("output is not an svg document")
			}
			if !strings.Contains(svg, "4th Down &lt;Decisions&gt;") {
				t.Error("title should be escaped")
			}
			if got := strings.Count(svg, "<title>"); got != 12 {
				t.Errorf("cell count = %d, want 12", got)
			}
		})
	}

	if _, err := SVG(g, "x", Metric("heat")); err == nil {
		t.Error("expected error for unknown metric")
	}
	if _, err := SVG(&Grid{}, "x", MetricRecommendation); err == nil {
		t.Error("expected error for empty grid")
	}
}

func TestParseMetric(t *testing.T) {
	if m, err := ParseMetric(""); err != nil || m != MetricRecommendation {
		t.Errorf("ParseMetric(\"\") = %v, %v", m, err)
	}
	if m, err := ParseMetric("Break_Even"); err != nil || m != MetricBreakEven {
		t.Errorf("ParseMetric(Break_Even) = %v, %v", m, err)
	}
	if _, err := ParseMetric("wp"); err == nil {
		t.Error("expected error")
	}
}

func TestMargin(t *testing.T) {
	d := &models.Decision{
		Recommendation: models.OptionFG,
		DeltaEV:        models.OptionValues{Go: -0.4, FG: 0, Punt: -1.2},
	}
	if got := margin(d); got != 0.4 {
		t.Errorf("margin = %v, want 0.4", got)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chart.svg")
	if err := Save(path, "<svg></svg>"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "<svg></svg>" {
		t.Errorf("saved %q, %v", data, err)
	}
}
