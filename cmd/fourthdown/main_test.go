package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmohaa/fourthdown-api/internal/chart"
	"github.com/openmohaa/fourthdown-api/internal/lookup"
	"github.com/openmohaa/fourthdown-api/internal/models"
)

const flatResource = `{
  "convert": [[0.5, 0.95], [10, 0.95]],
  "fg": [[20, 0.5], [65, 0.5]],
  "ep": [[1, -1.0], [99, 1.0]],
  "punt_net": [[10, 30], [90, 30]],
  "wp": [[-1.0, 0.3], [1.0, 0.7]]
}`

// resetFlags restores flag variables between runs of the shared command tree.
func resetFlags() {
	lookupsPath = ""
	store = nil

	evaluateFlags.yardLine, evaluateFlags.yardsToGo = "", ""
	evaluateFlags.json, evaluateFlags.showWP = false, false
	evaluateFlags.overrides.reset()

	batchFlags.input, batchFlags.inputFormat = "", ""
	batchFlags.output, batchFlags.outputFormat = "", ""
	batchFlags.force, batchFlags.json, batchFlags.showWP = false, false, false
	batchFlags.overrides.reset()

	chartFlags.output = "fourthdown_chart.svg"
	chartFlags.metric = string(chart.MetricRecommendation)
	chartFlags.title = "4th Down Decisions"

	lookupsFlags.showFormat = "json"
	lookupsFlags.convertFormat = ""
	lookupsFlags.output = ""
	lookupsFlags.force = false
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEvaluate_Text(t *testing.T) {
	out, err := execute(t, "evaluate", "--yard-line", "20", "--yards-to-go", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "Yard line: 20")
	assert.Contains(t, out, "Yards to go: 1.0")
	assert.Contains(t, out, "Recommendation: PUNT")
	assert.NotContains(t, out, "Win Probability")
}

func TestEvaluate_UnderscoreFlagsAndJSON(t *testing.T) {
	out, err := execute(t, "evaluate", "--yard_line", "90", "--yards_to_go", "5", "--json")
	require.NoError(t, err)

	var d models.Decision
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, models.OptionFG, d.Recommendation)
	assert.Equal(t, 27, d.FGDistance)
}

func TestEvaluate_Overrides(t *testing.T) {
	out, err := execute(t, "evaluate", "--yard-line", "50", "--yards-to-go", "2", "--p-convert", "0.2", "--show-wp")
	require.NoError(t, err)

	assert.Contains(t, out, "P(convert): 0.200")
	assert.Contains(t, out, "(overridden from model to 0.200)")
	assert.Contains(t, out, "Win Probability (approx.):")
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"Missing Arguments", []string{"evaluate", "--yard-line", "20"}, "you must specify --yard-line and --yards-to-go"},
		{"Yard Line Out Of Range", []string{"evaluate", "--yard-line", "0", "--yards-to-go", "1"}, "between 1 and 99"},
		{"Negative Distance", []string{"evaluate", "--yard-line", "20", "--yards-to-go", "-1"}, "must be positive"},
		{"Probability Out Of Range", []string{"evaluate", "--yard-line", "20", "--yards-to-go", "1", "--p-convert", "1.5"}, "--p-convert must be between 0 and 1"},
		{"Non Positive Punt Net", []string{"evaluate", "--yard-line", "20", "--yards-to-go", "1", "--punt-net", "0"}, "--punt-net must be positive"},
		{"Non Numeric Override", []string{"evaluate", "--yard-line", "20", "--yards-to-go", "1", "--p-fg", "high"}, "must be numeric"},
		{"NaN Probability", []string{"evaluate", "--yard-line", "20", "--yards-to-go", "1", "--p-convert", "NaN"}, "must be numeric"},
		{"Infinite Punt Net", []string{"evaluate", "--yard-line", "20", "--yards-to-go", "1", "--punt-net", "+Inf"}, "must be numeric"},
		{"NaN Yards To Go", []string{"evaluate", "--yard-line", "20", "--yards-to-go", "NaN"}, "must be numeric"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBatch_RejectsNonFiniteGlobalOverride(t *testing.T) {
	input := writeTemp(t, "plays.csv", "yard_line,yards_to_go\n20,1\n")

	_, err := execute(t, "batch", "--input", input, "--p-fg", "nan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be numeric")
}

func TestOverrideFlags_NonFinite(t *testing.T) {
	var o overrideFlags
	assert.Error(t, o.pConvert.Set("NaN"))
	assert.Error(t, o.pFG.Set("-Inf"))

	ov, err := o.overrides()
	require.NoError(t, err)
	assert.Nil(t, ov.PConvert, "rejected values must not be recorded")
	assert.Nil(t, ov.PFGMake)
}

func TestLookupsFlag(t *testing.T) {
	path := writeTemp(t, "flat.json", flatResource)

	out, err := execute(t, "--lookups", path, "evaluate", "--yard-line", "50", "--yards-to-go", "5", "--json")
	require.NoError(t, err)

	var d models.Decision
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, 0.95, d.ProbConvert)

	_, err = execute(t, "--lookups", filepath.Join(t.TempDir(), "missing.json"), "evaluate", "--yard-line", "50", "--yards-to-go", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load lookups")
}

func TestBatch_Table(t *testing.T) {
	input := writeTemp(t, "plays.csv", "yard_line,yards_to_go\n20,1\n90,5\n99,1\n")

	out, err := execute(t, "batch", "--input", input)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "yard_line,yards_to_go,recommendation,go_ev,fg_ev,punt_ev,go_delta_ev,fg_delta_ev,punt_delta_ev,break_even_p_convert", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "20,1.0,punt,"))
	assert.True(t, strings.HasPrefix(lines[2], "90,5.0,fg,"))
	assert.True(t, strings.HasPrefix(lines[3], "99,1.0,go,"))
}

func TestBatch_JSONWithGlobalOverride(t *testing.T) {
	input := writeTemp(t, "plays.json", `[{"yard_line": 50, "yards_to_go": 2}, {"yard_line": 50, "yards_to_go": 2, "p_convert": 0.9}]`)

	out, err := execute(t, "batch", "--input", input, "--p-convert", "0.2", "--json")
	require.NoError(t, err)

	var results []models.Decision
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, 0.2, results[0].ProbConvert)
	assert.Equal(t, 0.9, results[1].ProbConvert)
}

func TestBatch_OutputFile(t *testing.T) {
	input := writeTemp(t, "plays.csv", "yard_line,yards_to_go\n20,1\n")
	output := filepath.Join(t.TempDir(), "results.tsv")

	out, err := execute(t, "batch", "--input", input, "--output", output, "--show-wp")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 rows to "+output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "yard_line\tyards_to_go\t"))
	assert.Contains(t, string(data), "punt_delta_wp")

	_, err = execute(t, "batch", "--input", input, "--output", output)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	_, err = execute(t, "batch", "--input", input, "--output", output, "--output-format", "json", "--force")
	require.NoError(t, err)
	data, err = os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "["))
}

func TestBatch_InvalidRowWritesNothing(t *testing.T) {
	input := writeTemp(t, "plays.csv", "yard_line,yards_to_go\n20,1\n20,zero\n")
	output := filepath.Join(t.TempDir(), "results.csv")

	_, err := execute(t, "batch", "--input", input, "--output", output)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2: yards_to_go must be numeric")

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBatch_RequiresInput(t *testing.T) {
	_, err := execute(t, "batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--input is required")
}

func TestChart(t *testing.T) {
	output := filepath.Join(t.TempDir(), "charts", "decisions.svg")

	out, err := execute(t, "chart", "--output", output, "--metric", "margin")
	require.NoError(t, err)
	assert.Contains(t, out, "Chart generated")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<svg"))

	_, err = execute(t, "chart", "--output", output, "--metric", "nope")
	assert.Error(t, err)
}

func TestLookupsShow(t *testing.T) {
	out, err := execute(t, "lookups", "show")
	require.NoError(t, err)
	_, err = lookup.Parse([]byte(out), "show.json")
	require.NoError(t, err, "show output should be a valid resource")

	out, err = execute(t, "lookups", "show", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "convert:")
	_, err = lookup.Parse([]byte(out), "show.yaml")
	assert.NoError(t, err)
}

func TestLookupsValidate(t *testing.T) {
	good := writeTemp(t, "good.json", flatResource)
	bad := writeTemp(t, "bad.json", `{"convert": [[1, 0.5]]}`)

	out, err := execute(t, "lookups", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+good)

	out, err = execute(t, "lookups", "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "✗ "+bad)
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestLookupsConvert(t *testing.T) {
	src := writeTemp(t, "flat.json", flatResource)
	dst := filepath.Join(t.TempDir(), "flat.yaml")

	_, err := execute(t, "lookups", "convert", src, "--output", dst)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	converted, err := lookup.Parse(data, dst)
	require.NoError(t, err)
	assert.Equal(t, 0.95, converted.Interpolate(lookup.CurveConvert, 5))

	_, err = execute(t, "lookups", "convert", src, "--output", dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	out, err := execute(t, "lookups", "convert", dst, "--format", "json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"))
}
