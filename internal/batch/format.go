package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/openmohaa/fourthdown-api/internal/models"
)

// ErrOutputExists is returned by WriteFile when the target exists and force is off.
var ErrOutputExists = errors.New("output already exists")

const resultsSheet = "Results"

// Header lists the table columns.
func Header(includeWP bool) []string {
	header := []string{
		"yard_line",
		"yards_to_go",
		"recommendation",
		"go_ev",
		"fg_ev",
		"punt_ev",
		"go_delta_ev",
		"fg_delta_ev",
		"punt_delta_ev",
		"break_even_p_convert",
	}
	if includeWP {
		header = append(header,
			"go_wp",
			"fg_wp",
			"punt_wp",
			"go_delta_wp",
			"fg_delta_wp",
			"punt_delta_wp",
		)
	}
	return header
}

// Row renders one decision in Header order.
func Row(d *models.Decision, includeWP bool) []string {
	row := []string{
		strconv.Itoa(d.YardLine),
		FormatYards(d.YardsToGo),
		string(d.Recommendation),
	}
	row = append(row, fixed3(d.EV)...)
	row = append(row, fixed3(d.DeltaEV)...)
	if d.BreakEvenPConvert != nil {
		row = append(row, fmt.Sprintf("%.3f", *d.BreakEvenPConvert))
	} else {
		row = append(row, "")
	}
	if includeWP {
		row = append(row, fixed3(d.WP)...)
		row = append(row, fixed3(d.DeltaWP)...)
	}
	return row
}

func fixed3(v models.OptionValues) []string {
	out := make([]string, 0, len(models.Options))
	for _, o := range models.Options {
		out = append(out, fmt.Sprintf("%.3f", v.Get(o)))
	}
	return out
}

// FormatYards prints a distance the way users type it: whole numbers keep one
// decimal place ("2.0"), fractions print as short as possible.
func FormatYards(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e16 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatTable joins the header and rows with delimiter, one line each.
func FormatTable(results []*models.Decision, includeWP bool, delimiter string) string {
	lines := make([]string, 0, len(results)+1)
	lines = append(lines, strings.Join(Header(includeWP), delimiter))
	for _, d := range results {
		lines = append(lines, strings.Join(Row(d, includeWP), delimiter))
	}
	return strings.Join(lines, "\n")
}

// WriteJSON writes results as an indented JSON array.
func WriteJSON(w io.Writer, results []*models.Decision) error {
	if results == nil {
		results = []*models.Decision{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteXLSX writes results to a single-sheet workbook. Numbers are stored as
// numbers so the sheet can be charted without conversion.
func WriteXLSX(w io.Writer, results []*models.Decision, includeWP bool) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return err
	}

	for i, h := range Header(includeWP) {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(resultsSheet, cell, h); err != nil {
			return err
		}
	}

	for r, d := range results {
		rowIdx := r + 2
		for c, v := range xlsxRow(d, includeWP) {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowIdx)
			if err := f.SetCellValue(resultsSheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

func xlsxRow(d *models.Decision, includeWP bool) []any {
	row := []any{d.YardLine, d.YardsToGo, string(d.Recommendation)}
	for _, o := range models.Options {
		row = append(row, d.EV.Get(o))
	}
	for _, o := range models.Options {
		row = append(row, d.DeltaEV.Get(o))
	}
	if d.BreakEvenPConvert != nil {
		row = append(row, *d.BreakEvenPConvert)
	} else {
		row = append(row, nil)
	}
	if includeWP {
		for _, o := range models.Options {
			row = append(row, d.WP.Get(o))
		}
		for _, o := range models.Options {
			row = append(row, d.DeltaWP.Get(o))
		}
	}
	return row
}

// Write encodes results in the given format.
func Write(w io.Writer, format Format, results []*models.Decision, includeWP bool) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, results)
	case FormatXLSX:
		return WriteXLSX(w, results, includeWP)
	case FormatCSV, FormatTSV:
		delimiter := ","
		if format == FormatTSV {
			delimiter = "\t"
		}
		_, err := io.WriteString(w, FormatTable(results, includeWP, delimiter)+"\n")
		return err
	default:
		return fmt.Errorf("unsupported output format: %q", format)
	}
}

// WriteFile writes results to path. An existing file is only replaced when
// force is set.
func WriteFile(path string, format Format, results []*models.Decision, includeWP, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w; use --force to overwrite", path, ErrOutputExists)
		}
		return fmt.Errorf("failed to create output: %w", err)
	}

	if err := Write(file, format, results, includeWP); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

// SingleOptions controls WriteSingle.
type SingleOptions struct {
	ShowWP bool
	// Overrides are echoed so the reader knows the model was bypassed
	Overrides models.Overrides
}

// WriteSingle prints a human-readable report for one decision.
func WriteSingle(w io.Writer, d *models.Decision, opts SingleOptions) error {
	var b strings.Builder

	b.WriteString("\n4th Down Decision (EV-based)\n")
	b.WriteString("----------------------------\n")
	fmt.Fprintf(&b, "Yard line: %d\n", d.YardLine)
	fmt.Fprintf(&b, "Yards to go: %s\n\n", FormatYards(d.YardsToGo))

	fmt.Fprintf(&b, "P(convert): %.3f\n", d.ProbConvert)
	if p := opts.Overrides.PConvert; p != nil {
		fmt.Fprintf(&b, "  (overridden from model to %.3f)\n", *p)
	}
	fmt.Fprintf(&b, "FG distance: %d | P(make): %.3f\n", d.FGDistance, d.ProbFGMake)
	if p := opts.Overrides.PFGMake; p != nil {
		fmt.Fprintf(&b, "  (overridden from model to %.3f)\n", *p)
	}
	if n := opts.Overrides.PuntNet; n != nil {
		fmt.Fprintf(&b, "Punt net: %s yards (overridden)\n", FormatYards(*n))
	}

	b.WriteString("\nExpected Value (EP units):\n")
	writeSigned(&b, d.EV)

	be := "N/A"
	if d.BreakEvenPConvert != nil {
		be = fmt.Sprintf("%.3f", *d.BreakEvenPConvert)
	}
	fmt.Fprintf(&b, "\nBreak-even p(convert) vs best non-go: %s\n\n", be)

	b.WriteString("Delta vs best (EV):\n")
	writeSigned(&b, d.DeltaEV)

	if opts.ShowWP {
		b.WriteString("\nWin Probability (approx.):\n")
		for _, o := range models.Options {
			fmt.Fprintf(&b, "  %4s: %.3f\n", o, d.WP.Get(o))
		}
		b.WriteString("\nDelta vs best (WP):\n")
		writeSigned(&b, d.DeltaWP)
	}

	fmt.Fprintf(&b, "\nRecommendation: %s\n\n", strings.ToUpper(string(d.Recommendation)))

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSigned(b *strings.Builder, v models.OptionValues) {
	for _, o := range models.Options {
		fmt.Fprintf(b, "  %4s: %+.3f\n", o, v.Get(o))
	}
}
