package batch

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/openmohaa/fourthdown-api/internal/logic"
	"github.com/openmohaa/fourthdown-api/internal/models"
)

// Format names a batch input or output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

var requiredColumns = []string{"yard_line", "yards_to_go"}

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatTSV, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %q", s)
	}
}

// FormatFromPath guesses the format from a file extension, falling back to CSV.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatCSV
}

// Case is one situation to evaluate. Nil overrides defer to the global value.
type Case struct {
	YardLine  int
	YardsToGo float64
	PConvert  *float64
	PFG       *float64
	PuntNet   *float64
}

// Overrides merges the case's own overrides over the global ones.
func (c Case) Overrides(global models.Overrides) models.Overrides {
	return models.Overrides{PConvert: c.PConvert, PFGMake: c.PFG, PuntNet: c.PuntNet}.Or(global)
}

// Run evaluates cases in order against one tables snapshot.
func Run(svc logic.DecisionService, cases []Case, global models.Overrides) []*models.Decision {
	if t := svc.Tables(); t != nil {
		svc = logic.Pin(t)
	}
	results := make([]*models.Decision, 0, len(cases))
	for _, c := range cases {
		results = append(results, svc.Evaluate(c.YardLine, c.YardsToGo, c.Overrides(global)))
	}
	return results
}

// LoadCases reads a batch file. The first invalid row aborts the whole load.
func LoadCases(path string, format Format) ([]Case, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch input: %w", err)
	}
	defer file.Close()

	return ReadCases(file, format)
}

// ReadCases decodes cases from r.
func ReadCases(r io.Reader, format Format) ([]Case, error) {
	switch format {
	case FormatCSV, FormatTSV:
		reader := csv.NewReader(r)
		if format == FormatTSV {
			reader.Comma = '\t'
		}
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s input: %w", format, err)
		}
		return casesFromRows(rows, string(format))
	case FormatXLSX:
		return readExcelCases(r)
	case FormatJSON:
		return readJSONCases(r)
	default:
		return nil, fmt.Errorf("unsupported input format: %q", format)
	}
}

func readExcelCases(r io.Reader) ([]Case, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel input: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("Excel input has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheets[0], err)
	}
	return casesFromRows(rows, "xlsx")
}

// casesFromRows handles any tabular input whose first row names the columns.
func casesFromRows(rows [][]string, label string) ([]Case, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s input missing columns: %s", label, strings.Join(requiredColumns, ", "))
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%s input missing columns: %s", label, strings.Join(missing, ", "))
	}

	cases := make([]Case, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		get := func(col string) string {
			if idx, ok := index[col]; ok && idx < len(row) {
				return row[idx]
			}
			return ""
		}
		c, err := parseCase(get)
		if err != nil {
			return nil, withRow(err, i+1)
		}
		cases = append(cases, c)
	}
	return cases, nil
}

func readJSONCases(r io.Reader) ([]Case, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON input: %w", err)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, errors.New("JSON input must be a list of {yard_line, yards_to_go}")
	}

	cases := make([]Case, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("JSON entry %d is not an object", i+1)
		}
		if _, ok := obj["yard_line"]; !ok {
			return nil, fmt.Errorf("JSON entry %d missing required keys", i+1)
		}
		if _, ok := obj["yards_to_go"]; !ok {
			return nil, fmt.Errorf("JSON entry %d missing required keys", i+1)
		}

		var fieldErr error
		get := func(key string) string {
			s, err := jsonScalar(obj[key])
			if err != nil && fieldErr == nil {
				fieldErr = &ValidationError{Field: key, Message: "must be numeric"}
			}
			return s
		}
		c, err := parseCase(get)
		if fieldErr != nil {
			err = fieldErr
		}
		if err != nil {
			return nil, withRow(err, i+1)
		}
		cases = append(cases, c)
	}
	return cases, nil
}

func parseCase(get func(string) string) (Case, error) {
	var (
		c   Case
		err error
	)
	if c.YardLine, err = ParseYardLine(get("yard_line")); err != nil {
		return c, err
	}
	if c.YardsToGo, err = ParseYardsToGo(get("yards_to_go")); err != nil {
		return c, err
	}
	if c.PConvert, err = ParseOptionalProb(get("p_convert"), "p_convert"); err != nil {
		return c, err
	}
	if c.PFG, err = ParseOptionalProb(get("p_fg"), "p_fg"); err != nil {
		return c, err
	}
	if c.PuntNet, err = ParseOptionalPuntNet(get("punt_net")); err != nil {
		return c, err
	}
	return c, nil
}

// jsonScalar renders a decoded JSON value as the text the parsers expect.
func jsonScalar(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case json.Number:
		return val.String(), nil
	case string:
		return val, nil
	default:
		return "", fmt.Errorf("unexpected %T", v)
	}
}

func withRow(err error, row int) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Row = row
		return ve
	}
	return fmt.Errorf("row %d: %w", row, err)
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
