package batch

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError describes a rejected input value. Row is 1-based and zero
// when the value did not come from a batch file.
type ValidationError struct {
	Row     int
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ParseYardLine accepts an integer in [1, 99].
func ParseYardLine(s string) (int, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.Atoi(s)
	if err != nil {
		// "40.0" is a common spreadsheet export for an integer cell
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, &ValidationError{Field: "yard_line", Message: "must be an integer"}
		}
		v = int(f)
	}
	if v < 1 || v > 99 {
		return 0, &ValidationError{Field: "yard_line", Message: "must be between 1 and 99"}
	}
	return v, nil
}

// ParseYardsToGo accepts a positive real number.
func ParseYardsToGo(s string) (float64, error) {
	v, err := parseFinite(strings.TrimSpace(s))
	if err != nil {
		return 0, &ValidationError{Field: "yards_to_go", Message: "must be numeric"}
	}
	if v <= 0 {
		return 0, &ValidationError{Field: "yards_to_go", Message: "must be positive"}
	}
	return v, nil
}

// ParseOptionalProb returns nil for an empty value, otherwise a probability.
func ParseOptionalProb(s, label string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := parseFinite(s)
	if err != nil {
		return nil, &ValidationError{Field: label, Message: "must be numeric"}
	}
	if v < 0 || v > 1 {
		return nil, &ValidationError{Field: label, Message: "must be between 0 and 1"}
	}
	return &v, nil
}

// ParseOptionalPuntNet returns nil for an empty value, otherwise a positive net.
func ParseOptionalPuntNet(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := parseFinite(s)
	if err != nil {
		return nil, &ValidationError{Field: "punt_net", Message: "must be numeric"}
	}
	if v <= 0 {
		return nil, &ValidationError{Field: "punt_net", Message: "must be positive"}
	}
	return &v, nil
}

// ValidateOverrides checks global overrides supplied outside a batch file.
func ValidateOverrides(pConvert, pFG, puntNet *float64) error {
	for _, p := range []struct {
		label string
		v     *float64
	}{{"p_convert", pConvert}, {"p_fg", pFG}} {
		if p.v == nil {
			continue
		}
		if !finite(*p.v) {
			return &ValidationError{Field: p.label, Message: "must be numeric"}
		}
		if *p.v < 0 || *p.v > 1 {
			return &ValidationError{Field: p.label, Message: "must be between 0 and 1"}
		}
	}
	if puntNet != nil {
		if !finite(*puntNet) {
			return &ValidationError{Field: "punt_net", Message: "must be numeric"}
		}
		if *puntNet <= 0 {
			return &ValidationError{Field: "punt_net", Message: "must be positive"}
		}
	}
	return nil
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if !finite(v) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
