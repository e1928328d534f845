package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnmarshalJSON accepts both native JSON numbers and numeric strings, since
// spreadsheet exports and HTML forms tend to quote everything. Empty strings
// and nulls leave optional fields unset.
func (r *EvaluateRequest) UnmarshalJSON(data []byte) error {
	// Alias prevents infinite recursion
	type Alias EvaluateRequest
	a := (*Alias)(r)

	// Fast path: all values already have native types
	if err := json.Unmarshal(data, a); err == nil {
		return nil
	}

	// Slow path: field-by-field with string-to-number coercion
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex unmarshal: %w", err)
	}

	*r = EvaluateRequest{}
	if v, ok := raw["yard_line"]; ok {
		n, set, err := flexFloat(v)
		if err != nil {
			return fmt.Errorf("yard_line: %w", err)
		}
		if set {
			if n != math.Trunc(n) {
				return fmt.Errorf("yard_line: must be an integer, got %v", n)
			}
			r.YardLine = int(n)
		}
	}
	if v, ok := raw["yards_to_go"]; ok {
		n, _, err := flexFloat(v)
		if err != nil {
			return fmt.Errorf("yards_to_go: %w", err)
		}
		r.YardsToGo = n
	}

	optional := []struct {
		key string
		dst **float64
	}{
		{"p_convert", &r.PConvert},
		{"p_fg", &r.PFG},
		{"punt_net", &r.PuntNet},
	}
	for _, f := range optional {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		n, set, err := flexFloat(v)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		if set {
			*f.dst = &n
		}
	}
	return nil
}

// flexFloat decodes a JSON number, numeric string, empty string or null.
// The bool reports whether a value was present.
func flexFloat(raw json.RawMessage) (float64, bool, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return 0, false, nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true, nil
	}

	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false, fmt.Errorf("must be numeric")
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	// ParseFloat accepts "NaN" and "Inf", which JSON numbers cannot carry
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false, fmt.Errorf("must be numeric, got %q", *s)
	}
	return n, true, nil
}
