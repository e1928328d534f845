package lookup

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/openmohaa/fourthdown-api/internal/interp"
)

// CurveName identifies one of the lookup curves.
type CurveName string

const (
	CurveConvert CurveName = "convert"  // yards to go -> conversion probability
	CurveFG      CurveName = "fg"       // kick distance -> make probability
	CurveEP      CurveName = "ep"       // yard line -> expected points
	CurvePuntNet CurveName = "punt_net" // yard line -> net punt yards
	CurveWP      CurveName = "wp"       // expected value -> win probability
)

// Curves lists every required curve in resource order.
var Curves = []CurveName{CurveConvert, CurveFG, CurveEP, CurvePuntNet, CurveWP}

// Format is the encoding of a lookup resource.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the resource format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Tables is an immutable snapshot of all lookup curves. A snapshot is never
// modified after Parse returns it; reloading produces a new snapshot.
type Tables struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`

	curves map[CurveName][]interp.Point
}

// Get returns a copy of the named curve, sorted by x.
func (t *Tables) Get(name CurveName) []interp.Point {
	pts := t.curves[name]
	out := make([]interp.Point, len(pts))
	copy(out, pts)
	return out
}

// Interpolate evaluates the named curve at v without copying it.
func (t *Tables) Interpolate(name CurveName, v float64) float64 {
	return interp.Interpolate(v, t.curves[name])
}

// Resource returns the snapshot in its resource shape: curve -> [[x, y], ...].
func (t *Tables) Resource() map[string][][2]float64 {
	out := make(map[string][][2]float64, len(t.curves))
	for _, name := range Curves {
		pts := t.curves[name]
		pairs := make([][2]float64, len(pts))
		for i, p := range pts {
			pairs[i] = [2]float64{p.X, p.Y}
		}
		out[string(name)] = pairs
	}
	return out
}

// MarshalJSON encodes the snapshot metadata with its curves.
func (t *Tables) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string                  `json:"id"`
		Source   string                  `json:"source"`
		LoadedAt time.Time               `json:"loaded_at"`
		Curves   map[string][][2]float64 `json:"curves"`
	}{t.ID, t.Source, t.LoadedAt, t.Resource()})
}

// Encode renders the curves as a lookup resource in the given format.
func (t *Tables) Encode(format Format) ([]byte, error) {
	if format == FormatYAML {
		// Flow style keeps one [x, y] pair per line.
		doc := &yaml.Node{Kind: yaml.MappingNode}
		for _, name := range Curves {
			seq := &yaml.Node{Kind: yaml.SequenceNode}
			for _, p := range t.curves[name] {
				pair := &yaml.Node{}
				if err := pair.Encode([]float64{p.X, p.Y}); err != nil {
					return nil, err
				}
				pair.Style = yaml.FlowStyle
				seq.Content = append(seq.Content, pair)
			}
			doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: string(name)}, seq)
		}
		return yaml.Marshal(doc)
	}
	return json.MarshalIndent(t.Resource(), "", "  ")
}

// Parse decodes a lookup resource. The format is chosen from the source name's
// extension; anything that is not YAML is treated as JSON.
func Parse(data []byte, source string) (*Tables, error) {
	return ParseFormat(data, source, FormatFromPath(source))
}

// ParseFormat decodes a lookup resource in an explicit format. Either every
// curve is present and well formed, or an error is returned.
func ParseFormat(data []byte, source string, format Format) (*Tables, error) {
	var raw any
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, &MalformedResourceError{Source: source, Reason: "top level must be a mapping of curve name to points"}
	}

	curves := make(map[CurveName][]interp.Point, len(Curves))
	for _, name := range Curves {
		val, ok := doc[string(name)]
		if !ok {
			return nil, &MalformedResourceError{Source: source, Curve: string(name), Reason: "missing"}
		}
		pts, err := decodeCurve(val)
		if err != nil {
			return nil, &MalformedResourceError{Source: source, Curve: string(name), Reason: err.Error()}
		}
		curves[name] = interp.Sorted(pts)
	}

	return &Tables{
		ID:       uuid.NewString(),
		Source:   source,
		LoadedAt: time.Now().UTC(),
		curves:   curves,
	}, nil
}

func decodeCurve(val any) ([]interp.Point, error) {
	items, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("expected an array of [x, y] pairs")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no points")
	}

	pts := make([]interp.Point, 0, len(items))
	for i, item := range items {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("entry %d is not a 2-element [x, y] pair", i)
		}
		x, okX := toFloat(pair[0])
		y, okY := toFloat(pair[1])
		if !okX || !okY {
			return nil, fmt.Errorf("entry %d has non-numeric values", i)
		}
		pts = append(pts, interp.Point{X: x, Y: y})
	}
	return pts, nil
}

// toFloat accepts the numeric types produced by encoding/json and yaml.v3.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
