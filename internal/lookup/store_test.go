package lookup

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flatResource = `{
  "convert": [[0.5, 0.95], [10, 0.95]],
  "fg": [[20, 0.5], [65, 0.5]],
  "ep": [[1, -1.0], [99, 1.0]],
  "punt_net": [[10, 30], [90, 30]],
  "wp": [[-1.0, 0.3], [1.0, 0.7]]
}`

func writeResource(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewStore_LoadsBundledDefault(t *testing.T) {
	s, err := NewStore()
	require.NoError(t, err)

	snap := s.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, DefaultSource, snap.Source)
	assert.NotEmpty(t, snap.ID)
	for _, name := range Curves {
		assert.GreaterOrEqual(t, len(snap.Get(name)), 2, "curve %s", name)
	}
}

func TestStore_LoadCustomResource(t *testing.T) {
	s, err := NewStore()
	require.NoError(t, err)

	path := writeResource(t, "lookups.json", flatResource)
	require.NoError(t, s.Load(path))

	snap := s.Snapshot()
	assert.Equal(t, path, snap.Source)
	assert.Equal(t, 0.95, snap.Interpolate(CurveConvert, 5))
	assert.InDelta(t, 0.5, snap.Interpolate(CurveFG, 40), 1e-12)
	assert.InDelta(t, 0.0, snap.Interpolate(CurveEP, 50), 0.6)

	// Reset to bundled tables
	require.NoError(t, s.Load(""))
	assert.Equal(t, DefaultSource, s.Snapshot().Source)
}

func TestStore_LoadYAML(t *testing.T) {
	s, err := NewStore()
	require.NoError(t, err)

	body := `
convert: [[0.5, 0.95], [10, 0.95]]
fg: [[20, 0.5], [65, 0.5]]
ep: [[1, -1.0], [99, 1.0]]
punt_net: [[10, 30], [90, 30]]
wp: [[-1.0, 0.3], [1.0, 0.7]]
`
	path := writeResource(t, "lookups.yaml", body)
	require.NoError(t, s.Load(path))
	assert.Equal(t, 0.95, s.Snapshot().Interpolate(CurveConvert, 5))
}

func TestStore_FailedLoadKeepsPreviousTables(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		malformed bool
	}{
		{
			name: "Invalid JSON",
			body: `{"convert": [[1, 0.6]`,
		},
		{
			name:      "Missing Curve",
			body:      `{"convert": [[1, 0.6]], "fg": [[20, 0.9]], "ep": [[1, 0]], "punt_net": [[1, 40]]}`,
			malformed: true,
		},
		{
			name:      "Bad Pair",
			body:      `{"convert": [[1, 0.6, 3]], "fg": [[20, 0.9]], "ep": [[1, 0]], "punt_net": [[1, 40]], "wp": [[0, 0.5]]}`,
			malformed: true,
		},
		{
			name:      "Non Numeric",
			body:      `{"convert": [["a", 0.6]], "fg": [[20, 0.9]], "ep": [[1, 0]], "punt_net": [[1, 40]], "wp": [[0, 0.5]]}`,
			malformed: true,
		},
		{
			name:      "Empty Curve",
			body:      `{"convert": [], "fg": [[20, 0.9]], "ep": [[1, 0]], "punt_net": [[1, 40]], "wp": [[0, 0.5]]}`,
			malformed: true,
		},
		{
			name:      "Top Level Array",
			body:      `[1, 2, 3]`,
			malformed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStore()
			require.NoError(t, err)
			before := s.Snapshot()

			err = s.Load(writeResource(t, "lookups.json", tt.body))
			require.Error(t, err)

			var malformed *MalformedResourceError
			var parseErr *ParseError
			if tt.malformed {
				assert.True(t, errors.As(err, &malformed), "want MalformedResourceError, got %T", err)
			} else {
				assert.True(t, errors.As(err, &parseErr), "want ParseError, got %T", err)
			}
			assert.Same(t, before, s.Snapshot())
		})
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	s, err := NewStore()
	require.NoError(t, err)

	err = s.Load(filepath.Join(t.TempDir(), "nope.json"))
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, DefaultSource, s.Snapshot().Source)
}

func TestStore_MissingCurveNamesCurve(t *testing.T) {
	_, err := Parse([]byte(`{"convert": [[1, 0.6]], "fg": [[20, 0.9]], "ep": [[1, 0]], "wp": [[0, 0.5]]}`), "x.json")
	var malformed *MalformedResourceError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "punt_net", malformed.Curve)
}

func TestTables_GetReturnsCopy(t *testing.T) {
	s, err := NewStore()
	require.NoError(t, err)

	pts := s.Snapshot().Get(CurveConvert)
	orig := pts[0].Y
	pts[0].Y = 42

	assert.Equal(t, orig, s.Snapshot().Get(CurveConvert)[0].Y)
}

func TestParse_SortsCurves(t *testing.T) {
	body := `{"convert": [[10, 0.3], [1, 0.7]], "fg": [[20, 0.9]], "ep": [[1, 0]], "punt_net": [[1, 40]], "wp": [[0, 0.5]]}`
	tables, err := Parse([]byte(body), "unsorted.json")
	require.NoError(t, err)

	pts := tables.Get(CurveConvert)
	assert.Equal(t, 1.0, pts[0].X)
	assert.Equal(t, 10.0, pts[1].X)
}

func TestTables_EncodeRoundTrip(t *testing.T) {
	s, err := NewStore()
	require.NoError(t, err)
	snap := s.Snapshot()

	for _, format := range []Format{FormatJSON, FormatYAML} {
		data, err := snap.Encode(format)
		require.NoError(t, err)

		again, err := ParseFormat(data, "encoded", format)
		require.NoError(t, err, "format %s", format)
		assert.Equal(t, snap.Resource(), again.Resource(), "format %s", format)
	}
}

func TestStore_ConcurrentReadsDuringReload(t *testing.T) {
	s, err := NewStore()
	require.NoError(t, err)

	custom, err := Parse([]byte(flatResource), "flat.json")
	require.NoError(t, err)
	def, err := Parse(DefaultResource(), DefaultSource)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				s.Swap(custom)
			} else {
				s.Swap(def)
			}
		}
	}()

	for i := 0; i < 2000; i++ {
		snap := s.Snapshot()
		// The flat convert curve always pairs with the flat fg curve.
		if snap.Interpolate(CurveConvert, 5) == 0.95 {
			assert.Equal(t, 0.5, snap.Interpolate(CurveFG, 40))
		} else {
			assert.NotEqual(t, 0.5, snap.Interpolate(CurveFG, 40))
		}
	}
	close(stop)
	wg.Wait()
}
