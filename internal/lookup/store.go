package lookup

import (
	_ "embed"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultSource names the bundled resource in snapshots and logs.
const DefaultSource = "bundled:default_lookups.json"

//go:embed default_lookups.json
var defaultResource []byte

var (
	reloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fourthdown_lookup_reloads_total",
		Help: "Lookup table load attempts by result",
	}, []string{"result"})

	lastReload = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fourthdown_lookup_last_reload_timestamp_seconds",
		Help: "Unix time of the last successful lookup table swap",
	})
)

// DefaultResource returns a copy of the bundled lookup resource.
func DefaultResource() []byte {
	out := make([]byte, len(defaultResource))
	copy(out, defaultResource)
	return out
}

// Store holds the active lookup snapshot. Readers never block; a load builds a
// complete snapshot first and then swaps a single pointer, so a reader sees
// either the old tables or the new ones, never a mix.
type Store struct {
	current atomic.Pointer[Tables]
}

// NewStore returns a store initialised from the bundled resource. An error
// here means the binary was built with a broken resource.
func NewStore() (*Store, error) {
	s := &Store{}
	if err := s.Load(""); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the active tables. The result must be treated as read-only.
func (s *Store) Snapshot() *Tables {
	return s.current.Load()
}

// Load replaces the active tables with the resource at path. An empty path
// resets to the bundled default. On failure the previous tables stay active.
func (s *Store) Load(path string) error {
	if path == "" {
		return s.LoadBytes(defaultResource, DefaultSource)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		reloadsTotal.WithLabelValues("failure").Inc()
		return &ParseError{Source: path, Err: fmt.Errorf("read: %w", err)}
	}
	return s.LoadBytes(data, path)
}

// LoadBytes parses data and swaps it in. The format follows source's extension.
func (s *Store) LoadBytes(data []byte, source string) error {
	return s.LoadFormat(data, source, FormatFromPath(source))
}

// LoadFormat parses data in an explicit format and swaps it in.
func (s *Store) LoadFormat(data []byte, source string, format Format) error {
	tables, err := ParseFormat(data, source, format)
	if err != nil {
		reloadsTotal.WithLabelValues("failure").Inc()
		return err
	}
	s.Swap(tables)
	return nil
}

// Swap installs an already parsed snapshot and returns the one it replaced.
func (s *Store) Swap(t *Tables) *Tables {
	prev := s.current.Swap(t)
	reloadsTotal.WithLabelValues("success").Inc()
	lastReload.Set(float64(t.LoadedAt.Unix()))
	return prev
}
