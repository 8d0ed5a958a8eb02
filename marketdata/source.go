// Package marketdata feeds quote values from an external source into the
// observable quotes that drive curve recalculation.
package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Source supplies the latest quote values keyed by quote id. A source may
// return the values it could read together with an InvalidQuotes error.
type Source interface {
	Quotes(ctx context.Context) (map[string]float64, error)
}

// InvalidQuotes maps quote ids to the reason their source value was unusable.
type InvalidQuotes map[string]error

func (e InvalidQuotes) Error() string {
	ids := e.IDs()
	if len(ids) == 1 {
		return e[ids[0]].Error()
	}
	return fmt.Sprintf("%d invalid quotes: %s", len(ids), strings.Join(ids, ", "))
}

// IDs returns the invalid quote ids in sorted order.
func (e InvalidQuotes) IDs() []string {
	ids := make([]string, 0, len(e))
	for id := range e {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// QuoteSink receives quote values and reports whether each one changed.
type QuoteSink interface {
	SetQuote(id string, v float64) (bool, error)
}

// MapSource is a static map-backed source for development and testing.
type MapSource struct {
	mu     sync.Mutex
	quotes map[string]float64
}

func NewMapSource(quotes map[string]float64) *MapSource {
	m := &MapSource{quotes: make(map[string]float64, len(quotes))}
	for id, v := range quotes {
		m.quotes[id] = v
	}
	return m
}

// Set stores one value.
func (m *MapSource) Set(id string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[id] = v
}

// Quotes returns a copy of the stored values.
func (m *MapSource) Quotes(context.Context) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]float64, len(m.quotes))
	for id, v := range m.quotes {
		out[id] = v
	}
	return out, nil
}
