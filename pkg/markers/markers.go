// Package markers tracks structural problems the editor widget has already
// detected for a document. Markers are produced out-of-band by the editor and
// only queried, never owned, by the validation pipeline.
package markers

import "sync"

// Severity classifies how serious a marker is.
type Severity int

const (
	// SeverityHint is an informational annotation.
	SeverityHint Severity = iota
	// SeverityWarning flags a suspicious but acceptable construct.
	SeverityWarning
	// SeverityError flags a structural problem that makes the document invalid.
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "hint"
	}
}

// Marker is a single structural problem report attached to a document.
type Marker struct {
	DocumentID string   `json:"document_id"`
	Severity   Severity `json:"severity"`
	Line       int      `json:"line"`
	Column     int      `json:"column"`
	Message    string   `json:"message"`
	Source     string   `json:"source,omitempty"`
}

// Store holds the current marker set per document ID.
//
// The editor transport replaces the full set whenever the widget re-reports;
// the validation pipeline reads whatever is present at fire time and never
// caches the result.
type Store struct {
	mu    sync.RWMutex
	byDoc map[string][]Marker
}

// NewStore creates an empty marker store.
func NewStore() *Store {
	return &Store{byDoc: make(map[string][]Marker)}
}

// Replace swaps the complete marker set for a document. An empty or nil slice
// clears the document's markers.
func (s *Store) Replace(docID string, ms []Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ms) == 0 {
		delete(s.byDoc, docID)
		return
	}
	cp := make([]Marker, len(ms))
	copy(cp, ms)
	s.byDoc[docID] = cp
}

// MarkersFor returns a copy of the markers currently known for a document.
// The result may be empty.
func (s *Store) MarkersFor(docID string) []Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ms, ok := s.byDoc[docID]
	if !ok {
		return nil
	}
	cp := make([]Marker, len(ms))
	copy(cp, ms)
	return cp
}

// Clear removes all markers for a document.
func (s *Store) Clear(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byDoc, docID)
}
