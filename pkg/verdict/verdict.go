// Package verdict defines the local validation verdict and the remote publish result.
//
// The two types are deliberately separate sum types: the local Verdict is
// advisory and optimistic (it refers to some past snapshot of the document),
// while RemoteResult is the authoritative answer from the publish target.
// They have different lifecycles and must never be merged.
package verdict

import "sync"

// Verdict is the tri-state outcome of local, advisory validation.
type Verdict int

const (
	// Unknown means no validation attempt has completed yet, or the last
	// result has been superseded by a document reset.
	Unknown Verdict = iota
	// Valid means the most recently completed attempt accepted the document.
	Valid
	// Invalid means the most recently completed attempt rejected the document.
	Invalid
)

// String returns the lowercase name of the verdict for logs and API payloads.
func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// RemoteResult is the verdict returned by the remote configuration service
// after a publish. Error carries the raw error text for the error panel and
// is only meaningful when Success is false.
type RemoteResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Slot is the single shared cell holding the latest verdict.
//
// Concurrently scheduled validation attempts may complete out of order;
// whichever attempt writes last wins. No sequence numbers are used to reject
// stale writes - staleness is tolerated, and the next attempt overwrites it.
type Slot struct {
	mu      sync.RWMutex
	current Verdict
	subs    []chan struct{}
}

// NewSlot returns a slot initialized to Unknown.
func NewSlot() *Slot {
	return &Slot{}
}

// Set records a new verdict, last-writer-wins. Every subscriber gets its own
// coalesced signal, so one reader draining its channel cannot starve another.
func (s *Slot) Set(v Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == v {
		return
	}
	s.current = v

	for _, ch := range s.subs {
		// A full channel already signals a pending change.
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Get returns the current verdict.
func (s *Slot) Get() Verdict {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reset returns the slot to Unknown, e.g. when the session switches documents.
func (s *Slot) Reset() {
	s.Set(Unknown)
}

// Subscribe registers a new change subscriber. The returned channel receives
// a coalesced signal whenever the verdict value changes; readers should call
// Get after each signal. Callers must Unsubscribe when done.
func (s *Slot) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber registered with Subscribe.
func (s *Slot) Unsubscribe(ch <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub == ch {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}
