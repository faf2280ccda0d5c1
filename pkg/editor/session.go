// Package editor wires document change events into the debounced validation
// pipeline and exposes the publish action. A Session is the composition root
// for one editor view: it owns the single mutable document slot, the shared
// verdict slot, and the session's debouncer.
package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"ameditor/pkg/debounce"
	"ameditor/pkg/history"
	"ameditor/pkg/logx"
	"ameditor/pkg/markers"
	"ameditor/pkg/metrics"
	"ameditor/pkg/remote"
	"ameditor/pkg/schema"
	"ameditor/pkg/verdict"
)

// Document is the raw configuration text plus its editor-side identifier.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// FormState mirrors the submission lifecycle of the surrounding form.
type FormState int

// Form states.
const (
	// FormIdle means the form is not ready; publish is unavailable.
	FormIdle FormState = iota
	// FormActive means the form is ready; publish is available regardless of
	// the local verdict.
	FormActive
	// FormSubmitting means a publish is in flight.
	FormSubmitting
)

// ErrFormNotActive is returned when publish is attempted outside FormActive.
var ErrFormNotActive = errors.New("form is not active")

// Session is one editor view's server-side state.
type Session struct {
	id        string
	tenantID  string
	logger    *logx.Logger
	markers   *markers.Store
	slot      *verdict.Slot
	debouncer *debounce.Debouncer
	publisher remote.Publisher
	recorder  metrics.Recorder
	history   *history.Store

	// Injectable for tests; default to the schema package.
	parseFn    func(string) (*schema.Config, error)
	validateFn func(*schema.Config) error

	mu           sync.Mutex
	doc          Document
	form         FormState
	remoteResult *verdict.RemoteResult
}

// Config carries the collaborators and timing policy for a new Session.
type Config struct {
	TenantID  string
	Markers   *markers.Store
	Publisher remote.Publisher
	Recorder  metrics.Recorder
	History   *history.Store // optional publish audit
	Debounce  debounce.Options
}

// NewSession creates a session with a fresh verdict slot and debouncer.
func NewSession(cfg Config) *Session {
	s := &Session{
		id:         uuid.NewString(),
		tenantID:   cfg.TenantID,
		logger:     logx.NewLogger("editor"),
		markers:    cfg.Markers,
		slot:       verdict.NewSlot(),
		publisher:  cfg.Publisher,
		recorder:   cfg.Recorder,
		history:    cfg.History,
		parseFn:    schema.Parse,
		validateFn: schema.Validate,
		form:       FormActive,
	}
	if s.markers == nil {
		s.markers = markers.NewStore()
	}
	if s.recorder == nil {
		s.recorder = metrics.NopRecorder{}
	}
	s.debouncer = debounce.New(s.runValidation, cfg.Debounce)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// TenantID returns the tenant this session edits configuration for.
func (s *Session) TenantID() string {
	return s.tenantID
}

// OnChange records a document edit. The mutable document slot is updated
// synchronously before validation is scheduled, so any attempt that fires
// later reads text at least as current as this event.
func (s *Session) OnChange(text, docID string) {
	s.mu.Lock()
	s.doc = Document{ID: docID, Text: text}
	s.mu.Unlock()

	s.debouncer.DocumentChanged()
}

// Verdict returns the current local validation verdict.
func (s *Session) Verdict() verdict.Verdict {
	return s.slot.Get()
}

// SubscribeVerdicts registers a new subscriber on the verdict slot. Each
// subscriber gets its own coalesced signal channel, so multiple listeners on
// the same session do not steal each other's notifications.
func (s *Session) SubscribeVerdicts() <-chan struct{} {
	return s.slot.Subscribe()
}

// UnsubscribeVerdicts removes a subscriber registered with SubscribeVerdicts.
func (s *Session) UnsubscribeVerdicts(ch <-chan struct{}) {
	s.slot.Unsubscribe(ch)
}

// runValidation is the debouncer's callback: one independent validation
// attempt. The document is read from the mutable slot here, at fire time; an
// attempt that fires after further edits validates the latest text, not the
// text as of when it was scheduled. Every failure mode collapses to an
// invalid verdict and nothing propagates past this boundary.
func (s *Session) runValidation(cadence debounce.Cadence, useMarkers bool) {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()

	start := time.Now()

	if useMarkers {
		if ms := s.markers.MarkersFor(doc.ID); len(ms) > 0 {
			// The editor already knows the document is broken; skip the
			// parse and schema work entirely.
			s.logger.Debug("%s check: %d markers present for %s, short-circuiting", cadence, len(ms), doc.ID)
			s.slot.Set(verdict.Invalid)
			s.recorder.ObserveValidation(s.tenantID, string(cadence), metrics.OutcomeMarkerShort, time.Since(start))
			return
		}
	}

	cfg, err := s.parseFn(doc.Text)
	if err != nil {
		s.logger.Debug("%s check: parse failed for %s: %v", cadence, doc.ID, err)
		s.slot.Set(verdict.Invalid)
		s.recorder.ObserveValidation(s.tenantID, string(cadence), metrics.OutcomeParseError, time.Since(start))
		return
	}

	if err := s.validateFn(cfg); err != nil {
		// Detailed messages are advisory here; they reach the user through
		// the remote channel, not the verdict.
		s.logger.Debug("%s check: schema validation failed for %s: %v", cadence, doc.ID, err)
		s.slot.Set(verdict.Invalid)
		s.recorder.ObserveValidation(s.tenantID, string(cadence), metrics.OutcomeSchemaError, time.Since(start))
		return
	}

	s.slot.Set(verdict.Valid)
	s.recorder.ObserveValidation(s.tenantID, string(cadence), metrics.OutcomeValid, time.Since(start))
}

// SetFormState updates the surrounding form's state.
func (s *Session) SetFormState(state FormState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = state
}

// FormState returns the current form state.
func (s *Session) FormState() FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// CanPublish reports whether the publish action is available. It depends only
// on the form state; the local verdict is advisory and never blocks publish.
func (s *Session) CanPublish() bool {
	return s.FormState() == FormActive
}

// Publish sends the current document to the remote service with an optional
// header and stores the authoritative result. Local invalidity does not block
// the call. Transport errors are folded into a failed RemoteResult so the
// error panel can render them.
func (s *Session) Publish(ctx context.Context, header string) (verdict.RemoteResult, error) {
	s.mu.Lock()
	if s.form != FormActive {
		s.mu.Unlock()
		return verdict.RemoteResult{}, ErrFormNotActive
	}
	s.form = FormSubmitting
	doc := s.doc
	s.mu.Unlock()

	formID := uuid.NewString()
	res, err := s.publisher.Publish(ctx, remote.PublishRequest{
		TenantID: s.tenantID,
		Header:   header,
		Config:   doc.Text,
		FormID:   formID,
	})
	if err != nil {
		res = verdict.RemoteResult{Success: false, Error: err.Error()}
	}

	s.mu.Lock()
	// A form_state event may have arrived while the request was in flight;
	// only restore FormActive if nothing else has claimed the state.
	if s.form == FormSubmitting {
		s.form = FormActive
	}
	s.remoteResult = &res
	s.mu.Unlock()

	status := metrics.PublishAccepted
	if !res.Success {
		status = metrics.PublishRejected
		if err != nil {
			status = metrics.PublishFailed
		}
	}
	s.recorder.IncPublish(s.tenantID, status)

	if s.history != nil {
		if histErr := s.history.RecordPublish(ctx, s.id, s.tenantID, formID, len(doc.Text), res); histErr != nil {
			s.logger.Warn("failed to record publish history: %v", histErr)
		}
	}

	if res.Success {
		s.logger.Info("✅ Published config for tenant %s (form %s)", s.tenantID, formID)
	} else {
		s.logger.Warn("Publish failed for tenant %s: %s", s.tenantID, res.Error)
	}

	return res, nil
}

// RemoteResult returns the result of the most recent publish, or nil when no
// publish has completed yet.
func (s *Session) RemoteResult() *verdict.RemoteResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remoteResult == nil {
		return nil
	}
	cp := *s.remoteResult
	return &cp
}

// ErrorPanel returns the text the error panel should render: the remote
// error verbatim after a failed publish, empty otherwise.
func (s *Session) ErrorPanel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remoteResult != nil && !s.remoteResult.Success {
		return s.remoteResult.Error
	}
	return ""
}

// Document returns the current document snapshot.
func (s *Session) Document() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Close cancels the session's debounce timers and waits for in-flight
// validation attempts, guaranteeing no verdict writes after teardown.
func (s *Session) Close() {
	s.debouncer.Close()
}
