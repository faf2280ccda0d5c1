// Package debounce schedules validation attempts for a stream of
// keystroke-level document change events on a dual cadence.
//
// Two independent rate limiters run over the same event stream:
//
//   - a leading-edge check that fires immediately on the first edit of a
//     burst and then at most once per leading window, giving instant
//     feedback without flooding the pipeline, and
//   - a trailing check that fires once editing settles, but is forced to
//     run at least once per max-wait period under continuous editing.
//
// The two are deliberately kept as separate timer state machines; conflating
// them would lose the immediate-feedback-plus-periodic-refresh property.
// Attempts scheduled by either cadence may be in flight concurrently, and the
// attempt whose completion runs last owns the visible verdict.
package debounce

import (
	"sync"
	"time"

	"ameditor/pkg/logx"
)

// Cadence identifies which timer scheduled a validation attempt.
type Cadence string

// Scheduling cadences.
const (
	CadenceLeading  Cadence = "leading"
	CadenceTrailing Cadence = "trailing"
)

// Default timing policy.
const (
	DefaultLeadingWindow = 300 * time.Millisecond
	DefaultSettleDelay   = 500 * time.Millisecond
	DefaultMaxWait       = 5 * time.Second
)

// ValidateFunc runs one validation attempt. The implementation must read the
// current document at call time, not capture it earlier; useMarkers tells it
// whether to consult editor markers before parsing.
type ValidateFunc func(cadence Cadence, useMarkers bool)

// Options configure the timing policy of a Debouncer.
type Options struct {
	// LeadingWindow is the minimum gap between leading-edge checks.
	LeadingWindow time.Duration
	// SettleDelay is how long editing must pause before the trailing check fires.
	SettleDelay time.Duration
	// MaxWait bounds how long continuous editing can postpone the trailing check.
	MaxWait time.Duration
	// UseMarkers controls whether the leading check consults editor markers.
	// The trailing check always does.
	UseMarkers bool
}

// withDefaults fills in zero durations with the default policy.
func (o Options) withDefaults() Options {
	if o.LeadingWindow <= 0 {
		o.LeadingWindow = DefaultLeadingWindow
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.MaxWait <= 0 {
		o.MaxWait = DefaultMaxWait
	}
	return o
}

// Debouncer turns DocumentChanged calls into validation attempts on the dual
// cadence described in the package comment.
type Debouncer struct {
	opts     Options
	validate ValidateFunc
	logger   *logx.Logger

	mu           sync.Mutex
	closed       bool
	lastLeading  time.Time   // zero until the first leading check has fired
	settleTimer  *time.Timer // resets on every edit
	maxWaitTimer *time.Timer // armed on the first edit of a burst, not reset
	wg           sync.WaitGroup
}

// New creates a Debouncer that invokes validate per the given options.
func New(validate ValidateFunc, opts Options) *Debouncer {
	return &Debouncer{
		opts:     opts.withDefaults(),
		validate: validate,
		logger:   logx.NewLogger("debounce"),
	}
}

// DocumentChanged records one edit event. It schedules a leading check when
// the leading window has elapsed and (re)arms the trailing timers. Safe to
// call from any goroutine; calls after Close are ignored.
func (d *Debouncer) DocumentChanged() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	now := time.Now()

	// Leading edge: fire immediately on the first edit of a burst, then at
	// most once per window.
	if d.lastLeading.IsZero() || now.Sub(d.lastLeading) >= d.opts.LeadingWindow {
		d.lastLeading = now
		d.spawnLocked(CadenceLeading, d.opts.UseMarkers)
	}

	// Trailing: reset the settle timer on every edit.
	if d.settleTimer != nil {
		d.settleTimer.Stop()
	}
	d.settleTimer = time.AfterFunc(d.opts.SettleDelay, d.fireTrailing)

	// Bounded wait: the max-wait timer is armed once per burst and never
	// reset by further edits, so continuous editing cannot postpone the
	// trailing check forever.
	if d.maxWaitTimer == nil {
		d.maxWaitTimer = time.AfterFunc(d.opts.MaxWait, d.fireTrailing)
	}
}

// fireTrailing runs when either the settle delay or the max wait elapses.
// Both timers are disarmed so the next edit starts a fresh burst.
func (d *Debouncer) fireTrailing() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	if d.settleTimer != nil {
		d.settleTimer.Stop()
		d.settleTimer = nil
	}
	if d.maxWaitTimer != nil {
		d.maxWaitTimer.Stop()
		d.maxWaitTimer = nil
	}

	// Trailing checks always consult markers.
	d.spawnLocked(CadenceTrailing, true)
}

// spawnLocked starts a validation attempt. Caller must hold d.mu; the closed
// check under the same lock guarantees no attempt starts after Close begins
// waiting.
func (d *Debouncer) spawnLocked(cadence Cadence, useMarkers bool) {
	d.logger.Debug("scheduling %s validation (markers=%v)", cadence, useMarkers)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.validate(cadence, useMarkers)
	}()
}

// Close cancels both timers and waits for in-flight attempts to finish, so
// no validation callback runs after Close returns. Idempotent.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	if d.settleTimer != nil {
		d.settleTimer.Stop()
		d.settleTimer = nil
	}
	if d.maxWaitTimer != nil {
		d.maxWaitTimer.Stop()
		d.maxWaitTimer = nil
	}
	d.mu.Unlock()

	d.wg.Wait()
}
