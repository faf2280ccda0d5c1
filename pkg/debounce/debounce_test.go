package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures validation attempts by cadence.
type recorder struct {
	mu       sync.Mutex
	attempts []attempt
}

type attempt struct {
	cadence    Cadence
	useMarkers bool
}

func (r *recorder) validate(cadence Cadence, useMarkers bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt{cadence: cadence, useMarkers: useMarkers})
}

func (r *recorder) count(cadence Cadence) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.attempts {
		if a.cadence == cadence {
			n++
		}
	}
	return n
}

func (r *recorder) markerFlags(cadence Cadence) []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	var flags []bool
	for _, a := range r.attempts {
		if a.cadence == cadence {
			flags = append(flags, a.useMarkers)
		}
	}
	return flags
}

func testOptions() Options {
	return Options{
		LeadingWindow: 100 * time.Millisecond,
		SettleDelay:   80 * time.Millisecond,
		MaxWait:       300 * time.Millisecond,
		UseMarkers:    true,
	}
}

func TestLeadingFiresOncePerBurst(t *testing.T) {
	rec := &recorder{}
	d := New(rec.validate, testOptions())
	defer d.Close()

	// A rapid burst of edits well inside the leading window.
	for i := 0; i < 10; i++ {
		d.DocumentChanged()
	}
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, 1, rec.count(CadenceLeading), "leading must fire exactly once per window")
}

func TestLeadingFiresImmediatelyOnFirstEdit(t *testing.T) {
	rec := &recorder{}
	d := New(rec.validate, testOptions())
	defer d.Close()

	d.DocumentChanged()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, rec.count(CadenceLeading), "first edit of a burst fires the leading check")
}

func TestLeadingFiresAgainAfterWindow(t *testing.T) {
	rec := &recorder{}
	d := New(rec.validate, testOptions())
	defer d.Close()

	d.DocumentChanged()
	time.Sleep(150 * time.Millisecond) // past the 100ms window
	d.DocumentChanged()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, 2, rec.count(CadenceLeading))
}

func TestTrailingFiresAfterSettle(t *testing.T) {
	rec := &recorder{}
	d := New(rec.validate, testOptions())
	defer d.Close()

	d.DocumentChanged()
	d.DocumentChanged()

	time.Sleep(200 * time.Millisecond) // settle is 80ms

	assert.Equal(t, 1, rec.count(CadenceTrailing), "trailing fires once after the pause")
}

func TestTrailingPostponedByEditsButBoundedByMaxWait(t *testing.T) {
	rec := &recorder{}
	d := New(rec.validate, testOptions())
	defer d.Close()

	// Continuous editing for ~700ms, never pausing long enough for the
	// 80ms settle timer. With a 300ms max wait the trailing check must
	// still fire at least twice.
	stop := time.After(700 * time.Millisecond)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-stop:
			break loop
		case <-ticker.C:
			d.DocumentChanged()
		}
	}
	time.Sleep(150 * time.Millisecond)

	assert.GreaterOrEqual(t, rec.count(CadenceTrailing), 2,
		"continuous editing must not postpone trailing past max wait")
}

func TestMarkerConsultationPolicy(t *testing.T) {
	rec := &recorder{}
	opts := testOptions()
	opts.UseMarkers = false
	d := New(rec.validate, opts)
	defer d.Close()

	d.DocumentChanged()
	time.Sleep(200 * time.Millisecond)

	leading := rec.markerFlags(CadenceLeading)
	require.Len(t, leading, 1)
	assert.False(t, leading[0], "leading check honors the UseMarkers option")

	trailing := rec.markerFlags(CadenceTrailing)
	require.NotEmpty(t, trailing)
	for _, f := range trailing {
		assert.True(t, f, "trailing checks always consult markers")
	}
}

func TestCloseCancelsPendingTimers(t *testing.T) {
	rec := &recorder{}
	d := New(rec.validate, testOptions())

	d.DocumentChanged() // arms settle and max-wait timers
	time.Sleep(20 * time.Millisecond)
	d.Close()

	before := rec.count(CadenceTrailing)
	time.Sleep(400 * time.Millisecond) // past settle and max wait

	assert.Equal(t, before, rec.count(CadenceTrailing), "no trailing check may fire after Close")
}

func TestCloseWaitsForInFlightAttempts(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	// Long trailing timers keep this test down to the single leading attempt.
	d := New(func(Cadence, bool) {
		close(started)
		<-release
	}, Options{
		LeadingWindow: 100 * time.Millisecond,
		SettleDelay:   10 * time.Second,
		MaxWait:       20 * time.Second,
	})

	d.DocumentChanged()
	<-started

	go func() {
		d.Close()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Close returned while an attempt was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the attempt finished")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	d := New(func(Cadence, bool) {}, testOptions())
	d.Close()
	d.Close()
}

func TestChangedAfterCloseIsIgnored(t *testing.T) {
	rec := &recorder{}
	d := New(rec.validate, testOptions())
	d.Close()

	d.DocumentChanged()
	time.Sleep(50 * time.Millisecond)

	assert.Zero(t, rec.count(CadenceLeading))
	assert.Zero(t, rec.count(CadenceTrailing))
}

func TestDefaultOptions(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, DefaultLeadingWindow, opts.LeadingWindow)
	assert.Equal(t, DefaultSettleDelay, opts.SettleDelay)
	assert.Equal(t, DefaultMaxWait, opts.MaxWait)
}
