package logx

import (
	"testing"
	"time"
)

func TestLoggerBuffersEntries(t *testing.T) {
	logger := NewLogger("logx-test")
	logger.Info("hello %s", "world")

	entries := RecentEntries("logx-test", time.Time{})
	if len(entries) == 0 {
		t.Fatal("expected at least one buffered entry")
	}

	last := entries[len(entries)-1]
	if last.Message != "hello world" {
		t.Errorf("unexpected message: %q", last.Message)
	}
	if last.Level != string(LevelInfo) {
		t.Errorf("unexpected level: %q", last.Level)
	}
}

func TestDebugSuppressedByDefault(t *testing.T) {
	SetDebug(false)
	defer SetDebug(false)

	logger := NewLogger("logx-debug-test")
	logger.Debug("should not appear")

	if entries := RecentEntries("logx-debug-test", time.Time{}); len(entries) != 0 {
		t.Errorf("debug entries buffered while debug disabled: %d", len(entries))
	}

	SetDebug(true)
	logger.Debug("now visible")
	if entries := RecentEntries("logx-debug-test", time.Time{}); len(entries) != 1 {
		t.Errorf("expected one debug entry, got %d", len(entries))
	}
}

func TestRecentEntriesSinceFilter(t *testing.T) {
	logger := NewLogger("logx-since-test")
	logger.Info("old")

	future := time.Now().UTC().Add(time.Hour)
	if entries := RecentEntries("logx-since-test", future); len(entries) != 0 {
		t.Errorf("expected no entries after future cutoff, got %d", len(entries))
	}
}
