// Package testkit provides test doubles for the editor service: a mock
// remote configuration API and helpers for waiting on asynchronous verdicts.
package testkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"ameditor/pkg/verdict"
)

// PublishCapture records one request seen by the mock remote server.
type PublishCapture struct {
	TenantID string `json:"tenant_id"`
	Header   string `json:"header"`
	Config   string `json:"config"`
	FormID   string `json:"form_id"`
	OrgID    string `json:"-"` // X-Scope-OrgID header value
}

// MockRemoteServer emulates the remote Alertmanager configuration API.
type MockRemoteServer struct {
	*httptest.Server

	mu       sync.Mutex
	captures []PublishCapture
	failWith string // non-empty means reject publishes with this error text
}

// NewMockRemoteServer starts a mock remote API that accepts every publish.
func NewMockRemoteServer() *MockRemoteServer {
	m := &MockRemoteServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// FailWith makes subsequent publishes fail with the given error text. An
// empty string restores success responses.
func (m *MockRemoteServer) FailWith(errText string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = errText
}

// Captures returns a copy of all publish requests seen so far.
func (m *MockRemoteServer) Captures() []PublishCapture {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]PublishCapture, len(m.captures))
	copy(cp, m.captures)
	return cp
}

func (m *MockRemoteServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v1/config" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var capture PublishCapture
	if err := json.NewDecoder(r.Body).Decode(&capture); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	capture.OrgID = r.Header.Get("X-Scope-OrgID")

	m.mu.Lock()
	m.captures = append(m.captures, capture)
	failWith := m.failWith
	m.mu.Unlock()

	if failWith != "" {
		http.Error(w, failWith, http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

// MockPrometheusServer emulates the Prometheus instant query API. Sample
// values are registered per PromQL substring; the longest matching substring
// wins, and unmatched queries return an empty vector.
type MockPrometheusServer struct {
	*httptest.Server

	mu     sync.Mutex
	values map[string]float64
}

// NewMockPrometheusServer starts a mock Prometheus that answers every query
// with an empty vector until values are registered.
func NewMockPrometheusServer() *MockPrometheusServer {
	m := &MockPrometheusServer{values: make(map[string]float64)}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handleQuery))
	return m
}

// SetValue makes queries containing the given substring return value.
func (m *MockPrometheusServer) SetValue(querySubstring string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[querySubstring] = value
}

func (m *MockPrometheusServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v1/query" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	query := r.FormValue("query")

	m.mu.Lock()
	var best string
	matched := false
	for substr := range m.values {
		if strings.Contains(query, substr) && len(substr) >= len(best) {
			best = substr
			matched = true
		}
	}
	value := m.values[best]
	m.mu.Unlock()

	result := []map[string]any{}
	if matched {
		result = append(result, map[string]any{
			"metric": map[string]string{},
			"value":  []any{float64(time.Now().Unix()), strconv.FormatFloat(value, 'f', -1, 64)},
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"data": map[string]any{
			"resultType": "vector",
			"result":     result,
		},
	})
}

// VerdictReader is anything exposing a current verdict; editor.Session
// satisfies it.
type VerdictReader interface {
	Verdict() verdict.Verdict
}

// WaitForVerdict polls until the reader reports want or the timeout elapses.
// Returns true when the verdict was observed.
func WaitForVerdict(r VerdictReader, want verdict.Verdict, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if r.Verdict() == want {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return r.Verdict() == want
}
