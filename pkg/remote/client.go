// Package remote publishes configuration documents to the tenant's remote
// Alertmanager configuration API and maps its response to a RemoteResult.
// The remote verdict is authoritative and entirely independent of the local,
// advisory validation pipeline.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ameditor/pkg/logx"
	"ameditor/pkg/verdict"
)

// DefaultTimeout bounds a publish request when the caller's context has no
// earlier deadline.
const DefaultTimeout = 30 * time.Second

// PublishRequest is the payload sent to the remote configuration API.
type PublishRequest struct {
	TenantID string `json:"tenant_id"`
	Header   string `json:"header,omitempty"`
	Config   string `json:"config"`
	FormID   string `json:"form_id"`
}

// Publisher sends a configuration document to the remote service.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (verdict.RemoteResult, error)
}

// Client is an HTTP Publisher for the Alertmanager configuration API.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     *logx.Logger
}

// NewClient creates a publish client for the given API base URL. The auth
// token may be empty when the remote service is unauthenticated.
func NewClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logx.NewLogger("remote"),
	}
}

// SetTimeout overrides the default per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.httpClient.Timeout = d
	}
}

// Publish POSTs the document to the remote API. A 2xx response maps to a
// successful RemoteResult; any other status maps to a failed result carrying
// the raw response body as error text. Transport failures are returned as an
// error. No automatic retries are performed.
func (c *Client) Publish(ctx context.Context, req PublishRequest) (verdict.RemoteResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return verdict.RemoteResult{}, fmt.Errorf("failed to encode publish request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/config", bytes.NewReader(body))
	if err != nil {
		return verdict.RemoteResult{}, fmt.Errorf("failed to build publish request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Scope-OrgID", req.TenantID)
	if c.authToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	c.logger.Debug("publishing form %s for tenant %s (%d bytes)", req.FormID, req.TenantID, len(req.Config))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return verdict.RemoteResult{}, fmt.Errorf("publish request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return verdict.RemoteResult{Success: true}, nil
	}

	// The remote service's error text goes to the error panel verbatim.
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	errText := strings.TrimSpace(string(raw))
	if readErr != nil || errText == "" {
		errText = fmt.Sprintf("remote service returned status %d", resp.StatusCode)
	}

	c.logger.Warn("publish rejected for tenant %s: status %d", req.TenantID, resp.StatusCode)
	return verdict.RemoteResult{Success: false, Error: errText}, nil
}
