package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"verinest-onboarding/shared"
)

// VerificationPath is the document verification endpoint.
const VerificationPath = "/api/verification/document"

// Client submits verification payloads to the VeriNest backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client's logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient returns a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is a successful backend reply.
type Response struct {
	Status int
	// Body is the parsed JSON object, nil when the body was not a JSON object.
	Body map[string]any
	Raw  string
}

// SubmitFields validates the accumulated wizard fields and submits them.
// Validation failures return before any request is made.
func (c *Client) SubmitFields(ctx context.Context, token string, fields map[string]string) (*Response, error) {
	payload, err := BuildPayload(fields)
	if err != nil {
		return nil, err
	}
	return c.Submit(ctx, token, payload)
}

// Submit performs exactly one POST of payload. It never retries.
func (c *Client) Submit(ctx context.Context, token string, payload shared.VerificationPayload) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode verification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+VerificationPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Info("Submitting verification",
		zap.String("verificationType", payload.VerificationType),
		zap.String("nationality", payload.Nationality),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Verification request failed", zap.Error(err))
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("Failed to read verification response", zap.Error(err))
		return nil, &NetworkError{Err: err}
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		parsed = nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		appErr := newApplicationError(resp.StatusCode, serverMessage(parsed, raw))
		c.logger.Info("Verification rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("serverMessage", appErr.ServerMessage),
		)
		return nil, appErr
	}

	c.logger.Info("Verification submitted", zap.Int("status", resp.StatusCode))
	return &Response{Status: resp.StatusCode, Body: parsed, Raw: string(raw)}, nil
}

// serverMessage picks the backend's explanation out of an error body.
func serverMessage(parsed map[string]any, raw []byte) string {
	if parsed == nil {
		return strings.TrimSpace(string(raw))
	}
	for _, key := range []string{"message", "error", "detail"} {
		if s, ok := parsed[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
