// Package classifier calls an optional external service that suggests
// additional inventory/task alerts from plain summaries. It is best
// effort by contract: when unconfigured or failing it contributes
// nothing, and the deterministic alert rules stand on their own.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/direct-system/labdesk-api/pkg/config"
)

// ConsumableSummary is the slim inventory view sent to the classifier.
type ConsumableSummary struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Request is the classifier call payload.
type Request struct {
	Consumables  []ConsumableSummary `json:"consumables"`
	PendingTasks []string            `json:"pendingTasks"`
}

// Suggestion is one classifier-proposed alert.
type Suggestion struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Client produces alert suggestions from entity summaries.
type Client interface {
	Enabled() bool
	Suggest(ctx context.Context, req Request) ([]Suggestion, error)
}

// HTTPClient talks to a remote classifier endpoint.
type HTTPClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *zap.Logger
}

// New builds an HTTP classifier client from configuration. A disabled or
// endpoint-less configuration yields a client whose Enabled reports false.
func New(cfg config.ClassifierConfig, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

// Enabled reports whether the classifier is reachable by configuration.
func (c *HTTPClient) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// Suggest submits the summaries and decodes the suggestion list.
func (c *HTTPClient) Suggest(ctx context.Context, req Request) ([]Suggestion, error) {
	if !c.Enabled() {
		return nil, nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode classifier request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build classifier request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call classifier: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var suggestions []Suggestion
	if err := json.NewDecoder(resp.Body).Decode(&suggestions); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}
	return suggestions, nil
}
