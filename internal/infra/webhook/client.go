// Package webhook posts scorecard payloads to the external automation endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-ops-scorecard/internal/domain"
	"github.com/google/uuid"
)

// ErrNoEndpoint is returned when no URL is configured for a request type.
var ErrNoEndpoint = errors.New("no webhook endpoint configured")

// Endpoints maps each request type to its target URL.
type Endpoints struct {
	Lead         string
	Consultation string
	Guide        string
}

func (e Endpoints) urlFor(requestType domain.RequestType) string {
	switch requestType {
	case domain.RequestFreeAssessment:
		return e.Lead
	case domain.RequestConsultation:
		return e.Consultation
	case domain.RequestImplementationGuide:
		return e.Guide
	}
	return ""
}

// Client implements app.Notifier over HTTP.
type Client struct {
	client    *http.Client
	endpoints Endpoints
}

// NewClient builds a client whose requests give up after timeout.
func NewClient(endpoints Endpoints, timeout time.Duration) *Client {
	return &Client{
		client:    &http.Client{Timeout: timeout},
		endpoints: endpoints,
	}
}

// Deliver POSTs payload as JSON. Any non-2xx answer is an error.
func (c *Client) Deliver(ctx context.Context, requestType domain.RequestType, payload any) error {
	url := c.endpoints.urlFor(requestType)
	if url == "" {
		return fmt.Errorf("%w: %s", ErrNoEndpoint, requestType)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", requestType, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post %s: unexpected status %d", requestType, resp.StatusCode)
	}
	return nil
}
