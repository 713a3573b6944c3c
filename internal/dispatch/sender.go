package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second
	SecretHeader   = "X-Webhook-Secret"

	maxErrorBody = 64 << 10
)

// Payload is the JSON body posted to the webhook.
type Payload struct {
	GenerationID string            `json:"generationId"`
	Textures     map[string]string `json:"textures"`
}

// Sender delivers a payload to a webhook endpoint.
type Sender interface {
	Deliver(ctx context.Context, target, secret string, payload Payload) error
}

// DeliveryError describes a failed delivery. StatusCode is zero when no
// response was received.
type DeliveryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("webhook responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// HTTPSender posts the payload as a plain JSON request.
type HTTPSender struct {
	client *http.Client
}

func NewHTTPSender(timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSender{client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSender) Deliver(ctx context.Context, target, secret string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &DeliveryError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
