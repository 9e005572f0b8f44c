// Package platform delivers committed automation actions to the per-platform
// actuator endpoints. The engine commits counters and cooldowns before
// dispatch; a failed delivery here is recorded on the audit entry but never
// rolls the commit back.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/ignite/campaign-sentinel/internal/config"
	"github.com/ignite/campaign-sentinel/internal/domain"
)

// actionRequest is the wire payload an actuator receives.
type actionRequest struct {
	Platform   string            `json:"platform"`
	AccountID  string            `json:"account_id"`
	CampaignID string            `json:"campaign_id"`
	Action     domain.ActionType `json:"action"`
	Value      *float64          `json:"value,omitempty"`
}

// Dispatcher posts actions to the actuator endpoint configured for each
// platform. Retryable failures (429, 5xx, transient network errors) are
// retried with exponential backoff and jitter; client errors are not.
type Dispatcher struct {
	client     *http.Client
	endpoints  map[string]string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewDispatcher creates a dispatcher from actuator configuration.
func NewDispatcher(cfg config.ActuatorConfig) *Dispatcher {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &Dispatcher{
		client:     &http.Client{Timeout: timeout},
		endpoints:  cfg.Endpoints,
		maxRetries: retries,
		baseDelay:  500 * time.Millisecond,
		maxDelay:   10 * time.Second,
	}
}

// Dispatch sends one committed action to the platform's actuator.
func (d *Dispatcher) Dispatch(ctx context.Context, action domain.RuleAction, snap *domain.CampaignSnapshot) error {
	endpoint, ok := d.endpoints[snap.Platform]
	if !ok {
		return fmt.Errorf("no actuator endpoint configured for platform %q", snap.Platform)
	}

	body, err := json.Marshal(actionRequest{
		Platform:   snap.Platform,
		AccountID:  snap.AccountID,
		CampaignID: snap.CampaignID,
		Action:     action.Type,
		Value:      action.Value,
	})
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}

	url := endpoint + "/actions"
	var lastErr error
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			delay := d.backoff(attempt)
			log.Printf("[Dispatcher] Retry %d/%d for %s %s/%s (waiting %s)",
				attempt, d.maxRetries, action.Type, snap.Platform, snap.CampaignID, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build actuator request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			lastErr = err
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case retryable(resp.StatusCode):
			lastErr = fmt.Errorf("actuator returned status %d", resp.StatusCode)
		default:
			return fmt.Errorf("actuator rejected %s for %s/%s: status %d",
				action.Type, snap.Platform, snap.CampaignID, resp.StatusCode)
		}
	}
	return fmt.Errorf("dispatch %s to %s: %w", action.Type, snap.Platform, lastErr)
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoff returns base * 2^(attempt-1) with up to 25% jitter, capped.
func (d *Dispatcher) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(d.baseDelay) * math.Pow(2, float64(attempt-1)))
	if delay > d.maxDelay {
		delay = d.maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 4))
	return delay + jitter
}
