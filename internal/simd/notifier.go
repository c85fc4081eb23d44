package simd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/gansim/internal/policy"
	"github.com/GoSim-25-26J-441/gansim/internal/sim"
	"github.com/GoSim-25-26J-441/gansim/pkg/logger"
)

var (
	ErrInvalidURL       = errors.New("invalid callback URL")
	ErrMetadataEndpoint = errors.New("callback URL targets a cloud metadata endpoint")
)

// NotificationPayload is the JSON body posted when a session reaches full progress
type NotificationPayload struct {
	SessionID          string  `json:"session_id"`
	Event              string  `json:"event"`
	GeneratorSkill     float64 `json:"generator_skill"`
	DiscriminatorSkill float64 `json:"discriminator_skill"`
	Progress           int     `json:"progress"`
	Steps              int     `json:"steps"`
	Timestamp          int64   `json:"timestamp"` // When notification was sent
}

// Notifier posts progress-complete callbacks, retrying per its RetryPolicy
type Notifier struct {
	httpClient *http.Client
	retry      policy.RetryPolicy
	wg         sync.WaitGroup
}

// NewNotifier creates a notifier with three exponential retries from 1s
func NewNotifier() *Notifier {
	return NewNotifierWithPolicy(policy.NewRetryPolicy(true, 3, "exponential", 1000))
}

// NewNotifierWithPolicy creates a notifier using the given retry policy
func NewNotifierWithPolicy(retry policy.RetryPolicy) *Notifier {
	return &Notifier{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		retry: retry,
	}
}

// validateCallbackURL rejects URLs that are malformed or aimed at metadata services
func validateCallbackURL(raw string) error {
	u, err := url.Parse(strings.ReplaceAll(raw, "{session_id}", "x"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing hostname", ErrInvalidURL)
	}
	if host == "169.254.169.254" || host == "metadata.google.internal" {
		return ErrMetadataEndpoint
	}
	return nil
}

// Notify sends a notification to the callback URL asynchronously.
// {session_id} in the URL is replaced with the session ID.
func (n *Notifier) Notify(callbackURL, sessionID string, st sim.State) {
	if callbackURL == "" {
		return
	}
	finalURL := strings.ReplaceAll(callbackURL, "{session_id}", sessionID)

	payload := NotificationPayload{
		SessionID:          sessionID,
		Event:              "progress_complete",
		GeneratorSkill:     st.GeneratorSkill,
		DiscriminatorSkill: st.DiscriminatorSkill,
		Progress:           st.Progress,
		Steps:              st.Steps,
		Timestamp:          time.Now().UTC().UnixMilli(),
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.sendNotification(finalURL, payload)
	}()
}

// Wait blocks until all in-flight notifications finish
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// sendNotification performs the HTTP POST, retrying while the policy allows
func (n *Notifier) sendNotification(callbackURL string, payload NotificationPayload) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal notification payload",
			"callback_url", callbackURL,
			"session_id", payload.SessionID,
			"error", err)
		return
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			delay := n.retry.GetBackoffDuration(attempt)
			logger.Debug("retrying notification",
				"callback_url", callbackURL,
				"session_id", payload.SessionID,
				"attempt", attempt,
				"delay", delay)
			time.Sleep(delay)
		}

		lastErr = n.post(callbackURL, payloadJSON)
		if lastErr == nil {
			logger.Info("notification sent successfully", "session_id", payload.SessionID)
			return
		}
		logger.Warn("notification attempt failed",
			"callback_url", callbackURL,
			"session_id", payload.SessionID,
			"attempt", attempt+1,
			"error", lastErr)
		if !n.retry.ShouldRetry(attempt, lastErr) {
			break
		}
	}

	logger.Error("failed to send notification after retries",
		"callback_url", callbackURL,
		"session_id", payload.SessionID,
		"max_retries", n.retry.GetMaxRetries(),
		"last_error", lastErr)
}

func (n *Notifier) post(callbackURL string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "gansim/1.0")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(bodyBytes))
}
