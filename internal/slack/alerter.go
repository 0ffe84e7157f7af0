package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Alerter posts system alerts to a Slack channel via chat.postMessage.
type Alerter struct {
	token   string
	channel string
	service string
	client  *http.Client
	apiURL  string
	limiter *rate.Limiter
}

// NewAlerter creates a new Slack alerter. At most one alert is posted per
// 30 seconds.
func NewAlerter(token, channel string) *Alerter {
	return &Alerter{
		token:   token,
		channel: channel,
		service: "callboard",
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  "https://slack.com/api/chat.postMessage",
		limiter: rate.NewLimiter(rate.Every(30*time.Second), 1),
	}
}

// PostAlert sends a Block Kit message describing an operational problem.
// Alerts over the rate limit are dropped silently.
func (a *Alerter) PostAlert(ctx context.Context, subject, message string) error {
	if !a.limiter.Allow() {
		return nil
	}
	if message == "" {
		message = "unknown"
	}

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type": "plain_text",
				"text": "callboard alert",
			},
		},
		{
			"type": "section",
			"fields": []map[string]any{
				{"type": "mrkdwn", "text": fmt.Sprintf("*Service:*\n%s", a.service)},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Subject:*\n%s", subject)},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Message:*\n%s", message)},
			},
		},
		{
			"type": "context",
			"elements": []map[string]any{
				{"type": "mrkdwn", "text": fmt.Sprintf("Sent at %s", time.Now().UTC().Format(time.RFC3339))},
			},
		},
	}

	body, err := json.Marshal(map[string]any{
		"channel": a.channel,
		"blocks":  blocks,
		"text":    fmt.Sprintf("%s alert: %s: %s", a.service, subject, message),
	})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}

	slog.Info("alert posted to Slack", "channel", a.channel, "subject", subject)
	return nil
}

// Notify posts an alert and logs any failure. Its signature matches the
// audit batcher's alert hook.
func (a *Alerter) Notify(ctx context.Context, subject, message string) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := a.PostAlert(ctx, subject, message); err != nil {
		slog.Warn("failed to post alert to Slack", "subject", subject, "error", err)
	}
}
