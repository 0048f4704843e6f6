// Package notify delivers rendered notifications to the destination channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrDelivery marks a failed notification delivery. A delivery failure is
// lane-fatal: the item stays unseen and is retried on the next run.
var ErrDelivery = errors.New("notification delivery failure")

// Notifier is the delivery contract the pipeline depends on.
type Notifier interface {
	// Send delivers one message. A nil return means the message is durably
	// accepted by the destination; anything else means it was not.
	Send(ctx context.Context, content string) error
}

// DiscordClient posts messages to a Discord webhook.
type DiscordClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscordClient creates a webhook client. The webhook URL is validated at
// send time so construction never fails.
func NewDiscordClient(webhookURL string) *DiscordClient {
	return &DiscordClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send posts the content as a webhook message. Empty content and a missing
// webhook URL are configuration errors, not delivery failures.
func (c *DiscordClient) Send(ctx context.Context, content string) error {
	normalized := strings.TrimSpace(content)
	if normalized == "" {
		return fmt.Errorf("discord message content must not be empty")
	}
	if c.webhookURL == "" {
		return fmt.Errorf("discord webhook URL is not configured")
	}

	payload, err := json.Marshal(map[string]string{"content": normalized})
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"%w: webhook returned status %d: %s",
			ErrDelivery, resp.StatusCode, string(body),
		)
	}

	return nil
}
