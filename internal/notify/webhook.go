package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Webhook delivers alerts to a Slack, Teams or generic HTTP endpoint.
type Webhook struct {
	kind   string
	url    string
	client *http.Client
}

// NewWebhook returns a Webhook of the given kind ("slack", "teams" or
// "http"), or nil when url is empty (channel not configured).
func NewWebhook(kind, url string) *Webhook {
	if url == "" {
		return nil
	}
	return &Webhook{
		kind:   kind,
		url:    url,
		client: &http.Client{Timeout: sendTimeout},
	}
}

func (w *Webhook) Type() string { return w.kind }

func (w *Webhook) Send(ctx context.Context, msg Message) error {
	var payload any
	switch w.kind {
	case "slack":
		payload = map[string]string{
			"text": fmt.Sprintf("*%s*\n%s", msg.Subject, msg.Body),
		}
	case "teams":
		payload = map[string]any{
			"@type":      "MessageCard",
			"@context":   "http://schema.org/extensions",
			"themeColor": "FFAB40",
			"summary":    msg.Subject,
			"title":      msg.Subject,
			"text":       msg.Body,
		}
	default:
		payload = map[string]string{
			"subject": msg.Subject,
			"body":    msg.Body,
		}
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook %s: build request: %w", w.kind, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: http post: %w", w.kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook %s: returned HTTP %d", w.kind, resp.StatusCode)
	}
	return nil
}
