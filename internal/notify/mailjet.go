package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	defaultSendURL = "https://api.mailjet.com/v3.1/send"
	senderName     = "Commute Alert"
)

// Mailjet delivers alerts as plain-text email through the Mailjet v3.1
// send API, authenticated with the account's public/private key pair.
type Mailjet struct {
	apiKey    string
	apiSecret string
	from      string
	to        string
	sendURL   string
	client    *http.Client
}

// NewMailjet returns a Mailjet notifier, or nil when any credential or
// address is missing. A nil return means the email channel is not
// configured; callers skip it rather than treat it as an error.
func NewMailjet(apiKey, apiSecret, from, to string) *Mailjet {
	if apiKey == "" || apiSecret == "" || from == "" || to == "" {
		return nil
	}
	return &Mailjet{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		from:      from,
		to:        to,
		sendURL:   defaultSendURL,
		client:    &http.Client{Timeout: sendTimeout},
	}
}

func (m *Mailjet) Type() string { return "mailjet" }

func (m *Mailjet) Send(ctx context.Context, msg Message) error {
	payload := map[string]any{
		"Messages": []map[string]any{{
			"From":     map[string]string{"Email": m.from, "Name": senderName},
			"To":       []map[string]string{{"Email": m.to}},
			"Subject":  msg.Subject,
			"TextPart": msg.Body,
		}},
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.sendURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mailjet: build request: %w", err)
	}
	req.SetBasicAuth(m.apiKey, m.apiSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mailjet: http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("mailjet: send returned HTTP %d", resp.StatusCode)
	}
	return nil
}
