package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const sendGridMailURL = "https://api.sendgrid.com/v3/mail/send"

// SendGridSender delivers plain-text email through the SendGrid v3 API.
type SendGridSender struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

// NewSendGridSender creates a SendGridSender with a 10-second HTTP timeout.
func NewSendGridSender(apiKey, from string) *SendGridSender {
	return &SendGridSender{
		apiKey:  apiKey,
		from:    from,
		baseURL: sendGridMailURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts one mail/send request. SendGrid acknowledges accepted mail
// with 202.
func (s *SendGridSender) Send(ctx context.Context, to, subject, body string) error {
	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": to}}},
		},
		"from":    map[string]string{"email": s.from},
		"subject": subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": body},
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sendgrid: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("sendgrid: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Name returns the sender identifier.
func (s *SendGridSender) Name() string {
	return "sendgrid"
}
