package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pizzeria/internal/models"
)

// Message is an outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// NotificationGateway queues an email for delivery. A nil error means the
// provider accepted the message.
type NotificationGateway interface {
	Send(ctx context.Context, msg Message) (*models.MessageResult, error)
}

// MailgunClient is the HTTP implementation of NotificationGateway against
// the Mailgun messages API.
type MailgunClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	domain     string
	from       string
}

// NewMailgunClient creates a notification client. Every send call is
// bounded by timeout.
func NewMailgunClient(apiKey, domain, from string, timeout time.Duration) *MailgunClient {
	return &MailgunClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://api.mailgun.net",
		apiKey:     apiKey,
		domain:     domain,
		from:       from,
	}
}

type mailgunResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send queues the message. Success requires a message id in the response.
func (c *MailgunClient) Send(ctx context.Context, msg Message) (*models.MessageResult, error) {
	to := strings.TrimSpace(msg.To)
	subject := strings.TrimSpace(msg.Subject)
	text := strings.TrimSpace(msg.Text)
	if to == "" || subject == "" || text == "" {
		return nil, fmt.Errorf("notification: to, subject and text are required")
	}

	form := url.Values{}
	form.Set("from", c.from)
	form.Set("to", to)
	form.Set("subject", subject)
	form.Set("text", text)

	endpoint := fmt.Sprintf("%s/v3/%s/messages", c.baseURL, c.domain)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("notification: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth("api", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("notification: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("notification: read response: %w", err)
	}

	var queued mailgunResponse
	if err := json.Unmarshal(body, &queued); err != nil {
		return nil, fmt.Errorf("notification: decode response (http %d): %w", resp.StatusCode, err)
	}
	if queued.ID == "" {
		return nil, fmt.Errorf("notification: message not queued (http %d)", resp.StatusCode)
	}

	return &models.MessageResult{ID: queued.ID, Message: queued.Message}, nil
}
