package mailer

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

	"github.com/sampleforge/sampleforge-backend/pkg/config"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"
)

const sendEndpoint = "https://api.sendgrid.com/v3/mail/send"

// Message is one outbound transactional email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client talks to the Sendgrid v3 mail send API.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	defaultFrom string
	endpoint    string
}

func NewClient(cfg config.SendgridConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if strings.TrimSpace(cfg.DefaultFrom) == "" {
		return nil, errors.New("sendgrid from email is required")
	}
	if logg != nil {
		logg.Info(context.Background(), "sendgrid client initialized")
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		apiKey:      cfg.APIKey,
		defaultFrom: cfg.DefaultFrom,
		endpoint:    sendEndpoint,
	}, nil
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type emailAddress struct {
	Email string `json:"email"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Send delivers one message. Plain text, when present, is listed before
// HTML as Sendgrid requires.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c == nil {
		return errors.New("mailer client not initialized")
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return errors.New("subject is required")
	}

	var parts []content
	if msg.TextBody != "" {
		parts = append(parts, content{Type: "text/plain", Value: msg.TextBody})
	}
	if msg.HTMLBody != "" {
		parts = append(parts, content{Type: "text/html", Value: msg.HTMLBody})
	}
	if len(parts) == 0 {
		return errors.New("message body is required")
	}

	payload, err := json.Marshal(sendRequest{
		Personalizations: []personalization{{To: []emailAddress{{Email: msg.To}}}},
		From:             emailAddress{Email: c.defaultFrom},
		Subject:          msg.Subject,
		Content:          parts,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if len(body) > 0 {
			return fmt.Errorf("sendgrid returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
		}
		return fmt.Errorf("sendgrid returned %s", resp.Status)
	}

	return nil
}
