package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ResendEndpoint is the Resend API route for sending one email.
const ResendEndpoint = "https://api.resend.com/emails"

// resendClient is the Sender backed by the Resend HTTP API.
type resendClient struct {
	apiKey     string
	fromAddr   string // e.g. "orders@pizzeria.example"
	fromName   string // e.g. "Pizzeria"
	endpoint   string
	httpClient *http.Client
}

// NewResendClient returns a Sender that delivers email via Resend.
func NewResendClient(apiKey, fromAddr, fromName string) Sender {
	return newResendClient(apiKey, fromAddr, fromName, ResendEndpoint)
}

func newResendClient(apiKey, fromAddr, fromName, endpoint string) *resendClient {
	return &resendClient{
		apiKey:   apiKey,
		fromAddr: fromAddr,
		fromName: fromName,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ─── RESEND API SHAPES ────────────────────────────────────────────────────────

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

type resendResponse struct {
	ID string `json:"id"`

	// Error responses are flat objects: {"statusCode":422,"name":"validation_error","message":"..."}.
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

// ─── SENDER IMPLEMENTATION ────────────────────────────────────────────────────

func (c *resendClient) Send(ctx context.Context, m Message) error {
	from := c.fromAddr
	if c.fromName != "" {
		from = fmt.Sprintf("%s <%s>", c.fromName, c.fromAddr)
	}

	bodyBytes, err := json.Marshal(resendRequest{
		From:    from,
		To:      []string{m.To},
		Subject: m.Subject,
		Text:    m.Body,
	})
	if err != nil {
		return fmt.Errorf("email: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("email: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("email: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed resendResponse
		if json.Unmarshal(respBytes, &parsed) == nil && parsed.Message != "" {
			return fmt.Errorf("email: Resend error %s (status %d): %s", parsed.Name, resp.StatusCode, parsed.Message)
		}
		return fmt.Errorf("email: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return fmt.Errorf("email: unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.ID == "" {
		return fmt.Errorf("email: Resend accepted the request without an email id")
	}

	return nil
}
