package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const postmarkBaseURL = "https://api.postmarkapp.com"

// PostmarkProvider sends transactional email through the Postmark REST API.
type PostmarkProvider struct {
	serverToken string
	fromEmail   string
	baseURL     string
	httpClient  *http.Client
}

func NewPostmarkProvider(serverToken, fromEmail string) *PostmarkProvider {
	return &PostmarkProvider{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     postmarkBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *PostmarkProvider) Name() string { return "postmark" }

type postmarkRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
	HTMLBody string `json:"HtmlBody,omitempty"`
}

type postmarkResponse struct {
	MessageID string `json:"MessageID"`
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

func (p *PostmarkProvider) SendEmail(ctx context.Context, msg EmailMessage) (Result, error) {
	if p.serverToken == "" || p.fromEmail == "" {
		return Result{Status: StatusFailed, Error: "postmark not configured"}, nil
	}

	payload, err := json.Marshal(postmarkRequest{
		From:     p.fromEmail,
		To:       msg.To,
		Subject:  msg.Subject,
		TextBody: msg.TextBody,
		HTMLBody: msg.HTMLBody,
	})
	if err != nil {
		return Result{}, fmt.Errorf("notifications: marshal postmark payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/email", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("notifications: build postmark request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", p.serverToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("notifications: postmark request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body postmarkResponse
	_ = json.Unmarshal(raw, &body)

	if resp.StatusCode != http.StatusOK {
		errMsg := body.Message
		if errMsg == "" {
			errMsg = fmt.Sprintf("postmark returned %d", resp.StatusCode)
		}
		return Result{Status: StatusFailed, Error: errMsg, Raw: string(raw)}, nil
	}
	return Result{Status: StatusSent, MessageID: body.MessageID, Raw: string(raw)}, nil
}
