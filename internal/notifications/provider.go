package notifications

import "context"

// Provider-agnostic delivery layer.
//
// Rules:
// - No provider REST calls outside these adapters.
// - Request/response types stay provider-agnostic; raw provider payloads
//   belong in Result.Raw if a caller needs them.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Result reports the outcome of a single delivery attempt.
type Result struct {
	Status    Status `json:"status"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`

	// Raw is the provider response body, kept for debugging.
	Raw string `json:"raw,omitempty"`
}

type EmailMessage struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
	HTMLBody string `json:"html_body,omitempty"`
}

type SMSMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type EmailProvider interface {
	Name() string
	SendEmail(ctx context.Context, msg EmailMessage) (Result, error)
}

type SMSProvider interface {
	Name() string
	SendSMS(ctx context.Context, msg SMSMessage) (Result, error)
}
