package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioBaseURL = "https://api.twilio.com"

// TwilioProvider sends SMS through the Twilio Messages REST API.
type TwilioProvider struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

func NewTwilioProvider(accountSID, authToken, fromNumber string) *TwilioProvider {
	return &TwilioProvider{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    twilioBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *TwilioProvider) Name() string { return "twilio" }

type twilioResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (p *TwilioProvider) SendSMS(ctx context.Context, msg SMSMessage) (Result, error) {
	if p.accountSID == "" || p.authToken == "" || p.fromNumber == "" {
		return Result{Status: StatusFailed, Error: "twilio not configured"}, nil
	}

	form := url.Values{}
	form.Set("From", p.fromNumber)
	form.Set("To", cleanPhoneNumber(msg.To))
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", p.baseURL, p.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, fmt.Errorf("notifications: build twilio request: %w", err)
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("notifications: twilio request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body twilioResponse
	_ = json.Unmarshal(raw, &body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errMsg := body.Message
		if errMsg == "" {
			errMsg = fmt.Sprintf("twilio returned %d", resp.StatusCode)
		}
		return Result{Status: StatusFailed, Error: errMsg, Raw: string(raw)}, nil
	}
	return Result{Status: StatusSent, MessageID: body.SID, Raw: string(raw)}, nil
}

// cleanPhoneNumber normalizes user input to E.164. Ten-digit numbers
// without a country code are assumed to be US.
func cleanPhoneNumber(phone string) string {
	var b strings.Builder
	for _, c := range phone {
		if c >= '0' && c <= '9' || c == '+' {
			b.WriteRune(c)
		}
	}
	cleaned := b.String()
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	switch {
	case len(cleaned) == 10:
		return "+1" + cleaned
	default:
		return "+" + cleaned
	}
}
