package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPostmarkProvider_SendEmail(t *testing.T) {
	var gotToken string
	var gotBody postmarkRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/email" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(postmarkResponse{MessageID: "pm-123"})
	}))
	defer srv.Close()

	p := NewPostmarkProvider("token-1", "noreply@sqipit.test")
	p.baseURL = srv.URL

	res, err := p.SendEmail(context.Background(), EmailMessage{
		To: "a@b.test", Subject: "hello", TextBody: "body",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusSent || res.MessageID != "pm-123" {
		t.Fatalf("expected sent pm-123, got %+v", res)
	}
	if gotToken != "token-1" {
		t.Fatalf("expected server token header, got %q", gotToken)
	}
	if gotBody.From != "noreply@sqipit.test" || gotBody.To != "a@b.test" {
		t.Fatalf("unexpected payload %+v", gotBody)
	}
}

func TestPostmarkProvider_APIErrorFailsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(postmarkResponse{ErrorCode: 300, Message: "Invalid 'To' address"})
	}))
	defer srv.Close()

	p := NewPostmarkProvider("token-1", "noreply@sqipit.test")
	p.baseURL = srv.URL

	res, err := p.SendEmail(context.Background(), EmailMessage{To: "bad", Subject: "s", TextBody: "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusFailed || res.Error != "Invalid 'To' address" {
		t.Fatalf("expected failed result with provider message, got %+v", res)
	}
}

func TestPostmarkProvider_Unconfigured(t *testing.T) {
	p := NewPostmarkProvider("", "")
	res, err := p.SendEmail(context.Background(), EmailMessage{To: "a@b.test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusFailed {
		t.Fatalf("expected failed result, got %+v", res)
	}
}

func TestTwilioProvider_SendSMS(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			t.Fatalf("expected basic auth AC123/secret")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = map[string]string{
			"From": r.PostForm.Get("From"),
			"To":   r.PostForm.Get("To"),
			"Body": r.PostForm.Get("Body"),
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(twilioResponse{SID: "SM123", Status: "queued"})
	}))
	defer srv.Close()

	p := NewTwilioProvider("AC123", "secret", "+15550001111")
	p.baseURL = srv.URL

	res, err := p.SendSMS(context.Background(), SMSMessage{To: "(555) 123-4567", Body: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusSent || res.MessageID != "SM123" {
		t.Fatalf("expected sent SM123, got %+v", res)
	}
	if gotForm["To"] != "+15551234567" {
		t.Fatalf("expected normalized E.164 number, got %q", gotForm["To"])
	}
	if gotForm["From"] != "+15550001111" || gotForm["Body"] != "hello" {
		t.Fatalf("unexpected form %+v", gotForm)
	}
}

func TestCleanPhoneNumber(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"+15551234567", "+15551234567"},
		{"(555) 123-4567", "+15551234567"},
		{"5551234567", "+15551234567"},
		{"447911123456", "+447911123456"},
	}
	for _, tc := range cases {
		if got := cleanPhoneNumber(tc.in); got != tc.want {
			t.Fatalf("cleanPhoneNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
