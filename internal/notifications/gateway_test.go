package notifications

import (
	"context"
	"strings"
	"testing"
)

type fakeEmailProvider struct {
	last EmailMessage
	res  Result
}

func (f *fakeEmailProvider) Name() string { return "fake-email" }

func (f *fakeEmailProvider) SendEmail(_ context.Context, msg EmailMessage) (Result, error) {
	f.last = msg
	return f.res, nil
}

type fakeSMSProvider struct {
	last SMSMessage
	res  Result
}

func (f *fakeSMSProvider) Name() string { return "fake-sms" }

func (f *fakeSMSProvider) SendSMS(_ context.Context, msg SMSMessage) (Result, error) {
	f.last = msg
	return f.res, nil
}

func TestGateway_SendQueueJoinedEmail(t *testing.T) {
	email := &fakeEmailProvider{res: Result{Status: StatusSent, MessageID: "m-1"}}
	g := NewGateway(email, nil)

	res, err := g.SendQueueJoinedEmail(context.Background(), "a@b.test", "Alice", "Downtown Clinic", 3, "15 minutes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusSent || res.MessageID != "m-1" {
		t.Fatalf("expected sent result, got %+v", res)
	}
	if email.last.To != "a@b.test" {
		t.Fatalf("expected recipient a@b.test, got %q", email.last.To)
	}
	if !strings.Contains(email.last.Subject, "Downtown Clinic") {
		t.Fatalf("expected queue name in subject, got %q", email.last.Subject)
	}
	if !strings.Contains(email.last.TextBody, "#3") || !strings.Contains(email.last.TextBody, "15 minutes") {
		t.Fatalf("expected position and wait in body, got %q", email.last.TextBody)
	}
}

func TestGateway_SendNextInLineSMS(t *testing.T) {
	sms := &fakeSMSProvider{res: Result{Status: StatusSent, MessageID: "SM-1"}}
	g := NewGateway(nil, sms)

	res, err := g.SendNextInLineSMS(context.Background(), "+15551234567", "Bob", "Downtown Clinic", "Counter 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusSent {
		t.Fatalf("expected sent result, got %+v", res)
	}
	if sms.last.To != "+15551234567" {
		t.Fatalf("expected recipient, got %q", sms.last.To)
	}
	if !strings.Contains(sms.last.Body, "Counter 2") || !strings.Contains(sms.last.Body, "Bob") {
		t.Fatalf("expected location and name in body, got %q", sms.last.Body)
	}
}

func TestGateway_MissingProviderFailsSoft(t *testing.T) {
	g := NewGateway(nil, nil)

	res, err := g.SendNextInLineEmail(context.Background(), "a@b.test", "Alice", "Q", "Counter 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusFailed {
		t.Fatalf("expected failed result, got %+v", res)
	}

	res, err = g.SendQueueJoinedSMS(context.Background(), "+15551234567", "Alice", "Q", 1, "5 minutes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusFailed {
		t.Fatalf("expected failed result, got %+v", res)
	}
}
