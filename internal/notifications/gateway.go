package notifications

import (
	"context"
	"log/slog"

	"sqipit/pkg/logger"
)

// Gateway renders templates and routes them to the configured providers.
// A missing provider degrades to a failed Result rather than an error so
// callers can treat notification delivery as best-effort.
type Gateway struct {
	email EmailProvider
	sms   SMSProvider
}

func NewGateway(email EmailProvider, sms SMSProvider) *Gateway {
	return &Gateway{email: email, sms: sms}
}

func (g *Gateway) sendEmail(ctx context.Context, msg EmailMessage) (Result, error) {
	if g.email == nil {
		return Result{Status: StatusFailed, Error: "no email provider configured"}, nil
	}
	res, err := g.email.SendEmail(ctx, msg)
	if err != nil {
		return res, err
	}
	if res.Status == StatusFailed {
		logger.From(ctx).Warn("email delivery failed",
			slog.String("provider", g.email.Name()),
			slog.String("error", res.Error))
	}
	return res, nil
}

func (g *Gateway) sendSMS(ctx context.Context, msg SMSMessage) (Result, error) {
	if g.sms == nil {
		return Result{Status: StatusFailed, Error: "no sms provider configured"}, nil
	}
	res, err := g.sms.SendSMS(ctx, msg)
	if err != nil {
		return res, err
	}
	if res.Status == StatusFailed {
		logger.From(ctx).Warn("sms delivery failed",
			slog.String("provider", g.sms.Name()),
			slog.String("error", res.Error))
	}
	return res, nil
}

func (g *Gateway) SendQueueJoinedEmail(ctx context.Context, to, customerName, queueName string, position int, estimatedWait string) (Result, error) {
	msg := QueueJoinedEmail(customerName, queueName, position, estimatedWait)
	msg.To = to
	return g.sendEmail(ctx, msg)
}

func (g *Gateway) SendQueueJoinedSMS(ctx context.Context, to, customerName, queueName string, position int, estimatedWait string) (Result, error) {
	return g.sendSMS(ctx, SMSMessage{To: to, Body: QueueJoinedSMS(customerName, queueName, position, estimatedWait)})
}

func (g *Gateway) SendNextInLineEmail(ctx context.Context, to, customerName, queueName, serviceLocation string) (Result, error) {
	msg := NextInLineEmail(customerName, queueName, serviceLocation)
	msg.To = to
	return g.sendEmail(ctx, msg)
}

func (g *Gateway) SendNextInLineSMS(ctx context.Context, to, customerName, queueName, serviceLocation string) (Result, error) {
	return g.sendSMS(ctx, SMSMessage{To: to, Body: NextInLineSMS(customerName, queueName, serviceLocation)})
}

func (g *Gateway) SendAlmostYourTurnEmail(ctx context.Context, to, customerName, queueName string, position int, estimatedWait string) (Result, error) {
	msg := AlmostYourTurnEmail(customerName, queueName, position, estimatedWait)
	msg.To = to
	return g.sendEmail(ctx, msg)
}

func (g *Gateway) SendAlmostYourTurnSMS(ctx context.Context, to, customerName, queueName string, position int, estimatedWait string) (Result, error) {
	return g.sendSMS(ctx, SMSMessage{To: to, Body: AlmostYourTurnSMS(customerName, queueName, position, estimatedWait)})
}
