// Package mailer delivers composed license emails.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/resend/resend-go/v2"

	"phasegarden/internal/fulfillment/models"
	"phasegarden/pkg/requestcontext"
)

// ErrRecipientMissing is returned before any network call when To is empty.
var ErrRecipientMissing = errors.New("email recipient missing")

// Resend sends through the Resend HTTP API.
type Resend struct {
	client *resend.Client
}

// NewResend builds a sender. A nil httpClient uses http.DefaultClient.
func NewResend(apiKey string, httpClient *http.Client) *Resend {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Resend{client: resend.NewCustomClient(httpClient, apiKey)}
}

// Send returns the provider message id.
func (r *Resend) Send(ctx context.Context, msg models.Email) (string, error) {
	if strings.TrimSpace(msg.To) == "" {
		return "", ErrRecipientMissing
	}
	sent, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", fmt.Errorf("resend send: %w", err)
	}
	return sent.Id, nil
}

// Log writes deliveries to the logger instead of sending them. Used when no
// mail provider is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, msg models.Email) (string, error) {
	if strings.TrimSpace(msg.To) == "" {
		return "", ErrRecipientMissing
	}
	l.logger.InfoContext(ctx, "email delivery skipped, no mail provider configured",
		"to", msg.To,
		"subject", msg.Subject,
		"request_id", requestcontext.RequestID(ctx),
	)
	return "logged", nil
}
