// Package email delivers lead-facing and operator email via Brevo or SMTP.
package email

import (
	"context"
	"fmt"

	"leadflow_backend/platform/config"
)

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte // raw file bytes (base64-encoded for Brevo)
	FileName string // e.g. "payment-qr.png"
	MIMEType string // e.g. "image/png"
}

type Sender interface {
	// SendQuoteEmail delivers the AI-written quote. Subject and body come
	// from the quote engine; the template only adds the house frame.
	SendQuoteEmail(ctx context.Context, toEmail, directorName, subject, body string) error
	SendFollowUpEmail(ctx context.Context, toEmail, directorName, subject, body string) error
	SendInvoiceEmail(ctx context.Context, toEmail, directorName, invoiceRef, totalFormatted, paymentURL string, attachments ...Attachment) error
	SendOperatorEmail(ctx context.Context, toEmail, subject, heading, body string) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

type NoopSender struct{}

func (NoopSender) SendQuoteEmail(ctx context.Context, toEmail, directorName, subject, body string) error {
	return nil
}

func (NoopSender) SendFollowUpEmail(ctx context.Context, toEmail, directorName, subject, body string) error {
	return nil
}

func (NoopSender) SendInvoiceEmail(ctx context.Context, toEmail, directorName, invoiceRef, totalFormatted, paymentURL string, attachments ...Attachment) error {
	return nil
}

func (NoopSender) SendOperatorEmail(ctx context.Context, toEmail, subject, heading, body string) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}

// NewSender builds the configured sender. Email disabled returns a noop so
// local development never needs credentials.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	switch cfg.GetEmailProvider() {
	case "brevo":
		return NewBrevoSender(cfg), nil
	case "smtp":
		return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName()), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.GetEmailProvider())
	}
}
