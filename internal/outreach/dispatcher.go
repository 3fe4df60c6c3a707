package outreach

import (
	"context"
	"fmt"

	"leadflow_backend/internal/email"
	"leadflow_backend/platform/logger"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// TransportError marks a send failure on a specific channel. Callers record
// the failed attempt and move on; outreach failures never roll back a
// status transition that already happened.
type TransportError struct {
	Channel string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s send failed: %v", e.Channel, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Message is one personalized outbound contact.
type Message struct {
	ToEmail      string
	ToPhone      string
	DirectorName string
	EmailSubject string
	EmailBody    string
	SMSBody      string
	// FollowUp selects the follow-up email frame instead of the quote one.
	FollowUp bool
}

// ChannelResult reports the outcome per channel for communication records.
type ChannelResult struct {
	Channel   string
	MessageID string
	Err       error
}

type Dispatcher struct {
	email email.Sender
	sms   *SMSClient
	log   *logger.Logger
}

func NewDispatcher(emailSender email.Sender, sms *SMSClient, log *logger.Logger) *Dispatcher {
	return &Dispatcher{email: emailSender, sms: sms, log: log}
}

// Send delivers the message on every channel it has an address for and
// returns one result per attempted channel. A failed channel never stops
// the other one.
func (d *Dispatcher) Send(ctx context.Context, msg Message) []ChannelResult {
	results := make([]ChannelResult, 0, 2)

	if msg.ToEmail != "" && msg.EmailBody != "" {
		var err error
		if msg.FollowUp {
			err = d.email.SendFollowUpEmail(ctx, msg.ToEmail, msg.DirectorName, msg.EmailSubject, msg.EmailBody)
		} else {
			err = d.email.SendQuoteEmail(ctx, msg.ToEmail, msg.DirectorName, msg.EmailSubject, msg.EmailBody)
		}
		result := ChannelResult{Channel: ChannelEmail}
		if err != nil {
			result.Err = &TransportError{Channel: ChannelEmail, Err: err}
			d.log.Error("email dispatch failed", "to", msg.ToEmail, "error", err)
		}
		results = append(results, result)
	}

	if msg.ToPhone != "" && msg.SMSBody != "" && d.sms != nil {
		messageID, err := d.sms.SendMessage(ctx, msg.ToPhone, msg.SMSBody)
		result := ChannelResult{Channel: ChannelSMS, MessageID: messageID}
		if err != nil {
			result.Err = &TransportError{Channel: ChannelSMS, Err: err}
			d.log.Error("sms dispatch failed", "to", msg.ToPhone, "error", err)
		}
		results = append(results, result)
	}

	return results
}
