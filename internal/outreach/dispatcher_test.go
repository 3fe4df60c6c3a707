package outreach

import (
	"context"
	"errors"
	"testing"

	"leadflow_backend/internal/email"
	"leadflow_backend/platform/logger"
)

type fakeSender struct {
	quoteCalls    int
	followUpCalls int
	err           error
}

func (f *fakeSender) SendQuoteEmail(_ context.Context, _, _, _, _ string) error {
	f.quoteCalls++
	return f.err
}

func (f *fakeSender) SendFollowUpEmail(_ context.Context, _, _, _, _ string) error {
	f.followUpCalls++
	return f.err
}

func (f *fakeSender) SendInvoiceEmail(_ context.Context, _, _, _, _, _ string, _ ...email.Attachment) error {
	return nil
}

func (f *fakeSender) SendOperatorEmail(_ context.Context, _, _, _, _ string) error { return nil }

func (f *fakeSender) SendCustomEmail(_ context.Context, _, _, _ string) error { return nil }

func TestDispatcherEmailOnly(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, nil, logger.New("test"))

	results := d.Send(context.Background(), Message{
		ToEmail:      "dana@school.edu",
		DirectorName: "Dana",
		EmailSubject: "Your quote",
		EmailBody:    "Hi Dana",
		SMSBody:      "sms body",
		ToPhone:      "+15551234567",
	})

	// SMS client is nil, so only email is attempted.
	if len(results) != 1 || results[0].Channel != ChannelEmail {
		t.Fatalf("results = %+v, want single email result", results)
	}
	if results[0].Err != nil {
		t.Errorf("unexpected error: %v", results[0].Err)
	}
	if sender.quoteCalls != 1 || sender.followUpCalls != 0 {
		t.Errorf("quote sender called %d/%d times", sender.quoteCalls, sender.followUpCalls)
	}
}

func TestDispatcherFollowUpFrame(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, nil, logger.New("test"))

	d.Send(context.Background(), Message{
		ToEmail:   "dana@school.edu",
		EmailBody: "checking in",
		FollowUp:  true,
	})

	if sender.followUpCalls != 1 || sender.quoteCalls != 0 {
		t.Errorf("follow-up frame not used: quote=%d followUp=%d", sender.quoteCalls, sender.followUpCalls)
	}
}

func TestDispatcherTransportErrorCarriesChannel(t *testing.T) {
	sender := &fakeSender{err: errors.New("brevo down")}
	d := NewDispatcher(sender, nil, logger.New("test"))

	results := d.Send(context.Background(), Message{
		ToEmail:   "dana@school.edu",
		EmailBody: "Hi",
	})

	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("expected failed email result, got %+v", results)
	}
	var transportErr *TransportError
	if !errors.As(results[0].Err, &transportErr) || transportErr.Channel != ChannelEmail {
		t.Errorf("error should be a *TransportError for the email channel, got %v", results[0].Err)
	}
}

func TestDispatcherSkipsEmptyChannels(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, nil, logger.New("test"))

	if results := d.Send(context.Background(), Message{}); len(results) != 0 {
		t.Errorf("no addresses should mean no attempts, got %+v", results)
	}
}
