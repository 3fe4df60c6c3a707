package domain

import (
	"testing"
	"time"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     Status
		to       Status
		trigger  Trigger
		wantFail bool
	}{
		{"quote from new lead", StatusNewLead, StatusQuoteSent, TriggerQuote, false},
		{"quote twice", StatusQuoteSent, StatusQuoteSent, TriggerQuote, true},
		{"quote from follow-up", StatusFollowUpSent2, StatusQuoteSent, TriggerQuote, true},
		{"first follow-up", StatusQuoteSent, StatusFollowUpSent1, TriggerFollowUp, false},
		{"follow-up chain", StatusFollowUpSent2, StatusFollowUpSent3, TriggerFollowUp, false},
		{"follow-up skips step", StatusFollowUpSent1, StatusFollowUpSent3, TriggerFollowUp, true},
		{"follow-up from new lead", StatusNewLead, StatusFollowUpSent1, TriggerFollowUp, true},
		{"scheduler cannot set reply state", StatusQuoteSent, StatusReplyReceived, TriggerFollowUp, true},
		{"intent sets reply state", StatusFollowUpSent3, StatusReplyReceived, TriggerIntent, false},
		{"intent sets negotiating", StatusQuoteSent, StatusNegotiating, TriggerIntent, false},
		{"intent sets ready to purchase", StatusNegotiating, StatusConvertedQuote, TriggerIntent, false},
		{"intent on paid lead", StatusConvertedPaid, StatusReplyReceived, TriggerIntent, true},
		{"intent cannot invoice", StatusQuoteSent, StatusInvoiceSent, TriggerIntent, true},
		{"conversion invoices", StatusConvertedQuote, StatusInvoiceSent, TriggerConversion, false},
		{"conversion from negotiation", StatusNegotiating, StatusInvoiceSent, TriggerConversion, false},
		{"conversion twice", StatusInvoiceSent, StatusInvoiceSent, TriggerConversion, true},
		{"payment after invoice", StatusInvoiceSent, StatusConvertedPaid, TriggerPayment, false},
		{"payment before invoice", StatusQuoteSent, StatusConvertedPaid, TriggerPayment, true},
		{"manual from pre-invoice", StatusFollowUpSent4, StatusManualConverted, TriggerManual, false},
		{"manual after invoice", StatusInvoiceSent, StatusManualConverted, TriggerManual, true},
		{"unknown source status", Status("Bogus"), StatusQuoteSent, TriggerQuote, true},
	}

	for _, tc := range tests {
		err := ValidateTransition(tc.from, tc.to, tc.trigger)
		if tc.wantFail && err == nil {
			t.Errorf("%s: ValidateTransition(%s, %s, %s) should have failed", tc.name, tc.from, tc.to, tc.trigger)
		}
		if !tc.wantFail && err != nil {
			t.Errorf("%s: ValidateTransition(%s, %s, %s) unexpected error: %v", tc.name, tc.from, tc.to, tc.trigger, err)
		}
	}
}

func TestFollowUpStatusRoundTrip(t *testing.T) {
	for step := 1; step <= 4; step++ {
		status, err := FollowUpStatus(step)
		if err != nil {
			t.Fatalf("FollowUpStatus(%d): %v", step, err)
		}
		if got := FollowUpStep(status); got != step {
			t.Errorf("FollowUpStep(%s) = %d, want %d", status, got, step)
		}
	}

	if _, err := FollowUpStatus(5); err == nil {
		t.Error("FollowUpStatus(5) should fail")
	}
	if got := FollowUpStep(StatusQuoteSent); got != 0 {
		t.Errorf("FollowUpStep(QuoteSent) = %d, want 0", got)
	}
	if got := FollowUpStep(StatusNewLead); got != -1 {
		t.Errorf("FollowUpStep(NewLead) = %d, want -1", got)
	}
}

func TestFollowUpEligibility(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	fiveDaysAgo := now.Add(-5 * 24 * time.Hour)
	twoDaysAgo := now.Add(-2 * 24 * time.Hour)

	tests := []struct {
		name          string
		status        Status
		replyDetected bool
		count         int
		lastComm      time.Time
		wantFail      bool
	}{
		{"due after quote", StatusQuoteSent, false, 0, fiveDaysAgo, false},
		{"due after third follow-up", StatusFollowUpSent3, false, 3, fiveDaysAgo, false},
		{"reply detected blocks", StatusQuoteSent, true, 0, fiveDaysAgo, true},
		{"too recent", StatusQuoteSent, false, 0, twoDaysAgo, true},
		{"cap reached", StatusFollowUpSent4, false, 4, fiveDaysAgo, true},
		{"new lead not eligible", StatusNewLead, false, 0, fiveDaysAgo, true},
		{"reply state not eligible", StatusReplyReceived, false, 1, fiveDaysAgo, true},
		{"zero last communication", StatusQuoteSent, false, 0, time.Time{}, true},
	}

	for _, tc := range tests {
		err := FollowUpEligibility(tc.status, tc.replyDetected, tc.count, tc.lastComm, now, 4, 4)
		if tc.wantFail && err == nil {
			t.Errorf("%s: expected eligibility failure", tc.name)
		}
		if !tc.wantFail && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestStatusForIntent(t *testing.T) {
	cases := map[string]Status{
		"ready_to_purchase": StatusConvertedQuote,
		"negotiating":       StatusNegotiating,
		"inquiry":           StatusReplyReceived,
		"not_interested":    StatusNotInterested,
	}
	for intent, want := range cases {
		got, err := StatusForIntent(intent)
		if err != nil {
			t.Fatalf("StatusForIntent(%q): %v", intent, err)
		}
		if got != want {
			t.Errorf("StatusForIntent(%q) = %s, want %s", intent, got, want)
		}
	}
	if _, err := StatusForIntent("shrug"); err == nil {
		t.Error("StatusForIntent with unknown intent should fail")
	}
}
