// Package domain provides core business rules for the leads bounded context.
// All status strings and transition guards live here; services request
// transitions, the rules decide.
package domain

import "fmt"

// Status is a lead's lifecycle state.
type Status string

const (
	StatusNewLead         Status = "New_Lead"
	StatusQuoteSent       Status = "Quote_Sent"
	StatusFollowUpSent1   Status = "Follow_Up_Sent_1"
	StatusFollowUpSent2   Status = "Follow_Up_Sent_2"
	StatusFollowUpSent3   Status = "Follow_Up_Sent_3"
	StatusFollowUpSent4   Status = "Follow_Up_Sent_4"
	StatusReplyReceived   Status = "Reply_Received_Awaiting_Action"
	StatusNegotiating     Status = "Negotiating_Awaiting_Response"
	StatusConvertedQuote  Status = "Converted_Invoice_Sent"
	StatusNotInterested   Status = "Inactive_Not_Interested"
	StatusInvoiceSent     Status = "Invoice_Sent"
	StatusConvertedPaid   Status = "Converted_Paid"
	StatusManualConverted Status = "Manually_Converted"
)

var knownStatuses = map[Status]struct{}{
	StatusNewLead:         {},
	StatusQuoteSent:       {},
	StatusFollowUpSent1:   {},
	StatusFollowUpSent2:   {},
	StatusFollowUpSent3:   {},
	StatusFollowUpSent4:   {},
	StatusReplyReceived:   {},
	StatusNegotiating:     {},
	StatusConvertedQuote:  {},
	StatusNotInterested:   {},
	StatusInvoiceSent:     {},
	StatusConvertedPaid:   {},
	StatusManualConverted: {},
}

// IsKnownStatus reports whether s is one of the defined lifecycle states.
func IsKnownStatus(s Status) bool {
	_, ok := knownStatuses[s]
	return ok
}

// terminalStatuses are states where the automated lifecycle is complete.
// A terminal lead is never touched by the scheduler or the classifier.
var terminalStatuses = map[Status]bool{
	StatusConvertedPaid:   true,
	StatusManualConverted: true,
}

// IsTerminal reports whether no further automated action may occur.
func IsTerminal(s Status) bool {
	return terminalStatuses[s]
}

// IsPreInvoice reports whether the lead has not yet reached the billing
// system. Manual conversion is only reachable from these states.
func IsPreInvoice(s Status) bool {
	switch s {
	case StatusInvoiceSent, StatusConvertedPaid, StatusManualConverted:
		return false
	}
	return true
}

// followUpStatuses maps step number (1..MaxFollowUps) to status.
var followUpStatuses = [...]Status{
	StatusFollowUpSent1,
	StatusFollowUpSent2,
	StatusFollowUpSent3,
	StatusFollowUpSent4,
}

// FollowUpStatus returns the status for follow-up step (1-based).
func FollowUpStatus(step int) (Status, error) {
	if step < 1 || step > len(followUpStatuses) {
		return "", fmt.Errorf("follow-up step %d out of range 1..%d", step, len(followUpStatuses))
	}
	return followUpStatuses[step-1], nil
}

// FollowUpStep returns the step a status represents: 0 for QuoteSent,
// 1..4 for the follow-up states, -1 for anything else.
func FollowUpStep(s Status) int {
	if s == StatusQuoteSent {
		return 0
	}
	for i, fs := range followUpStatuses {
		if fs == s {
			return i + 1
		}
	}
	return -1
}
