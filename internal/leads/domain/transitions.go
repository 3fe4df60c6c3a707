package domain

import (
	"fmt"
	"time"
)

// Trigger identifies which component requested a transition. The same
// target status may be legal for one trigger and illegal for another:
// only the classifier may move a lead into a reply state, and only the
// conversion coordinator may move it into the invoiced states.
type Trigger string

const (
	TriggerQuote      Trigger = "quote"
	TriggerFollowUp   Trigger = "follow_up"
	TriggerIntent     Trigger = "intent"
	TriggerConversion Trigger = "conversion"
	TriggerPayment    Trigger = "payment"
	TriggerManual     Trigger = "manual"
)

// intentStatuses are the targets the classifier may set.
var intentStatuses = map[Status]bool{
	StatusReplyReceived:  true,
	StatusNegotiating:    true,
	StatusConvertedQuote: true,
	StatusNotInterested:  true,
}

// ValidateTransition checks whether trigger may move a lead from one status
// to another. It returns a non-nil error naming the violated rule.
func ValidateTransition(from, to Status, trigger Trigger) error {
	if !IsKnownStatus(from) {
		return fmt.Errorf("unknown current status %q", from)
	}
	if !IsKnownStatus(to) {
		return fmt.Errorf("unknown target status %q", to)
	}

	switch trigger {
	case TriggerQuote:
		if to != StatusQuoteSent {
			return fmt.Errorf("quote trigger may only target %s", StatusQuoteSent)
		}
		if from != StatusNewLead {
			return fmt.Errorf("quote may be sent once, from %s only (current %s)", StatusNewLead, from)
		}
		return nil

	case TriggerFollowUp:
		step := FollowUpStep(to)
		if step < 1 {
			return fmt.Errorf("follow-up trigger may only target a follow-up status, got %s", to)
		}
		if FollowUpStep(from) != step-1 {
			return fmt.Errorf("follow-up step %d requires prior step %d, current status %s", step, step-1, from)
		}
		return nil

	case TriggerIntent:
		if !intentStatuses[to] {
			return fmt.Errorf("intent trigger may not target %s", to)
		}
		if IsTerminal(from) {
			return fmt.Errorf("lead is terminal (%s)", from)
		}
		return nil

	case TriggerConversion:
		if to != StatusInvoiceSent {
			return fmt.Errorf("conversion trigger may only target %s", StatusInvoiceSent)
		}
		if IsTerminal(from) || from == StatusInvoiceSent {
			return fmt.Errorf("cannot invoice a lead in status %s", from)
		}
		return nil

	case TriggerPayment:
		if to != StatusConvertedPaid {
			return fmt.Errorf("payment trigger may only target %s", StatusConvertedPaid)
		}
		if from != StatusInvoiceSent && from != StatusConvertedQuote {
			return fmt.Errorf("payment requires an invoiced lead, current status %s", from)
		}
		return nil

	case TriggerManual:
		if to != StatusManualConverted {
			return fmt.Errorf("manual trigger may only target %s", StatusManualConverted)
		}
		if !IsPreInvoice(from) {
			return fmt.Errorf("manual conversion requires a pre-invoice lead, current status %s", from)
		}
		return nil
	}

	return fmt.Errorf("unknown trigger %q", trigger)
}

// StatusForIntent maps a classified intent type to the status the state
// machine should transition to.
func StatusForIntent(intentType string) (Status, error) {
	switch intentType {
	case "ready_to_purchase":
		return StatusConvertedQuote, nil
	case "negotiating":
		return StatusNegotiating, nil
	case "inquiry":
		return StatusReplyReceived, nil
	case "not_interested":
		return StatusNotInterested, nil
	}
	return "", fmt.Errorf("unknown intent type %q", intentType)
}

// FollowUpEligibility is the pure cadence guard the scheduler consults.
// A lead is due for the next follow-up only when no reply has been seen,
// the cap is not reached, and the spacing interval has elapsed since the
// last outbound contact.
func FollowUpEligibility(status Status, replyDetected bool, followUpCount int, lastCommunication time.Time, now time.Time, intervalDays, maxSteps int) error {
	if replyDetected {
		return fmt.Errorf("reply already detected")
	}
	step := FollowUpStep(status)
	if step < 0 || step >= maxSteps {
		return fmt.Errorf("status %s is not eligible for follow-up", status)
	}
	if followUpCount >= maxSteps {
		return fmt.Errorf("follow-up cap of %d reached", maxSteps)
	}
	if lastCommunication.IsZero() {
		return fmt.Errorf("no prior communication recorded")
	}
	if elapsed := now.Sub(lastCommunication); elapsed < time.Duration(intervalDays)*24*time.Hour {
		return fmt.Errorf("only %s elapsed since last contact, %d days required", elapsed.Truncate(time.Hour), intervalDays)
	}
	return nil
}
