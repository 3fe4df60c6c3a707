// Package quotes prices performance media packages and generates quote
// outreach content.
package quotes

import "time"

// All money is in cents.
const (
	// Per-performer rate for groups of 50 or more.
	volumeRateCents int64 = 1500
	// Per-performer rate for smaller groups.
	baseRateCents int64 = 1800
	// Early-bird reduction applied when a deadline is on file.
	earlyBirdPercent int64 = 15
	// Minimum charge for any engagement.
	floorCents int64 = 50000

	volumeThreshold = 50
)

type Pricing struct {
	PerformerCount    int
	RateCents         int64
	StandardCents     int64
	DiscountCents     int64
	SavingsCents      int64
	EarlyBirdApplied  bool
	EarlyBirdDeadline *time.Time
}

// Price computes the deterministic quote for a program. The early-bird
// discount applies whenever a deadline is present; both totals are floored,
// and savings never go negative.
func Price(estimatedPerformers int, earlyBirdDeadline *time.Time) Pricing {
	performers := estimatedPerformers
	if performers < 1 {
		performers = 1
	}

	rate := baseRateCents
	if performers >= volumeThreshold {
		rate = volumeRateCents
	}

	standard := applyFloor(rate * int64(performers))

	discounted := standard
	earlyBird := earlyBirdDeadline != nil
	if earlyBird {
		discounted = applyFloor(rate * int64(performers) * (100 - earlyBirdPercent) / 100)
	}

	savings := standard - discounted
	if savings < 0 {
		savings = 0
	}

	return Pricing{
		PerformerCount:    performers,
		RateCents:         rate,
		StandardCents:     standard,
		DiscountCents:     discounted,
		SavingsCents:      savings,
		EarlyBirdApplied:  earlyBird,
		EarlyBirdDeadline: earlyBirdDeadline,
	}
}

// FinalAmountCents is the amount a converted lead is invoiced for.
func (p Pricing) FinalAmountCents() int64 {
	if p.EarlyBirdApplied {
		return p.DiscountCents
	}
	return p.StandardCents
}

func applyFloor(cents int64) int64 {
	if cents < floorCents {
		return floorCents
	}
	return cents
}
