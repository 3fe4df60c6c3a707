package quotes

import (
	"testing"
	"time"
)

func TestPriceVolumeRate(t *testing.T) {
	p := Price(60, nil)

	if p.RateCents != 1500 {
		t.Errorf("rate = %d, want 1500 for 60 performers", p.RateCents)
	}
	if p.StandardCents != 90000 {
		t.Errorf("standard = %d, want 90000", p.StandardCents)
	}
	if p.EarlyBirdApplied {
		t.Error("no deadline, early bird should not apply")
	}
	if p.DiscountCents != p.StandardCents {
		t.Errorf("without a deadline discounted (%d) must equal standard (%d)", p.DiscountCents, p.StandardCents)
	}
	if p.SavingsCents != 0 {
		t.Errorf("savings = %d, want 0", p.SavingsCents)
	}
}

func TestPriceEarlyBird(t *testing.T) {
	deadline := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	p := Price(30, &deadline)

	if p.RateCents != 1800 {
		t.Errorf("rate = %d, want 1800 below the volume threshold", p.RateCents)
	}
	if p.StandardCents != 54000 {
		t.Errorf("standard = %d, want 54000", p.StandardCents)
	}
	// 30 * $18 * 0.85 = $459, floored to $500.
	if p.DiscountCents != 50000 {
		t.Errorf("discounted = %d, want 50000 (floor)", p.DiscountCents)
	}
	if p.SavingsCents != 4000 {
		t.Errorf("savings = %d, want 4000", p.SavingsCents)
	}
	if p.FinalAmountCents() != 50000 {
		t.Errorf("final amount = %d, want discounted total", p.FinalAmountCents())
	}
}

func TestPriceFloor(t *testing.T) {
	p := Price(10, nil)

	// 10 * $18 = $180, floored to $500.
	if p.StandardCents != 50000 {
		t.Errorf("standard = %d, want floor 50000", p.StandardCents)
	}
	if p.SavingsCents != 0 {
		t.Errorf("savings = %d, want 0", p.SavingsCents)
	}
}

func TestPriceSavingsNeverNegative(t *testing.T) {
	deadline := time.Now()
	for _, performers := range []int{0, 1, 5, 27, 28, 49, 50, 51, 200} {
		p := Price(performers, &deadline)
		if p.SavingsCents < 0 {
			t.Errorf("performers=%d: savings %d is negative", performers, p.SavingsCents)
		}
		if p.DiscountCents > p.StandardCents {
			t.Errorf("performers=%d: discounted %d exceeds standard %d", performers, p.DiscountCents, p.StandardCents)
		}
		if p.StandardCents < 50000 || p.DiscountCents < 50000 {
			t.Errorf("performers=%d: totals below floor (%d / %d)", performers, p.StandardCents, p.DiscountCents)
		}
	}
}

func TestPriceThresholdBoundary(t *testing.T) {
	if p := Price(49, nil); p.RateCents != 1800 {
		t.Errorf("49 performers: rate = %d, want 1800", p.RateCents)
	}
	if p := Price(50, nil); p.RateCents != 1500 {
		t.Errorf("50 performers: rate = %d, want 1500", p.RateCents)
	}
}

func TestPriceZeroPerformersClampedToOne(t *testing.T) {
	p := Price(0, nil)
	if p.PerformerCount != 1 {
		t.Errorf("performer count = %d, want 1", p.PerformerCount)
	}
}
