package outreach

import (
	"testing"
	"time"
)

func TestPersonalize(t *testing.T) {
	deadline := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
	p := Placeholders{
		FirstName:    "Dana",
		LastName:     "Reyes",
		SchoolName:   "Westfield High",
		ProgramType:  "Marching Band",
		Performers:   72,
		StandardRate: "$1,080.00",
		DiscountRate: "$918.00",
		Savings:      "$162.00",
		Deadline:     &deadline,
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			"basic substitution",
			"Hi {{first_name}}, your {{school_name}} quote is ready.",
			"Hi Dana, your Westfield High quote is ready.",
		},
		{
			"numeric and money tokens",
			"{{performers}} performers at {{discount_rate}}",
			"72 performers at $918.00",
		},
		{
			"deadline formatting",
			"Book by {{deadline}}!",
			"Book by September 15, 2025!",
		},
		{
			"unknown token left intact",
			"Hello {{first_name}}, {{mystery_token}} here.",
			"Hello Dana, {{mystery_token}} here.",
		},
		{
			"whitespace inside braces",
			"Hi {{ first_name }}!",
			"Hi Dana!",
		},
		{
			"unterminated braces pass through",
			"Hi {{first_name",
			"Hi {{first_name",
		},
		{
			"no tokens",
			"Just checking in.",
			"Just checking in.",
		},
	}

	for _, tc := range tests {
		if got := Personalize(tc.template, p); got != tc.want {
			t.Errorf("%s: Personalize() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestPersonalizeMissingDeadline(t *testing.T) {
	got := Personalize("Book by {{deadline}}", Placeholders{FirstName: "Dana"})
	if got != "Book by {{deadline}}" {
		t.Errorf("deadline token without a deadline should pass through, got %q", got)
	}
}
