// Package outreach personalizes templated content and dispatches it over
// email and SMS.
package outreach

import (
	"fmt"
	"strings"
	"time"
)

// Placeholders is the substitution set for {{name}} tokens in follow-up
// templates. Values are plain text; unknown tokens pass through untouched
// so a template typo is visible in the sent message instead of silently
// vanishing.
type Placeholders struct {
	FirstName      string
	LastName       string
	SchoolName     string
	ProgramType    string
	Performers     int
	StandardRate   string
	DiscountRate   string
	Savings        string
	Deadline       *time.Time
	EventDate      *time.Time
}

func (p Placeholders) values() map[string]string {
	vals := map[string]string{
		"first_name":    p.FirstName,
		"last_name":     p.LastName,
		"school_name":   p.SchoolName,
		"program_type":  p.ProgramType,
		"performers":    fmt.Sprintf("%d", p.Performers),
		"standard_rate": p.StandardRate,
		"discount_rate": p.DiscountRate,
		"savings":       p.Savings,
	}
	if p.Deadline != nil {
		vals["deadline"] = p.Deadline.Format("January 2, 2006")
	}
	if p.EventDate != nil {
		vals["event_date"] = p.EventDate.Format("January 2, 2006")
	}
	return vals
}

// Personalize substitutes {{token}} placeholders. Pure string work, no I/O.
func Personalize(template string, p Placeholders) string {
	vals := p.values()

	var b strings.Builder
	rest := template
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end += start

		b.WriteString(rest[:start])
		token := strings.TrimSpace(rest[start+2 : end])
		if val, ok := vals[token]; ok {
			b.WriteString(val)
		} else {
			b.WriteString(rest[start : end+2])
		}
		rest = rest[end+2:]
	}
}
