package datemath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parser resolves natural-language date phrases against a reference instant.
// Resolution is deterministic: the caller injects the reference time, the
// parser never reads the wall clock.
type Parser struct {
	location *time.Location
}

// NewParser creates a parser for the given IANA timezone, e.g. "Asia/Dubai".
func NewParser(timezone string) (*Parser, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return &Parser{location: loc}, nil
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

var inDurationRe = regexp.MustCompile(`^in (\d+) (day|days|week|weeks|month|months)$`)

// absoluteLayouts are the explicit date formats accepted verbatim.
var absoluteLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
}

// Resolve converts a date phrase into an absolute calendar date relative to
// the reference instant. The second return value is false when the phrase is
// not recognized; callers treat that as "no due date", never as a failure.
func (p *Parser) Resolve(phrase string, reference time.Time) (time.Time, bool) {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return time.Time{}, false
	}

	// Leading filler that spoken transcripts often carry.
	for _, prefix := range []string{"by ", "on ", "due ", "until "} {
		phrase = strings.TrimPrefix(phrase, prefix)
	}

	ref := reference.In(p.location)

	switch phrase {
	case "today":
		return p.startOfDay(ref), true
	case "tomorrow":
		return p.startOfDay(ref.AddDate(0, 0, 1)), true
	case "next week":
		// The Monday of the following week.
		return p.nextWeekday(ref, time.Monday), true
	}

	if m := inDurationRe.FindStringSubmatch(phrase); m != nil {
		amount, _ := strconv.Atoi(m[1])
		switch {
		case strings.HasPrefix(m[2], "day"):
			return p.startOfDay(ref.AddDate(0, 0, amount)), true
		case strings.HasPrefix(m[2], "week"):
			return p.startOfDay(ref.AddDate(0, 0, amount*7)), true
		default:
			return p.startOfDay(ref.AddDate(0, amount, 0)), true
		}
	}

	// Weekday names, with or without "next"/"this". Always the next
	// occurrence strictly after the reference day: "Friday" spoken on a
	// Friday means the following week.
	dayName := strings.TrimPrefix(phrase, "next ")
	dayName = strings.TrimPrefix(dayName, "this ")
	if wd, ok := weekdays[dayName]; ok {
		return p.nextWeekday(ref, wd), true
	}

	return p.parseAbsolute(phrase)
}

func (p *Parser) parseAbsolute(phrase string) (time.Time, bool) {
	// time.Parse is case-sensitive for month names.
	candidate := titleCaseWords(phrase)
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, candidate, p.location); err == nil {
			return p.startOfDay(t), true
		}
	}
	return time.Time{}, false
}

// nextWeekday returns the start of the next occurrence of wd strictly after
// the reference day.
func (p *Parser) nextWeekday(ref time.Time, wd time.Weekday) time.Time {
	days := int(wd - ref.Weekday())
	if days <= 0 {
		days += 7
	}
	return p.startOfDay(ref.AddDate(0, 0, days))
}

// startOfDay returns midnight of the given day in the parser's timezone.
func (p *Parser) startOfDay(t time.Time) time.Time {
	t = t.In(p.location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, p.location)
}

func titleCaseWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w[0] >= 'a' && w[0] <= 'z' {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
