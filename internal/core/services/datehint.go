package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/litsearch/internal/core/domain"
)

var (
	relativeHint = regexp.MustCompile(`(?i)\b(?:last|past)\s+(\d+)\s+(days?|weeks?|months?)\b`)
	sinceHint    = regexp.MustCompile(`(?i)\bsince\s+(\d{4}-\d{2}-\d{2})\b`)
)

// DateHint is a publication date range recognised in query text.
type DateHint struct {
	From time.Time
	To   time.Time

	// Phrase is the matched text, e.g. "past 3 weeks".
	Phrase string
}

// ParseDateHint recognises "last week", "last month", "last|past N days|weeks|months"
// and "since YYYY-MM-DD" in text. Ranges end at now's date. A month is 30 days.
func ParseDateHint(text string, now time.Time) (DateHint, bool) {
	today := domain.TruncateDay(now)
	lower := strings.ToLower(text)

	if m := relativeHint.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			var days int
			switch strings.TrimSuffix(strings.ToLower(m[2]), "s") {
			case "day":
				days = n
			case "week":
				days = 7 * n
			case "month":
				days = 30 * n
			}
			return DateHint{From: today.AddDate(0, 0, -days), To: today, Phrase: m[0]}, true
		}
	}

	switch {
	case strings.Contains(lower, "last week"):
		return DateHint{From: today.AddDate(0, 0, -7), To: today, Phrase: "last week"}, true
	case strings.Contains(lower, "last month"):
		return DateHint{From: today.AddDate(0, 0, -30), To: today, Phrase: "last month"}, true
	}

	if m := sinceHint.FindStringSubmatch(text); m != nil {
		if from, err := domain.ParseDate(m[1]); err == nil && !from.After(today) {
			return DateHint{From: from, To: today, Phrase: m[0]}, true
		}
	}

	return DateHint{}, false
}

// ApplyDateHint fills the date range of filters from a hint in text.
// Explicit bounds always win: filters with any bound set are returned unchanged.
func ApplyDateHint(text string, filters domain.QueryFilters, now time.Time) (domain.QueryFilters, bool) {
	if filters.HasDateRange() {
		return filters, false
	}
	hint, ok := ParseDateHint(text, now)
	if !ok {
		return filters, false
	}
	from, to := hint.From, hint.To
	filters.DateFrom = &from
	filters.DateTo = &to
	return filters, true
}
