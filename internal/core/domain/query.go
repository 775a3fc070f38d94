package domain

import (
	"fmt"
	"time"
)

// DefaultTopK is the per-field candidate count requested from the vector store.
const DefaultTopK = 50

// DisplayMode selects which columns are rendered and exported.
type DisplayMode string

// Display modes.
const (
	DisplayAll      DisplayMode = "all"
	DisplayTitles   DisplayMode = "titles"
	DisplayKeywords DisplayMode = "keywords"
)

// IsValid returns true if the display mode is recognised.
func (m DisplayMode) IsValid() bool {
	switch m {
	case DisplayAll, DisplayTitles, DisplayKeywords:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m DisplayMode) String() string {
	return string(m)
}

// ParseDisplayMode converts a string to a DisplayMode. Empty means DisplayAll.
func ParseDisplayMode(s string) (DisplayMode, error) {
	if s == "" {
		return DisplayAll, nil
	}
	m := DisplayMode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: unknown display mode %q (want all, titles or keywords)", ErrInvalidQuery, s)
	}
	return m, nil
}

// QueryFilters configures a hybrid query.
type QueryFilters struct {
	// DateFrom is the inclusive lower bound on publication date.
	DateFrom *time.Time

	// DateTo is the inclusive upper bound on publication date.
	DateTo *time.Time

	// Display selects the projection; empty means DisplayAll.
	Display DisplayMode

	// Limit truncates the ranked list when positive.
	Limit int
}

// HasDateRange reports whether either date bound is set.
func (f QueryFilters) HasDateRange() bool {
	return f.DateFrom != nil || f.DateTo != nil
}

// Validate checks the filter combination.
func (f QueryFilters) Validate() error {
	if f.Display != "" && !f.Display.IsValid() {
		return fmt.Errorf("%w: unknown display mode %q", ErrInvalidQuery, f.Display)
	}
	if f.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidQuery, f.Limit)
	}
	if f.DateFrom != nil && f.DateTo != nil && TruncateDay(*f.DateFrom).After(TruncateDay(*f.DateTo)) {
		return fmt.Errorf("%w: from %s is after to %s", ErrInvalidFilterRange,
			f.DateFrom.Format(DateLayout), f.DateTo.Format(DateLayout))
	}
	return nil
}

// Contains reports whether a publication date lies in the filter's date range.
// Without bounds every article matches; with a bound, undated articles do not.
func (f QueryFilters) Contains(date *time.Time) bool {
	if !f.HasDateRange() {
		return true
	}
	if date == nil {
		return false
	}
	d := TruncateDay(*date)
	if f.DateFrom != nil && d.Before(TruncateDay(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && d.After(TruncateDay(*f.DateTo)) {
		return false
	}
	return true
}

// ArticleFilter selects relational rows by publication date, optionally
// restricted to a set of keys.
type ArticleFilter struct {
	// Keys limits the selection when non-empty.
	Keys     []string
	DateFrom *time.Time
	DateTo   *time.Time
}

// QueryResult is one ranked hit. It is never persisted.
type QueryResult struct {
	// Article is the relational row backing the hit.
	Article Article `json:"article" yaml:"article"`

	// Score is the maximum similarity across matched fields.
	Score float64 `json:"score" yaml:"score"`

	// MatchedFields are the fields that produced Score, in AllFields order.
	MatchedFields []Field `json:"matched_fields" yaml:"matched_fields"`
}

// QueryStats describes how a candidate set was reduced.
type QueryStats struct {
	// Candidates is the number of distinct article keys returned by the vector store.
	Candidates int `json:"candidates" yaml:"candidates"`

	// StaleVectors counts candidates without a relational row.
	StaleVectors int `json:"stale_vectors" yaml:"stale_vectors"`

	// Filtered counts candidates dropped by the date range.
	Filtered int `json:"filtered" yaml:"filtered"`

	// Returned is the number of results after limit.
	Returned int `json:"returned" yaml:"returned"`
}

// TruncateDay returns t at midnight UTC of the same calendar day.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO date (2006-01-02) or an RFC3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unrecognised date %q", ErrInvalidInput, s)
	}
	return TruncateDay(t), nil
}
