package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/litsearch/internal/core/domain"
)

func TestParseDateHint(t *testing.T) {
	now := time.Date(2024, 3, 31, 15, 4, 5, 0, time.UTC)
	today := *date("2024-03-31")

	tests := []struct {
		text     string
		wantFrom string
		phrase   string
	}{
		{text: "oncology papers from last week", wantFrom: "2024-03-24", phrase: "last week"},
		{text: "Last Month in cardiology", wantFrom: "2024-03-01", phrase: "last month"},
		{text: "surgery past 3 days", wantFrom: "2024-03-28", phrase: "past 3 days"},
		{text: "surgery last 2 weeks", wantFrom: "2024-03-17", phrase: "last 2 weeks"},
		{text: "surgery in the past 2 months", wantFrom: "2024-01-31", phrase: "past 2 months"},
		{text: "surgery past 1 day", wantFrom: "2024-03-30", phrase: "past 1 day"},
		{text: "gene therapy since 2024-01-15", wantFrom: "2024-01-15", phrase: "since 2024-01-15"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			hint, ok := ParseDateHint(tt.text, now)
			require.True(t, ok)
			assert.Equal(t, tt.wantFrom, hint.From.Format(domain.DateLayout))
			assert.Equal(t, today, hint.To)
			assert.Equal(t, tt.phrase, hint.Phrase)
		})
	}
}

func TestParseDateHint_NoHint(t *testing.T) {
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	for _, text := range []string{"surgery", "the last surgeon", "past 0 days", "since 2999-01-01"} {
		_, ok := ParseDateHint(text, now)
		assert.False(t, ok, text)
	}
}

func TestApplyDateHint(t *testing.T) {
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("fills empty range", func(t *testing.T) {
		filters, applied := ApplyDateHint("surgery last week", domain.QueryFilters{Limit: 3}, now)
		require.True(t, applied)
		require.NotNil(t, filters.DateFrom)
		require.NotNil(t, filters.DateTo)
		assert.Equal(t, "2024-03-24", filters.DateFrom.Format(domain.DateLayout))
		assert.Equal(t, 3, filters.Limit)
	})

	t.Run("explicit bounds win", func(t *testing.T) {
		explicit := domain.QueryFilters{DateFrom: date("2020-01-01")}
		filters, applied := ApplyDateHint("surgery last week", explicit, now)
		assert.False(t, applied)
		assert.Equal(t, explicit, filters)
	})

	t.Run("no hint", func(t *testing.T) {
		_, applied := ApplyDateHint("surgery", domain.QueryFilters{}, now)
		assert.False(t, applied)
	})
}
