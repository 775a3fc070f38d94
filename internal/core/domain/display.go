package domain

import (
	"strconv"
	"strings"
)

// Placeholders rendered for absent values.
const (
	NoAuthors  = "No Authors"
	NoDate     = "No Date"
	NoSummary  = "No Summary Available"
	NoKeywords = "No Keywords"
)

// Columns returns the header row for the display mode.
func (m DisplayMode) Columns() []string {
	switch m {
	case DisplayTitles:
		return []string{"Key", "Title", "Score"}
	case DisplayKeywords:
		return []string{"Key", "Title", "Keywords"}
	default:
		return []string{"Key", "Title", "Authors", "Date", "Abstract", "Keywords", "Score", "Matched Fields"}
	}
}

// Row projects r onto the columns of mode, substituting placeholders for absent values.
func (r QueryResult) Row(mode DisplayMode) []string {
	a := r.Article
	switch mode {
	case DisplayTitles:
		return []string{a.Key, a.Title, r.ScoreString()}
	case DisplayKeywords:
		return []string{a.Key, a.Title, orPlaceholder(strings.Join(a.Keywords, ", "), NoKeywords)}
	default:
		abstract := a.Abstract
		if abstract == "" {
			abstract = a.Summary
		}
		fields := make([]string, len(r.MatchedFields))
		for i, f := range r.MatchedFields {
			fields[i] = f.String()
		}
		return []string{
			a.Key,
			a.Title,
			orPlaceholder(strings.Join(a.Authors, ", "), NoAuthors),
			orPlaceholder(a.DateString(), NoDate),
			orPlaceholder(abstract, NoSummary),
			orPlaceholder(strings.Join(a.Keywords, ", "), NoKeywords),
			r.ScoreString(),
			strings.Join(fields, ";"),
		}
	}
}

// ScoreString formats the score with four decimals.
func (r QueryResult) ScoreString() string {
	return strconv.FormatFloat(r.Score, 'f', 4, 64)
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
