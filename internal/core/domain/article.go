package domain

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// DateLayout is the ISO form used for publication dates and key derivation.
const DateLayout = "2006-01-02"

// IdentityConfidence records how strongly an article key identifies its source article.
type IdentityConfidence string

const (
	// IdentityHigh means title, source and publication date took part in the key.
	IdentityHigh IdentityConfidence = "high"

	// IdentityLow means the publication date was absent and the key uses title and source only.
	IdentityLow IdentityConfidence = "low"
)

// Article is a normalised, keyed document.
// It is the canonical representation held in the relational store.
type Article struct {
	// Key is the stable identifier derived from title, source and date.
	Key string `json:"key" yaml:"key"`

	// Title is the display title with original casing.
	Title string `json:"title" yaml:"title"`

	// Source is the publishing domain (e.g. "nature.com").
	Source string `json:"source" yaml:"source"`

	// URL is the original location, if known.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Authors are kept in publication order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Abstract is the article abstract.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Summary is the short description shown in listings.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// PublicationDate is nil when the source did not expose one.
	PublicationDate *time.Time `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`

	// Keywords are sorted and unique.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// IdentityConfidence tells whether the date took part in Key.
	IdentityConfidence IdentityConfidence `json:"identity_confidence" yaml:"identity_confidence"`

	// CreatedAt is when the article was first ingested.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is when the article was last ingested.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// FieldText returns the text of an embedded field.
func (a *Article) FieldText(f Field) string {
	switch f {
	case FieldTitle:
		return a.Title
	case FieldAbstract:
		return a.Abstract
	case FieldSummary:
		return a.Summary
	default:
		return ""
	}
}

// EmbeddedFields returns the fields with non-empty text, in AllFields order.
func (a *Article) EmbeddedFields() []Field {
	fields := make([]Field, 0, len(AllFields))
	for _, f := range AllFields {
		if a.FieldText(f) != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// DateString returns the ISO publication date or "" when absent.
func (a *Article) DateString() string {
	if a.PublicationDate == nil {
		return ""
	}
	return a.PublicationDate.Format(DateLayout)
}

// SameContent reports whether a and b hold the same stored content.
// Key and timestamps are not compared.
func (a *Article) SameContent(b *Article) bool {
	if a.Title != b.Title || a.Source != b.Source || a.URL != b.URL ||
		a.Abstract != b.Abstract || a.Summary != b.Summary ||
		a.IdentityConfidence != b.IdentityConfidence {
		return false
	}
	if !slices.Equal(a.Authors, b.Authors) || !slices.Equal(a.Keywords, b.Keywords) {
		return false
	}
	switch {
	case a.PublicationDate == nil || b.PublicationDate == nil:
		return a.PublicationDate == nil && b.PublicationDate == nil
	default:
		return a.PublicationDate.Equal(*b.PublicationDate)
	}
}

// RawArticle holds fields as extracted by a scraper. Every field is optional;
// normalisation decides whether enough is present to derive a key.
type RawArticle struct {
	Title           string     `json:"title"`
	Source          string     `json:"source"`
	URL             string     `json:"url,omitempty"`
	Authors         AuthorList `json:"authors,omitempty"`
	Abstract        string     `json:"abstract,omitempty"`
	Summary         string     `json:"summary,omitempty"`
	PublicationDate string     `json:"publication_date,omitempty"`
	Keywords        []string   `json:"keywords,omitempty"`
}

// AuthorList accepts either a JSON array of names or a single comma-joined string.
type AuthorList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *AuthorList) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		*l = names
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	if strings.TrimSpace(joined) == "" {
		*l = nil
		return nil
	}
	*l = strings.Split(joined, ",")
	return nil
}
