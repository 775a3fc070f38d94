package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/logger"
)

// keySeparator joins key material. It cannot appear in normalised text.
const keySeparator = "\x1f"

// maxKeywords is how many keywords are derived when a scraper supplies none.
const maxKeywords = 5

// placeholders are scraper fallbacks that mean "no value".
var placeholders = map[string]struct{}{
	"no authors available":  {},
	"no authors":            {},
	"no summary available":  {},
	"no abstract available": {},
	"no date":               {},
	"no keywords":           {},
	"n/a":                   {},
}

// Normalise cleans a scraped article and derives its identity key.
//
// Text fields are trimmed and internal whitespace collapsed; display casing
// is kept. A missing title or source yields domain.ErrIncompleteDocument.
// A missing or unparseable date still yields a key, with low confidence.
func Normalise(raw domain.RawArticle) (*domain.Article, error) {
	title := cleanText(raw.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: missing title", domain.ErrIncompleteDocument)
	}
	source := normaliseSource(raw.Source)
	if source == "" {
		return nil, fmt.Errorf("%w: missing source", domain.ErrIncompleteDocument)
	}

	article := &domain.Article{
		Title:              title,
		Source:             source,
		URL:                strings.TrimSpace(raw.URL),
		Authors:            normaliseAuthors(raw.Authors),
		Abstract:           cleanText(raw.Abstract),
		Summary:            cleanText(raw.Summary),
		IdentityConfidence: domain.IdentityLow,
	}

	if date := cleanText(raw.PublicationDate); date != "" {
		t, err := domain.ParseDate(date)
		if err != nil {
			logger.Warn("Unparseable publication date %q for %q; keying without date", date, title)
		} else {
			article.PublicationDate = &t
			article.IdentityConfidence = domain.IdentityHigh
		}
	}

	article.Keywords = normaliseKeywords(raw.Keywords)
	if len(article.Keywords) == 0 {
		text := article.Summary
		if text == "" {
			text = article.Abstract
		}
		article.Keywords = ExtractKeywords(text, maxKeywords)
	}

	article.Key = DeriveKey(article.Title, article.Source, article.PublicationDate)
	return article, nil
}

// DeriveKey returns the hex SHA-256 of the case-folded title, the source domain
// and, when present, the ISO publication date.
func DeriveKey(title, source string, date *time.Time) string {
	parts := []string{
		strings.ToLower(collapseSpace(title)),
		normaliseSource(source),
	}
	if date != nil {
		parts = append(parts, date.UTC().Format(domain.DateLayout))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, keySeparator)))
	return hex.EncodeToString(sum[:])
}

// NormaliseArticle re-applies text normalisation to an article built outside
// Normalise and recomputes its key. It returns domain.ErrIncompleteDocument
// when identity fields are missing.
func NormaliseArticle(a *domain.Article) error {
	a.Title = cleanText(a.Title)
	a.Source = normaliseSource(a.Source)
	if a.Title == "" {
		return fmt.Errorf("%w: missing title", domain.ErrIncompleteDocument)
	}
	if a.Source == "" {
		return fmt.Errorf("%w: missing source", domain.ErrIncompleteDocument)
	}
	a.Abstract = cleanText(a.Abstract)
	a.Summary = cleanText(a.Summary)
	a.Authors = normaliseAuthors(a.Authors)
	a.Keywords = normaliseKeywords(a.Keywords)
	if a.PublicationDate != nil {
		d := domain.TruncateDay(*a.PublicationDate)
		a.PublicationDate = &d
		a.IdentityConfidence = domain.IdentityHigh
	} else {
		a.IdentityConfidence = domain.IdentityLow
	}
	a.Key = DeriveKey(a.Title, a.Source, a.PublicationDate)
	return nil
}

// collapseSpace trims s and replaces whitespace runs with one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanText collapses whitespace and maps scraper placeholders to "".
func cleanText(s string) string {
	s = collapseSpace(s)
	if isPlaceholder(s) {
		return ""
	}
	return s
}

func isPlaceholder(s string) bool {
	_, ok := placeholders[strings.ToLower(s)]
	return ok
}

// normaliseSource reduces a source or URL to its lower-cased host,
// without scheme, "www." prefix, port or path.
func normaliseSource(source string) string {
	s := strings.ToLower(strings.TrimSpace(source))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			s = u.Hostname()
		}
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	return strings.Trim(s, ".")
}

// normaliseAuthors splits comma-joined entries, trims names and drops
// empties and placeholders. Order is kept.
func normaliseAuthors(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, name := range strings.Split(entry, ",") {
			name = cleanText(name)
			if name == "" {
				continue
			}
			out = append(out, name)
		}
	}
	return out
}

// normaliseKeywords returns sorted, unique, whitespace-collapsed keywords.
func normaliseKeywords(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = cleanText(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
