// Package articlefile reads scraped articles from JSON and JSON Lines files
// and watches a drop directory for new ones.
package articlefile

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/normalisers/html"
)

// Extensions lists the file extensions recognised as article files.
var Extensions = []string{".json", ".jsonl", ".ndjson"}

// IsArticleFile reports whether path names a visible file with a recognised extension.
func IsArticleFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadFile decodes every article in the file at path.
func ReadFile(path string) ([]domain.RawArticle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	articles, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return articles, nil
}

// Decode reads a JSON array of articles, a single article object, or a
// stream of objects one per line, with markup stripped from text fields.
// Empty input yields no articles.
func Decode(r io.Reader) ([]domain.RawArticle, error) {
	articles, err := decode(r)
	for i := range articles {
		articles[i] = html.Article(articles[i])
	}
	return articles, err
}

func decode(r io.Reader) ([]domain.RawArticle, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var articles []domain.RawArticle
		if err := dec.Decode(&articles); err != nil {
			return nil, fmt.Errorf("%w: decoding article array: %w", domain.ErrInvalidInput, err)
		}
		return articles, nil
	}

	var articles []domain.RawArticle
	for {
		var raw domain.RawArticle
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return articles, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: decoding article %d: %w", domain.ErrInvalidInput, len(articles)+1, err)
		}
		articles = append(articles, raw)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
