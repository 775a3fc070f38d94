package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
)

// Ensure ArticleStore implements the interface.
var _ driven.ArticleStore = (*ArticleStore)(nil)

// ArticleStore is an in-memory implementation of driven.ArticleStore.
type ArticleStore struct {
	mu       sync.RWMutex
	articles map[string]domain.Article
}

// NewArticleStore creates a new in-memory article store.
func NewArticleStore() *ArticleStore {
	return &ArticleStore{
		articles: make(map[string]domain.Article),
	}
}

// UpsertArticle stores or replaces an article. CreatedAt of an existing row is kept.
func (s *ArticleStore) UpsertArticle(_ context.Context, article *domain.Article) error {
	if article == nil || article.Key == "" {
		return domain.ErrConstraintViolation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneArticle(*article)
	if existing, ok := s.articles[article.Key]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	s.articles[article.Key] = stored
	return nil
}

// GetArticleByKey retrieves an article by key.
func (s *ArticleStore) GetArticleByKey(_ context.Context, key string) (*domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	article, ok := s.articles[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := cloneArticle(article)
	return &clone, nil
}

// GetArticlesByKeys returns the articles that exist among keys.
func (s *ArticleStore) GetArticlesByKeys(_ context.Context, keys []string) (map[string]*domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*domain.Article, len(keys))
	for _, key := range keys {
		if article, ok := s.articles[key]; ok {
			clone := cloneArticle(article)
			out[key] = &clone
		}
	}
	return out, nil
}

// GetArticlesByFilter returns articles in the filter's date range, ordered by key.
func (s *ArticleStore) GetArticlesByFilter(_ context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	qf := domain.QueryFilters{DateFrom: filter.DateFrom, DateTo: filter.DateTo}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Article
	keep := func(article domain.Article) {
		if qf.Contains(article.PublicationDate) {
			out = append(out, cloneArticle(article))
		}
	}
	if len(filter.Keys) > 0 {
		seen := make(map[string]bool, len(filter.Keys))
		for _, key := range filter.Keys {
			if article, ok := s.articles[key]; ok && !seen[key] {
				seen[key] = true
				keep(article)
			}
		}
	} else {
		for _, article := range s.articles {
			keep(article)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// ListKeys returns all keys in ascending order.
func (s *ArticleStore) ListKeys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.articles))
	for key := range s.articles {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes an article. Vectors are left untouched.
func (s *ArticleStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.articles, key)
}

// Close is a no-op for the memory store.
func (s *ArticleStore) Close() error {
	return nil
}

func cloneArticle(a domain.Article) domain.Article {
	a.Authors = append([]string(nil), a.Authors...)
	a.Keywords = append([]string(nil), a.Keywords...)
	if a.PublicationDate != nil {
		d := *a.PublicationDate
		a.PublicationDate = &d
	}
	return a
}
