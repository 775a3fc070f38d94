package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/litsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
)

// --- Stub implementations ---

var errStub = errors.New("stub failure")

// conceptEmbedder maps text onto four axes by substring so tests control similarity.
type conceptEmbedder struct {
	mu      sync.Mutex
	failOn  map[string]bool
	calls   int
	batches int
	pingErr error
}

func (e *conceptEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	fail := e.failOn[text]
	e.mu.Unlock()
	if fail {
		return nil, errStub
	}

	lower := strings.ToLower(text)
	vec := []float32{0, 0, 0, 0.1}
	if strings.Contains(lower, "surg") {
		vec[0] = 1
	}
	if strings.Contains(lower, "oncolog") || strings.Contains(lower, "tumour") {
		vec[1] = 1
	}
	if strings.Contains(lower, "cardio") || strings.Contains(lower, "heart") {
		vec[2] = 1
	}
	return vec, nil
}

func (e *conceptEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batches++
	e.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *conceptEmbedder) Dimensions() int              { return 4 }
func (e *conceptEmbedder) ModelName() string            { return "concept-stub" }
func (e *conceptEmbedder) Ping(_ context.Context) error { return e.pingErr }
func (e *conceptEmbedder) Close() error                 { return nil }

func (e *conceptEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *conceptEmbedder) batchCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batches
}

// flakyArticleStore wraps a memory store and fails selected operations.
type flakyArticleStore struct {
	*memory.ArticleStore
	upsertErr   error
	getErr      error
	listErr     error
	filterCalls int
}

func (s *flakyArticleStore) UpsertArticle(ctx context.Context, a *domain.Article) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	return s.ArticleStore.UpsertArticle(ctx, a)
}

func (s *flakyArticleStore) GetArticlesByKeys(ctx context.Context, keys []string) (map[string]*domain.Article, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.ArticleStore.GetArticlesByKeys(ctx, keys)
}

func (s *flakyArticleStore) GetArticlesByFilter(ctx context.Context, f domain.ArticleFilter) ([]domain.Article, error) {
	s.filterCalls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.ArticleStore.GetArticlesByFilter(ctx, f)
}

func (s *flakyArticleStore) ListKeys(ctx context.Context) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.ArticleStore.ListKeys(ctx)
}

// flakyVectorStore wraps a memory store and fails writes for selected fields.
type flakyVectorStore struct {
	*memory.VectorStore
	mu         sync.Mutex
	failFields map[domain.Field]bool
	searchErr  error
	upserts    int
}

func (s *flakyVectorStore) UpsertVector(ctx context.Context, key string, f domain.Field, v []float32) error {
	s.mu.Lock()
	s.upserts++
	fail := s.failFields[f]
	s.mu.Unlock()
	if fail {
		return errStub
	}
	return s.VectorStore.UpsertVector(ctx, key, f, v)
}

func (s *flakyVectorStore) SearchTopK(
	ctx context.Context, q []float32, f domain.Field, k int,
) ([]driven.VectorHit, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.VectorStore.SearchTopK(ctx, q, f, k)
}

func (s *flakyVectorStore) heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFields = nil
}

func (s *flakyVectorStore) upsertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

// fixedVectorStore returns canned hits per field.
type fixedVectorStore struct {
	hits map[domain.Field][]driven.VectorHit
	ks   []int
	mu   sync.Mutex
}

func (s *fixedVectorStore) UpsertVector(context.Context, string, domain.Field, []float32) error {
	return nil
}

func (s *fixedVectorStore) DeleteVector(context.Context, string, domain.Field) error { return nil }

func (s *fixedVectorStore) SearchTopK(_ context.Context, _ []float32, f domain.Field, k int) ([]driven.VectorHit, error) {
	s.mu.Lock()
	s.ks = append(s.ks, k)
	s.mu.Unlock()
	hits := s.hits[f]
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *fixedVectorStore) FieldsFor(context.Context, string) ([]domain.Field, error) {
	return nil, nil
}
func (s *fixedVectorStore) Close() error { return nil }

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.IngestEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.IngestEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// --- Fixtures ---

func surgicalRaw() domain.RawArticle {
	return domain.RawArticle{
		Title:           "Surgical Oncology Advances",
		Source:          "nature.com",
		PublicationDate: "2023-05-01",
		Abstract:        "New surgical techniques for tumour resection.",
		Summary:         "A review of oncology practice.",
		Authors:         domain.AuthorList{"A. Smith, B. Jones"},
	}
}

func cardioRaw() domain.RawArticle {
	return domain.RawArticle{
		Title:           "Cardiology Outcomes",
		Source:          "thelancet.com",
		PublicationDate: "2023-02-10",
		Abstract:        "Heart failure trends.",
	}
}

type harness struct {
	articles  *flakyArticleStore
	vectors   *flakyVectorStore
	embedder  *conceptEmbedder
	publisher *recordingPublisher
	sync      *SyncCoordinator
	query     *QueryEngine
}

func newHarness() *harness {
	h := &harness{
		articles:  &flakyArticleStore{ArticleStore: memory.NewArticleStore()},
		vectors:   &flakyVectorStore{VectorStore: memory.NewVectorStore(4)},
		embedder:  &conceptEmbedder{},
		publisher: &recordingPublisher{},
	}
	h.sync = NewSyncCoordinator(h.articles, h.vectors, h.embedder)
	h.sync.SetEventPublisher(h.publisher)
	h.query = NewQueryEngine(h.articles, h.vectors, h.embedder, 0)
	return h
}

func date(s string) *time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}
