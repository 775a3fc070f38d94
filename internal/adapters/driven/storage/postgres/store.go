package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/litsearch/internal/adapters/driven/storage/postgres/migrations"
	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
)

// Store holds the connection pool shared by the article and vector stores.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to dsn, checks the connection and applies migrations.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres connection string is empty", domain.ErrInvalidInput)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the pool. Closing an already closed pool is a no-op.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ArticleStore returns an ArticleStore backed by this pool.
func (s *Store) ArticleStore() driven.ArticleStore {
	return &articleStore{store: s}
}

// VectorStore returns a VectorStore backed by this pool.
// dim is the expected vector length; zero disables the check.
func (s *Store) VectorStore(dim int) driven.VectorStore {
	return &vectorStore{store: s, dim: dim}
}

func (s *Store) migrate(ctx context.Context, fsys embed.FS) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	names, err := upMigrations(fsys)
	if err != nil {
		return err
	}
	for _, name := range names {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// upMigrations lists the .up.sql files of fsys in version order.
func upMigrations(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ==================== Article Store ====================

type articleStore struct {
	store *Store
}

var _ driven.ArticleStore = (*articleStore)(nil)

const articleColumns = `key, title, source, url, authors, abstract, summary,
	publication_date, keywords, identity_confidence, created_at, updated_at`

func (s *articleStore) UpsertArticle(ctx context.Context, a *domain.Article) error {
	if a == nil || a.Key == "" {
		return fmt.Errorf("%w: article key is required", domain.ErrConstraintViolation)
	}

	updatedAt := a.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = updatedAt
	}

	_, err := s.store.pool.Exec(ctx, `
		INSERT INTO articles (`+articleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (key) DO UPDATE SET
			title = EXCLUDED.title,
			source = EXCLUDED.source,
			url = EXCLUDED.url,
			authors = EXCLUDED.authors,
			abstract = EXCLUDED.abstract,
			summary = EXCLUDED.summary,
			publication_date = EXCLUDED.publication_date,
			keywords = EXCLUDED.keywords,
			identity_confidence = EXCLUDED.identity_confidence,
			updated_at = EXCLUDED.updated_at
	`, a.Key, a.Title, a.Source, a.URL, textArray(a.Authors), a.Abstract, a.Summary,
		a.PublicationDate, textArray(a.Keywords), string(a.IdentityConfidence), createdAt, updatedAt)
	if err != nil {
		return fmt.Errorf("saving article: %w", err)
	}
	return nil
}

func (s *articleStore) GetArticleByKey(ctx context.Context, key string) (*domain.Article, error) {
	row := s.store.pool.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE key = $1`, key)
	a, err := scanArticle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func (s *articleStore) GetArticlesByKeys(ctx context.Context, keys []string) (map[string]*domain.Article, error) {
	out := make(map[string]*domain.Article, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	rows, err := s.store.pool.Query(ctx, `SELECT `+articleColumns+` FROM articles WHERE key = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	articles, err := scanArticles(rows)
	if err != nil {
		return nil, err
	}
	for i := range articles {
		out[articles[i].Key] = &articles[i]
	}
	return out, nil
}

func (s *articleStore) GetArticlesByFilter(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	query, args := filterQuery(filter)
	rows, err := s.store.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	return scanArticles(rows)
}

func (s *articleStore) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := s.store.pool.Query(ctx, "SELECT key FROM articles ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collecting keys: %w", err)
	}
	return keys, nil
}

func (s *articleStore) Close() error {
	return s.store.Close()
}

// filterQuery builds the date-range select for GetArticlesByFilter.
func filterQuery(filter domain.ArticleFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if len(filter.Keys) > 0 {
		args = append(args, filter.Keys)
		conds = append(conds, fmt.Sprintf("key = ANY($%d)", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, domain.TruncateDay(*filter.DateFrom))
		conds = append(conds, fmt.Sprintf("publication_date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, domain.TruncateDay(*filter.DateTo))
		conds = append(conds, fmt.Sprintf("publication_date <= $%d", len(args)))
	}
	query := `SELECT ` + articleColumns + ` FROM articles`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	return query + " ORDER BY key", args
}

func scanArticle(row pgx.Row) (*domain.Article, error) {
	var (
		a          domain.Article
		pubDate    *time.Time
		confidence string
	)
	if err := row.Scan(&a.Key, &a.Title, &a.Source, &a.URL, &a.Authors, &a.Abstract, &a.Summary,
		&pubDate, &a.Keywords, &confidence, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning article: %w", err)
	}
	if pubDate != nil {
		d := domain.TruncateDay(*pubDate)
		a.PublicationDate = &d
	}
	if len(a.Authors) == 0 {
		a.Authors = nil
	}
	if len(a.Keywords) == 0 {
		a.Keywords = nil
	}
	a.IdentityConfidence = domain.IdentityConfidence(confidence)
	return &a, nil
}

func scanArticles(rows pgx.Rows) ([]domain.Article, error) {
	defer rows.Close()
	var articles []domain.Article //nolint:prealloc // size unknown from query
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating articles: %w", err)
	}
	return articles, nil
}

func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ==================== Vector Store ====================

type vectorStore struct {
	store *Store
	dim   int
}

var _ driven.VectorStore = (*vectorStore)(nil)

func (s *vectorStore) UpsertVector(ctx context.Context, key string, field domain.Field, vector []float32) error {
	if !field.IsValid() {
		return fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, field)
	}
	if len(vector) == 0 || (s.dim > 0 && len(vector) != s.dim) {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(vector), s.dim)
	}

	_, err := s.store.pool.Exec(ctx, `
		INSERT INTO article_vectors (article_key, field, dim, embedding, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (article_key, field) DO UPDATE SET
			dim = EXCLUDED.dim,
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at
	`, key, field.String(), len(vector), pgvector.NewVector(vector), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving vector: %w", err)
	}
	return nil
}

func (s *vectorStore) DeleteVector(ctx context.Context, key string, field domain.Field) error {
	_, err := s.store.pool.Exec(ctx,
		"DELETE FROM article_vectors WHERE article_key = $1 AND field = $2", key, field.String())
	if err != nil {
		return fmt.Errorf("deleting vector: %w", err)
	}
	return nil
}

// SearchTopK ranks by cosine distance; the score is 1 - distance.
func (s *vectorStore) SearchTopK(
	ctx context.Context, query []float32, field domain.Field, k int,
) ([]driven.VectorHit, error) {
	if k <= 0 {
		k = domain.DefaultTopK
	}
	rows, err := s.store.pool.Query(ctx, `
		SELECT article_key, 1 - (embedding <=> $1) AS score
		FROM article_vectors
		WHERE field = $2 AND dim = $3
		ORDER BY embedding <=> $1, article_key
		LIMIT $4
	`, pgvector.NewVector(query), field.String(), len(query), k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		h := driven.VectorHit{Field: field}
		if err := rows.Scan(&h.Key, &h.Score); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}
	return hits, nil
}

func (s *vectorStore) FieldsFor(ctx context.Context, key string) ([]domain.Field, error) {
	rows, err := s.store.pool.Query(ctx, "SELECT field FROM article_vectors WHERE article_key = $1", key)
	if err != nil {
		return nil, fmt.Errorf("querying fields: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collecting fields: %w", err)
	}
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	var fields []domain.Field
	for _, f := range domain.AllFields {
		if present[f.String()] {
			fields = append(fields, f)
		}
	}
	return fields, nil
}

func (s *vectorStore) Close() error {
	return s.store.Close()
}
