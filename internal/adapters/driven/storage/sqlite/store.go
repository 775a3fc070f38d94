package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/litsearch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/litsearch/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
)

// dbFileName is the database file inside the data directory.
const dbFileName = "litsearch.db"

// metaVectorDim records the dimension of the first vector written.
const metaVectorDim = "vector_dim"

// maxInParams bounds the number of placeholders in one IN (...) clause.
const maxInParams = 500

// Store is a unified SQLite-based storage that provides access to
// the article and vector store interfaces through wrapper types.
type Store struct {
	db        *sql.DB
	path      string
	closeOnce sync.Once
	closeErr  error
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.litsearch/data/litsearch.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".litsearch", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection. It is safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ArticleStore returns an ArticleStore interface backed by this store.
func (s *Store) ArticleStore() driven.ArticleStore {
	return &articleStore{store: s}
}

// VectorStore returns a VectorStore interface backed by this store.
// dim is the expected vector length; zero adopts the recorded dimension.
func (s *Store) VectorStore(dim int) driven.VectorStore {
	return &vectorStore{store: s, dim: dim}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_articles.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

// ==================== Article Store ====================

// articleStore implements driven.ArticleStore.
type articleStore struct {
	store *Store
}

var _ driven.ArticleStore = (*articleStore)(nil)

const articleColumns = `key, title, source, url, authors, abstract, summary,
	publication_date, keywords, identity_confidence, created_at, updated_at`

// UpsertArticle stores or updates an article. created_at is kept on update.
func (s *articleStore) UpsertArticle(ctx context.Context, a *domain.Article) error {
	if a == nil || a.Key == "" {
		return fmt.Errorf("%w: article key is required", domain.ErrConstraintViolation)
	}

	authorsJSON, err := json.Marshal(nonNil(a.Authors))
	if err != nil {
		return fmt.Errorf("marshalling authors: %w", err)
	}
	keywordsJSON, err := json.Marshal(nonNil(a.Keywords))
	if err != nil {
		return fmt.Errorf("marshalling keywords: %w", err)
	}

	var pubDate sql.NullString
	if a.PublicationDate != nil {
		pubDate = sql.NullString{String: a.DateString(), Valid: true}
	}

	createdAt, updatedAt := a.CreatedAt, a.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	if createdAt.IsZero() {
		createdAt = updatedAt
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO articles (`+articleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			title = excluded.title,
			source = excluded.source,
			url = excluded.url,
			authors = excluded.authors,
			abstract = excluded.abstract,
			summary = excluded.summary,
			publication_date = excluded.publication_date,
			keywords = excluded.keywords,
			identity_confidence = excluded.identity_confidence,
			updated_at = excluded.updated_at
	`, a.Key, a.Title, a.Source, a.URL, string(authorsJSON), a.Abstract, a.Summary,
		pubDate, string(keywordsJSON), string(a.IdentityConfidence), createdAt.UTC(), updatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving article: %w", err)
	}
	return nil
}

// GetArticleByKey retrieves an article by key.
func (s *articleStore) GetArticleByKey(ctx context.Context, key string) (*domain.Article, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE key = ?`, key)
	return scanArticle(row)
}

// GetArticlesByKeys retrieves the articles that exist among keys.
func (s *articleStore) GetArticlesByKeys(ctx context.Context, keys []string) (map[string]*domain.Article, error) {
	out := make(map[string]*domain.Article, len(keys))
	for start := 0; start < len(keys); start += maxInParams {
		end := start + maxInParams
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]

		args := make([]any, len(batch))
		for i, k := range batch {
			args[i] = k
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")

		rows, err := s.store.db.QueryContext(ctx,
			`SELECT `+articleColumns+` FROM articles WHERE key IN (`+placeholders+`)`, args...)
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
	}
	return out, nil
}

// GetArticlesByFilter returns articles whose publication date lies in the range.
// Keys, when given, are queried in batches of maxInParams.
func (s *articleStore) GetArticlesByFilter(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	var (
		conds []string
		args  []any
	)
	if filter.DateFrom != nil {
		conds = append(conds, "publication_date >= ?")
		args = append(args, filter.DateFrom.UTC().Format(domain.DateLayout))
	}
	if filter.DateTo != nil {
		conds = append(conds, "publication_date <= ?")
		args = append(args, filter.DateTo.UTC().Format(domain.DateLayout))
	}
	if len(conds) > 0 {
		conds = append([]string{"publication_date IS NOT NULL"}, conds...)
	}

	if len(filter.Keys) == 0 {
		return s.selectArticles(ctx, conds, args)
	}

	var out []domain.Article
	for start := 0; start < len(filter.Keys); start += maxInParams {
		end := start + maxInParams
		if end > len(filter.Keys) {
			end = len(filter.Keys)
		}
		batch := filter.Keys[start:end]

		batchArgs := make([]any, 0, len(batch)+len(args))
		for _, k := range batch {
			batchArgs = append(batchArgs, k)
		}
		batchArgs = append(batchArgs, args...)
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		batchConds := append([]string{"key IN (" + placeholders + ")"}, conds...)

		articles, err := s.selectArticles(ctx, batchConds, batchArgs)
		if err != nil {
			return nil, err
		}
		out = append(out, articles...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *articleStore) selectArticles(ctx context.Context, conds []string, args []any) ([]domain.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY key"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	return scanArticles(rows)
}

// ListKeys returns every article key in ascending order.
func (s *articleStore) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT key FROM articles ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer rows.Close()

	var keys []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keys: %w", err)
	}
	return keys, nil
}

// Close closes the shared database connection.
func (s *articleStore) Close() error {
	return s.store.Close()
}

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
	dim   int
}

var _ driven.VectorStore = (*vectorStore)(nil)

// UpsertVector replaces the vector for (key, field).
func (s *vectorStore) UpsertVector(ctx context.Context, key string, field domain.Field, vector []float32) error {
	if !field.IsValid() {
		return fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, field)
	}
	if err := s.checkDim(ctx, len(vector)); err != nil {
		return err
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO article_vectors (article_key, field, dim, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(article_key, field) DO UPDATE SET
			dim = excluded.dim,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`, key, field.String(), len(vector), float32SliceToBytes(vector), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving vector: %w", err)
	}
	return nil
}

// DeleteVector removes the vector for (key, field).
func (s *vectorStore) DeleteVector(ctx context.Context, key string, field domain.Field) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM article_vectors WHERE article_key = ? AND field = ?", key, field.String())
	if err != nil {
		return fmt.Errorf("deleting vector: %w", err)
	}
	return nil
}

// SearchTopK scans every vector of field and returns the k most similar.
func (s *vectorStore) SearchTopK(
	ctx context.Context, query []float32, field domain.Field, k int,
) ([]driven.VectorHit, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT article_key, dim, embedding FROM article_vectors WHERE field = ?", field.String())
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			key  string
			dim  int
			blob []byte
		)
		if err := rows.Scan(&key, &dim, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		if dim != len(query) {
			return nil, fmt.Errorf("%w: query has %d, stored has %d", domain.ErrDimensionMismatch, len(query), dim)
		}
		hits = append(hits, vecmath.Hit(key, field, query, bytesToFloat32Slice(blob)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	return vecmath.TopK(hits, k), nil
}

// FieldsFor returns the fields holding a vector for key, in canonical order.
func (s *vectorStore) FieldsFor(ctx context.Context, key string) ([]domain.Field, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT field FROM article_vectors WHERE article_key = ?", key)
	if err != nil {
		return nil, fmt.Errorf("querying fields: %w", err)
	}
	defer rows.Close()

	present := make(map[domain.Field]bool)
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scanning field: %w", err)
		}
		present[domain.Field(f)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fields: %w", err)
	}

	var fields []domain.Field
	for _, f := range domain.AllFields {
		if present[f] {
			fields = append(fields, f)
		}
	}
	return fields, nil
}

// Close closes the shared database connection.
func (s *vectorStore) Close() error {
	return s.store.Close()
}

// checkDim validates n against the configured and recorded dimensions,
// recording n when nothing has been written yet.
func (s *vectorStore) checkDim(ctx context.Context, n int) error {
	if n == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrDimensionMismatch)
	}
	if s.dim > 0 && n != s.dim {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, n, s.dim)
	}

	var recorded string
	err := s.store.db.QueryRowContext(ctx, "SELECT value FROM store_meta WHERE key = ?", metaVectorDim).Scan(&recorded)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = s.store.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO store_meta (key, value) VALUES (?, ?)", metaVectorDim, strconv.Itoa(n))
		if err != nil {
			return fmt.Errorf("recording vector dimension: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading vector dimension: %w", err)
	}
	if recorded != strconv.Itoa(n) {
		return fmt.Errorf("%w: got %d, store holds %s-dimensional vectors", domain.ErrDimensionMismatch, n, recorded)
	}
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanArticle scans a single article row.
func scanArticle(row *sql.Row) (*domain.Article, error) {
	a, err := scanArticleFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// scanArticles scans and closes rows.
func scanArticles(rows *sql.Rows) ([]domain.Article, error) {
	defer rows.Close()

	var articles []domain.Article //nolint:prealloc // size unknown from query
	for rows.Next() {
		a, err := scanArticleFrom(rows)
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

func scanArticleFrom(row rowScanner) (*domain.Article, error) {
	var (
		a            domain.Article
		authorsJSON  string
		keywordsJSON string
		pubDate      sql.NullString
		confidence   string
	)
	if err := row.Scan(&a.Key, &a.Title, &a.Source, &a.URL, &authorsJSON, &a.Abstract, &a.Summary,
		&pubDate, &keywordsJSON, &confidence, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning article: %w", err)
	}

	if err := json.Unmarshal([]byte(authorsJSON), &a.Authors); err != nil {
		return nil, fmt.Errorf("unmarshalling authors: %w", err)
	}
	if err := json.Unmarshal([]byte(keywordsJSON), &a.Keywords); err != nil {
		return nil, fmt.Errorf("unmarshalling keywords: %w", err)
	}
	if len(a.Authors) == 0 {
		a.Authors = nil
	}
	if len(a.Keywords) == 0 {
		a.Keywords = nil
	}
	if pubDate.Valid {
		d, err := time.Parse(domain.DateLayout, pubDate.String)
		if err != nil {
			return nil, fmt.Errorf("parsing publication date: %w", err)
		}
		a.PublicationDate = &d
	}
	a.IdentityConfidence = domain.IdentityConfidence(confidence)
	return &a, nil
}
