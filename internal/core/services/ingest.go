package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/ports/driven"
	"github.com/custodia-labs/litsearch/internal/core/ports/driving"
	"github.com/custodia-labs/litsearch/internal/logger"
)

// Ensure SyncCoordinator implements the interface.
var _ driving.IngestService = (*SyncCoordinator)(nil)

// SyncCoordinator writes articles to the relational store and their field
// vectors to the vector store, reporting how far each ingestion got.
//
// The relational row is the source of truth. Vector failures after a
// successful row write leave the article partially synced; ingesting it
// again (or calling Resync) heals it.
type SyncCoordinator struct {
	articles  driven.ArticleStore
	vectors   driven.VectorStore
	embedder  driven.EmbeddingService
	publisher driven.EventPublisher
	now       func() time.Time
}

// NewSyncCoordinator creates a new sync coordinator.
func NewSyncCoordinator(
	articles driven.ArticleStore,
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
) *SyncCoordinator {
	return &SyncCoordinator{
		articles: articles,
		vectors:  vectors,
		embedder: embedder,
		now:      time.Now,
	}
}

// SetEventPublisher enables outcome events. A nil publisher disables them.
func (c *SyncCoordinator) SetEventPublisher(p driven.EventPublisher) {
	c.publisher = p
}

// Ingest writes an article and one vector per non-empty field.
// Text is normalised and the key recomputed before anything is written.
func (c *SyncCoordinator) Ingest(ctx context.Context, article *domain.Article) domain.IngestOutcome {
	return c.ingest(ctx, article, "")
}

// IngestRaw normalises a scraped article, then ingests it.
func (c *SyncCoordinator) IngestRaw(ctx context.Context, raw domain.RawArticle) domain.IngestOutcome {
	article, err := Normalise(raw)
	if err != nil {
		outcome := identityFailure(err)
		c.publish(ctx, outcome, "")
		return outcome
	}
	return c.ingest(ctx, article, "")
}

// IngestBatch ingests raw articles with at most workers running at once.
// Articles sharing a key are handled by one worker in input order, so
// the last occurrence wins.
func (c *SyncCoordinator) IngestBatch(
	ctx context.Context, raws []domain.RawArticle, workers int,
) domain.IngestReport {
	if workers <= 0 {
		workers = 1
	}

	report := domain.IngestReport{
		RunID:     uuid.NewString(),
		Outcomes:  make([]domain.IngestOutcome, len(raws)),
		StartedAt: c.now(),
	}

	logger.Section("Ingest Batch")
	defer logger.Timed("run " + report.RunID)()
	logger.Debug("Run %s: %d articles, %d workers", report.RunID, len(raws), workers)

	articles := make([]*domain.Article, len(raws))
	groups := make(map[string][]int)
	var order []string
	for i, raw := range raws {
		article, err := Normalise(raw)
		if err != nil {
			report.Outcomes[i] = identityFailure(err)
			c.publish(ctx, report.Outcomes[i], report.RunID)
			continue
		}
		articles[i] = article
		if _, seen := groups[article.Key]; !seen {
			order = append(order, article.Key)
		}
		groups[article.Key] = append(groups[article.Key], i)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, key := range order {
		indices := groups[key]
		g.Go(func() error {
			for _, i := range indices {
				report.Outcomes[i] = c.ingest(ctx, articles[i], report.RunID)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range report.Outcomes {
		report.Add(o)
	}
	report.FinishedAt = c.now()

	logger.Info("Run %s: %d synced, %d partially synced, %d failed",
		report.RunID, report.Synced, report.PartiallySynced, report.Failed)
	return report
}

// Resync re-ingests every stored article whose vector set does not match
// its non-empty fields.
func (c *SyncCoordinator) Resync(ctx context.Context) (domain.IngestReport, error) {
	report := domain.IngestReport{
		RunID:     uuid.NewString(),
		StartedAt: c.now(),
	}

	logger.Section("Resync")

	keys, err := c.articles.ListKeys(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: list keys: %w", domain.ErrStoreUnavailable, err)
	}
	logger.Debug("Checking %d articles", len(keys))

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		article, err := c.articles.GetArticleByKey(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			outcome := domain.IngestOutcome{
				Key:    key,
				Status: domain.StatusIngestFailed,
				Step:   domain.StepRelational,
				Err:    fmt.Errorf("get article: %w", err),
			}
			report.Outcomes = append(report.Outcomes, outcome)
			report.Add(outcome)
			continue
		}

		stored, err := c.vectors.FieldsFor(ctx, key)
		if err != nil {
			logger.Warn("Fields for %s: %v", key, err)
		} else if sameFields(stored, article.EmbeddedFields()) {
			continue
		}

		logger.Debug("Re-ingesting %s", key)
		outcome := c.ingest(ctx, article, report.RunID)
		report.Outcomes = append(report.Outcomes, outcome)
		report.Add(outcome)
	}

	report.FinishedAt = c.now()
	logger.Info("Resync: %d repaired, %d still partial, %d failed",
		report.Synced, report.PartiallySynced, report.Failed)
	return report, nil
}

// Get returns a stored article by key.
func (c *SyncCoordinator) Get(ctx context.Context, key string) (*domain.Article, error) {
	return c.articles.GetArticleByKey(ctx, key)
}

func (c *SyncCoordinator) ingest(ctx context.Context, in *domain.Article, runID string) domain.IngestOutcome {
	if in == nil {
		return identityFailure(fmt.Errorf("%w: nil article", domain.ErrIncompleteDocument))
	}
	article := *in
	if err := NormaliseArticle(&article); err != nil {
		outcome := identityFailure(err)
		c.publish(ctx, outcome, runID)
		return outcome
	}

	outcome := domain.IngestOutcome{Key: article.Key}
	now := c.now().UTC()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now
	c.keepTimestampsIfUnchanged(ctx, &article)

	// 1. Embed. A failed field does not block the rest.
	vectors, failures := c.embedFields(ctx, &article)
	outcome.FieldFailures = failures

	// 2. Relational row. Nothing else is written if this fails.
	if err := c.articles.UpsertArticle(ctx, &article); err != nil {
		outcome.Status = domain.StatusIngestFailed
		outcome.Step = domain.StepRelational
		outcome.Err = fmt.Errorf("upsert article: %w", err)
		outcome.FieldFailures = nil
		logger.Warn("Ingest %s failed: %v", article.Key, outcome.Err)
		c.publish(ctx, outcome, runID)
		return outcome
	}

	// 3. Vectors, replacing prior records and removing those of emptied fields.
	for _, f := range domain.AllFields {
		vec, ok := vectors[f]
		if ok {
			if err := c.vectors.UpsertVector(ctx, article.Key, f, vec); err != nil {
				outcome.FieldFailures = append(outcome.FieldFailures, domain.FieldFailure{
					Field: f,
					Step:  domain.StepVectorWrite,
					Err:   err,
				})
				c.dropStaleVector(ctx, article.Key, f)
				continue
			}
			outcome.Written = append(outcome.Written, f)
			continue
		}
		if article.FieldText(f) != "" {
			// The embed failure is already recorded. The old vector describes
			// text that may have changed, so it goes and Resync sees the gap.
			c.dropStaleVector(ctx, article.Key, f)
			continue
		}
		if err := c.vectors.DeleteVector(ctx, article.Key, f); err != nil {
			outcome.FieldFailures = append(outcome.FieldFailures, domain.FieldFailure{
				Field: f,
				Step:  domain.StepVectorWrite,
				Err:   fmt.Errorf("delete stale vector: %w", err),
			})
		}
	}

	if len(outcome.FieldFailures) > 0 {
		outcome.Status = domain.StatusPartiallySynced
		logger.Warn("Ingest %s partially synced: %v", article.Key, outcome.Error())
	} else {
		outcome.Status = domain.StatusSynced
		logger.Debug("Ingest %s synced (%d fields)", article.Key, len(outcome.Written))
	}

	c.publish(ctx, outcome, runID)
	return outcome
}

// keepTimestampsIfUnchanged carries over the stored timestamps when the
// article content matches the stored row, so identical re-ingestion leaves
// UpdatedAt alone. Lookup errors are left for the upsert to surface.
func (c *SyncCoordinator) keepTimestampsIfUnchanged(ctx context.Context, article *domain.Article) {
	prev, err := c.articles.GetArticleByKey(ctx, article.Key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Lookup %s before upsert: %v", article.Key, err)
		}
		return
	}
	if prev.SameContent(article) {
		article.CreatedAt = prev.CreatedAt
		article.UpdatedAt = prev.UpdatedAt
	}
}

// dropStaleVector removes a field vector that could not be refreshed. The
// field failure is already on the outcome, so a delete error is only logged.
func (c *SyncCoordinator) dropStaleVector(ctx context.Context, key string, f domain.Field) {
	if err := c.vectors.DeleteVector(ctx, key, f); err != nil {
		logger.Warn("Delete stale %s vector for %s: %v", f, key, err)
	}
}

// embedFields embeds every non-empty field in one batch call. If the batch
// fails, each field is embedded alone so the failure is pinned to its field.
func (c *SyncCoordinator) embedFields(
	ctx context.Context, article *domain.Article,
) (map[domain.Field][]float32, []domain.FieldFailure) {
	fields := article.EmbeddedFields()
	vectors := make(map[domain.Field][]float32, len(fields))
	if len(fields) == 0 {
		return vectors, nil
	}

	texts := make([]string, len(fields))
	for i, f := range fields {
		texts[i] = article.FieldText(f)
	}
	batch, err := c.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(batch) == len(fields) {
		for i, f := range fields {
			vectors[f] = batch[i]
		}
		return vectors, nil
	}
	if err != nil {
		logger.Debug("Batch embed for %s failed, retrying per field: %v", article.Key, err)
	}

	var failures []domain.FieldFailure
	for _, f := range fields {
		vec, err := c.embedder.Embed(ctx, article.FieldText(f))
		if err != nil {
			failures = append(failures, domain.FieldFailure{
				Field: f,
				Step:  domain.StepEmbed,
				Err:   fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err),
			})
			continue
		}
		vectors[f] = vec
	}
	return vectors, failures
}

func (c *SyncCoordinator) publish(ctx context.Context, o domain.IngestOutcome, runID string) {
	if c.publisher == nil {
		return
	}

	event := domain.IngestEvent{
		ID:         uuid.NewString(),
		RunID:      runID,
		Type:       domain.EventType(o.Status),
		ArticleKey: o.Key,
		Status:     o.Status.String(),
		Step:       string(o.Step),
		OccurredAt: c.now().UTC(),
	}
	for _, f := range o.FieldFailures {
		event.Failed = append(event.Failed, f.Field.String())
	}
	if err := o.Error(); err != nil {
		event.Error = err.Error()
	}

	if err := c.publisher.Publish(ctx, event); err != nil {
		logger.Warn("Publish %s for %s: %v", event.Type, o.Key, err)
	}
}

func identityFailure(err error) domain.IngestOutcome {
	return domain.IngestOutcome{
		Status: domain.StatusIngestFailed,
		Step:   domain.StepIdentity,
		Err:    err,
	}
}

// sameFields reports whether two field lists hold the same set.
func sameFields(a, b []domain.Field) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[domain.Field]struct{}, len(a))
	for _, f := range a {
		set[f] = struct{}{}
	}
	for _, f := range b {
		if _, ok := set[f]; !ok {
			return false
		}
	}
	return true
}
