package driven

import (
	"context"

	"github.com/custodia-labs/litsearch/internal/core/domain"
)

// EventPublisher receives ingest outcomes for downstream consumers
// such as retry workers. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.IngestEvent) error
	Close() error
}
