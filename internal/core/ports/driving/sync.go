package driving

import (
	"context"

	"github.com/openclaw/ragmem/internal/core/domain"
)

// SyncEngine drives the incremental sync pipeline.
type SyncEngine interface {
	// Sync runs one full pass over the configured file set and
	// reports per-item outcomes. Individual failures never abort the
	// pass.
	Sync(ctx context.Context) (domain.SyncSummary, error)

	// Prune removes orphaned objects from the bucket: keys this tool
	// has tracked that are no longer reachable from any live source.
	// Returns the number of objects removed.
	Prune(ctx context.Context) (int, error)
}
