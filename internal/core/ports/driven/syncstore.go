package driven

import (
	"context"

	"github.com/openclaw/ragmem/internal/core/domain"
)

// SyncStateStore persists the sync state document. The sync engine is
// the single writer; the store is loaded once per pass and saved after
// the pass completes.
type SyncStateStore interface {
	// Load reads the persisted state, returning an empty state when
	// none exists yet.
	Load(ctx context.Context) (*domain.SyncState, error)

	// Save writes the full state document, stamping the sync time.
	Save(ctx context.Context, state *domain.SyncState) error
}
