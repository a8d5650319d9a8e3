package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/openclaw/ragmem/internal/chunker"
	"github.com/openclaw/ragmem/internal/core/domain"
	"github.com/openclaw/ragmem/internal/core/ports/driven"
	"github.com/openclaw/ragmem/internal/core/ports/driving"
	"github.com/openclaw/ragmem/internal/logger"
)

// Ensure SyncEngine implements the interface.
var _ driving.SyncEngine = (*SyncEngine)(nil)

// SyncEngine walks the configured file set, diffs fingerprints against
// the state store and uploads changed documents chunk by chunk.
type SyncEngine struct {
	store driven.ObjectStore
	state driven.SyncStateStore
	cfg   domain.Config
}

// NewSyncEngine creates a sync engine.
func NewSyncEngine(store driven.ObjectStore, state driven.SyncStateStore, cfg domain.Config) *SyncEngine {
	return &SyncEngine{store: store, state: state, cfg: cfg}
}

// Sync runs one full incremental pass. Per-document failures are
// counted, never fatal; the state store is persisted at the end of the
// pass regardless.
func (e *SyncEngine) Sync(ctx context.Context) (domain.SyncSummary, error) {
	summary := domain.SyncSummary{RunID: uuid.NewString()}

	// 1. Load state and discover the source set
	state, err := e.state.Load(ctx)
	if err != nil {
		return summary, fmt.Errorf("load sync state: %w", err)
	}
	sources, err := discoverSources(e.cfg)
	if err != nil {
		return summary, fmt.Errorf("discover sources: %w", err)
	}

	logger.Section("Sync")
	logger.Info("Sync %s: %d files, bucket %s, chunk size %d tokens",
		summary.RunID, len(sources), e.cfg.Bucket, e.cfg.ChunkSize)

	// 2. Diff and upload per document
	for _, src := range sources {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		switch e.syncOne(ctx, state, src) {
		case outcomeSynced:
			summary.Synced++
		case outcomeSkipped:
			summary.Skipped++
		case outcomeFailed:
			summary.Failed++
		}
	}

	// 3. Persist state, including partial progress from a failing pass
	if err := e.state.Save(ctx, state); err != nil {
		return summary, fmt.Errorf("save sync state: %w", err)
	}

	logger.Info("Sync complete: %d synced, %d skipped, %d failed",
		summary.Synced, summary.Skipped, summary.Failed)
	return summary, nil
}

type outcome int

const (
	outcomeSynced outcome = iota
	outcomeSkipped
	outcomeFailed
)

// syncOne brings a single document up to date. The SyncRecord is only
// updated after every new chunk stored successfully, so a partial
// upload is retried whole on the next pass.
func (e *SyncEngine) syncOne(ctx context.Context, state *domain.SyncState, src domain.SourceDocument) outcome {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		logger.Error("Read %s: %v", src.Key, err)
		return outcomeFailed
	}

	fingerprint := fingerprintBytes(data)
	old, tracked := state.Record(src.Key)
	if tracked && old.Fingerprint == fingerprint {
		logger.Debug("Unchanged: %s", src.Key)
		return outcomeSkipped
	}

	chunks := chunker.Chunk(string(data), src.Key, e.cfg.ChunkSize)
	if len(chunks) == 0 {
		logger.Warn("Skipping %s: %v", src.Key, domain.ErrEmptyDocument)
		return outcomeFailed
	}

	// Old chunks go first so retrieval never sees a stale and a fresh
	// version of the same document at once.
	for _, ck := range old.ChunkKeys {
		if err := e.store.Delete(ctx, ck); err != nil {
			logger.Warn("Delete old chunk %s: %v", ck, err)
		}
	}

	keys := make([]string, 0, len(chunks))
	ok := true
	for _, ch := range chunks {
		if err := e.store.Put(ctx, ch.Key, []byte(ch.Content), ""); err != nil {
			logger.Error("Upload %s: %v", ch.Key, err)
			ok = false
			continue
		}
		keys = append(keys, ch.Key)
	}
	if !ok {
		return outcomeFailed
	}

	rec := domain.SyncRecord{Fingerprint: fingerprint}
	if len(chunks) > 1 {
		rec.ChunkKeys = keys
	}
	state.SetRecord(src.Key, rec)

	if len(chunks) > 1 {
		logger.Info("Synced %s (%d chunks)", src.Key, len(chunks))
	} else {
		logger.Info("Synced %s", src.Key)
	}
	return outcomeSynced
}

// Prune removes orphaned objects: keys present in the bucket that this
// tool has tracked but that are no longer reachable from any live
// source document. Untracked bucket objects are never touched.
func (e *SyncEngine) Prune(ctx context.Context) (int, error) {
	state, err := e.state.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load sync state: %w", err)
	}
	sources, err := discoverSources(e.cfg)
	if err != nil {
		return 0, fmt.Errorf("discover sources: %w", err)
	}

	reachable := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		reachable[src.Key] = struct{}{}
		if rec, ok := state.Record(src.Key); ok {
			for _, ck := range rec.ChunkKeys {
				reachable[ck] = struct{}{}
			}
		}
	}

	bucketKeys, err := e.store.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list bucket: %w", err)
	}
	tracked := state.TrackedKeys()

	var orphans []string
	for _, key := range bucketKeys {
		if _, ok := tracked[key]; !ok {
			continue
		}
		if _, ok := reachable[key]; ok {
			continue
		}
		orphans = append(orphans, key)
	}
	sort.Strings(orphans)

	removed := 0
	deleteFailed := make(map[string]struct{})
	for _, key := range orphans {
		if ctx.Err() != nil {
			break
		}
		if err := e.store.Delete(ctx, key); err != nil {
			logger.Error("Remove orphan %s: %v", key, err)
			deleteFailed[key] = struct{}{}
			continue
		}
		state.Remove(key)
		logger.Info("Removed orphan %s", key)
		removed++
	}

	// A chunked document's own key never reaches the bucket, so its
	// record survives the orphan sweep above. Drop records for sources
	// gone from the live set once their stored objects are gone too;
	// otherwise a matching fingerprint would skip the document forever
	// if the file came back. Records whose objects could not be
	// deleted are kept so the next prune retries them.
	live := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		live[src.Key] = struct{}{}
	}
	for key, rec := range state.Documents {
		if _, ok := live[key]; ok {
			continue
		}
		if _, ok := deleteFailed[key]; ok {
			continue
		}
		if len(rec.ChunkKeys) > 0 {
			continue
		}
		state.Remove(key)
		logger.Debug("Dropped record for vanished source %s", key)
	}

	if err := e.state.Save(ctx, state); err != nil {
		return removed, fmt.Errorf("save sync state: %w", err)
	}
	return removed, nil
}

// fingerprintBytes returns the hex SHA-256 of the raw content.
func fingerprintBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// discoverSources resolves the configured include patterns under the
// workspace, drops excluded matches and returns a sorted, deduplicated
// source set. Keys are workspace-relative with forward slashes.
func discoverSources(cfg domain.Config) ([]domain.SourceDocument, error) {
	seen := make(map[string]struct{})
	var sources []domain.SourceDocument

	for _, pattern := range cfg.Patterns {
		matches, err := filepath.Glob(filepath.Join(cfg.Workspace, pattern))
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			rel, err := filepath.Rel(cfg.Workspace, match)
			if err != nil {
				continue
			}
			key := filepath.ToSlash(rel)
			if _, ok := seen[key]; ok {
				continue
			}
			if excluded(key, cfg.Exclude) {
				continue
			}
			seen[key] = struct{}{}
			sources = append(sources, domain.SourceDocument{Path: match, Key: key})
		}
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Key < sources[j].Key })
	return sources, nil
}

// excluded reports whether a key matches any exclude pattern. Patterns
// match against the full relative key and against the base name.
func excluded(key string, patterns []string) bool {
	base := path.Base(key)
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, key); ok {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
