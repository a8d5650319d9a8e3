package domain

import "time"

// SyncRecord is the persisted per-document entry in the sync state.
// ChunkKeys is empty exactly when the document was stored as a single
// pass-through object; otherwise it lists every chunk key produced by
// the most recent chunking pass, in order.
type SyncRecord struct {
	Fingerprint string   `json:"fingerprint"`
	ChunkKeys   []string `json:"chunk_keys,omitempty"`
}

// SyncState is the full persisted sync state: a single document
// mapping source keys to their records, plus the last sync time.
type SyncState struct {
	Documents map[string]SyncRecord `json:"documents"`
	LastSync  time.Time             `json:"last_sync"`
}

// NewSyncState returns an empty sync state ready for use.
func NewSyncState() *SyncState {
	return &SyncState{Documents: make(map[string]SyncRecord)}
}

// Record returns the sync record for a source key.
func (s *SyncState) Record(key string) (SyncRecord, bool) {
	rec, ok := s.Documents[key]
	return rec, ok
}

// SetRecord stores or replaces the record for a source key.
func (s *SyncState) SetRecord(key string, rec SyncRecord) {
	if s.Documents == nil {
		s.Documents = make(map[string]SyncRecord)
	}
	s.Documents[key] = rec
}

// Remove drops a key from the state. The key may be a source document
// key or a chunk key; chunk keys are removed from their owner's list.
func (s *SyncState) Remove(key string) {
	if _, ok := s.Documents[key]; ok {
		delete(s.Documents, key)
		return
	}
	for src, rec := range s.Documents {
		kept := rec.ChunkKeys[:0:0]
		for _, ck := range rec.ChunkKeys {
			if ck != key {
				kept = append(kept, ck)
			}
		}
		if len(kept) != len(rec.ChunkKeys) {
			rec.ChunkKeys = kept
			s.Documents[src] = rec
		}
	}
}

// TrackedKeys returns every key this state has ever recorded: source
// document keys plus all chunk keys.
func (s *SyncState) TrackedKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(s.Documents))
	for key, rec := range s.Documents {
		keys[key] = struct{}{}
		for _, ck := range rec.ChunkKeys {
			keys[ck] = struct{}{}
		}
	}
	return keys
}

// SyncSummary reports the outcome of one sync pass.
type SyncSummary struct {
	// RunID identifies the sync pass in logs.
	RunID string

	// Synced is the number of documents uploaded this pass.
	Synced int

	// Skipped is the number of documents whose fingerprint matched.
	Skipped int

	// Failed is the number of documents that could not be read,
	// chunked or uploaded.
	Failed int
}
