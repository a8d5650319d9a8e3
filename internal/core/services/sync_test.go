package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/ragmem/internal/core/domain"
)

// --- Mock implementations for sync testing ---

// mockObjectStore implements driven.ObjectStore in memory and records
// the order of storage operations.
type mockObjectStore struct {
	objects map[string][]byte
	ops     []string
	failPut map[string]error
	listErr error
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{objects: make(map[string][]byte)}
}

func (m *mockObjectStore) Put(_ context.Context, key string, data []byte, _ string) error {
	if err := m.failPut[key]; err != nil {
		return err
	}
	m.objects[key] = data
	m.ops = append(m.ops, "put "+key)
	return nil
}

func (m *mockObjectStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	m.ops = append(m.ops, "delete "+key)
	return nil
}

func (m *mockObjectStore) List(_ context.Context, prefix string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *mockObjectStore) Head(_ context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	_, ok := m.objects[key]
	return ok, nil
}

func (m *mockObjectStore) CreateBucket(_ context.Context) error { return nil }

// mockStateStore implements driven.SyncStateStore in memory.
type mockStateStore struct {
	state   *domain.SyncState
	saved   bool
	loadErr error
	saveErr error
}

func (m *mockStateStore) Load(_ context.Context) (*domain.SyncState, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.state == nil {
		m.state = domain.NewSyncState()
	}
	return m.state, nil
}

func (m *mockStateStore) Save(_ context.Context, state *domain.SyncState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = state
	m.saved = true
	return nil
}

// --- Test helpers ---

func testConfig(workspace string) domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Workspace = workspace
	cfg.Patterns = []string{"*.md", "docs/*.md", "*.json"}
	cfg.Exclude = []string{"*.tmp", ".git/*"}
	return cfg
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// --- Tests ---

func TestSyncEngine_FirstPass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.md", "# Notes\n\nShort enough to pass through.")
	writeFile(t, dir, "docs/guide.md", "ignored extension match")

	store := newMockObjectStore()
	states := &mockStateStore{}
	engine := NewSyncEngine(store, states, testConfig(dir))

	summary, err := engine.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Synced)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.NotEmpty(t, summary.RunID)
	assert.True(t, states.saved)

	rec, ok := states.state.Record("notes.md")
	require.True(t, ok)
	assert.Empty(t, rec.ChunkKeys, "pass-through document has no chunk fan-out")
	assert.Equal(t, fingerprintBytes([]byte("# Notes\n\nShort enough to pass through.")), rec.Fingerprint)
	assert.Contains(t, store.objects, "notes.md")
	assert.Contains(t, store.objects, "docs/guide.md")
}

func TestSyncEngine_LargeDocumentIsChunked(t *testing.T) {
	dir := t.TempDir()
	content := "# Guide\n\n## Alpha\n\n" + strings.Repeat("alpha section content. ", 30) +
		"\n\n## Beta\n\n" + strings.Repeat("beta section content. ", 30)
	writeFile(t, dir, "guide.md", content)

	store := newMockObjectStore()
	states := &mockStateStore{}
	cfg := testConfig(dir)
	cfg.ChunkSize = 100
	engine := NewSyncEngine(store, states, cfg)

	summary, err := engine.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Synced)

	rec, ok := states.state.Record("guide.md")
	require.True(t, ok)
	require.GreaterOrEqual(t, len(rec.ChunkKeys), 2)
	for _, ck := range rec.ChunkKeys {
		assert.Contains(t, ck, "guide__chunk-")
		assert.Contains(t, store.objects, ck)
	}
	assert.NotContains(t, store.objects, "guide.md", "chunked documents are not stored whole")
}

func TestSyncEngine_UnchangedFilesSkip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.md", "stable content")

	store := newMockObjectStore()
	states := &mockStateStore{state: domain.NewSyncState()}
	states.state.SetRecord("notes.md", domain.SyncRecord{
		Fingerprint: fingerprintBytes([]byte("stable content")),
	})
	engine := NewSyncEngine(store, states, testConfig(dir))

	summary, err := engine.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Synced)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, store.ops, "unchanged documents touch no storage")
}

func TestSyncEngine_ChangedFileDeletesOldChunksFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.md", "new content after edit")

	store := newMockObjectStore()
	states := &mockStateStore{state: domain.NewSyncState()}
	states.state.SetRecord("notes.md", domain.SyncRecord{
		Fingerprint: "stale-fingerprint",
		ChunkKeys:   []string{"notes__chunk-001.md", "notes__chunk-002.md"},
	})
	engine := NewSyncEngine(store, states, testConfig(dir))

	summary, err := engine.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Synced)
	require.Len(t, store.ops, 3)
	assert.Equal(t, "delete notes__chunk-001.md", store.ops[0])
	assert.Equal(t, "delete notes__chunk-002.md", store.ops[1])
	assert.Equal(t, "put notes.md", store.ops[2])

	rec, _ := states.state.Record("notes.md")
	assert.Empty(t, rec.ChunkKeys, "shrunk document clears its old fan-out")
}

func TestSyncEngine_EmptyDocumentFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.md", "   \n\n  ")

	store := newMockObjectStore()
	states := &mockStateStore{}
	engine := NewSyncEngine(store, states, testConfig(dir))

	summary, err := engine.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, store.ops, "failed documents touch no storage")
	_, tracked := states.state.Record("empty.md")
	assert.False(t, tracked)
}

func TestSyncEngine_PartialUploadLeavesFingerprintUnchanged(t *testing.T) {
	dir := t.TempDir()
	content := "# Guide\n\n## Alpha\n\n" + strings.Repeat("alpha content words. ", 30) +
		"\n\n## Beta\n\n" + strings.Repeat("beta content words. ", 30)
	writeFile(t, dir, "guide.md", content)

	store := newMockObjectStore()
	store.failPut = map[string]error{"guide__chunk-002.md": errors.New("storage down")}
	states := &mockStateStore{}
	cfg := testConfig(dir)
	cfg.ChunkSize = 100
	engine := NewSyncEngine(store, states, cfg)

	summary, err := engine.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	_, tracked := states.state.Record("guide.md")
	assert.False(t, tracked, "partial upload must not record the new fingerprint")
}

func TestSyncEngine_ExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.md", "kept")
	writeFile(t, dir, "scratch.tmp.md", "kept too, different extension")
	writeFile(t, dir, "drop.tmp", "dropped")

	sources, err := discoverSources(testConfig(dir))

	require.NoError(t, err)
	keys := make([]string, len(sources))
	for i, src := range sources {
		keys[i] = src.Key
	}
	assert.Equal(t, []string{"keep.md", "scratch.tmp.md"}, keys)
}

func TestSyncEngine_DiscoveryIsSortedAndDeduplicated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "b")
	writeFile(t, dir, "a.md", "a")

	cfg := testConfig(dir)
	cfg.Patterns = []string{"*.md", "a.md"}

	sources, err := discoverSources(cfg)

	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "a.md", sources[0].Key)
	assert.Equal(t, "b.md", sources[1].Key)
}

func TestSyncEngine_Prune(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "live.md", "still here")

	store := newMockObjectStore()
	store.objects["live.md"] = []byte("still here")
	store.objects["gone__chunk-001.md"] = []byte("orphan")
	store.objects["gone__chunk-002.md"] = []byte("orphan")
	store.objects["stranger.md"] = []byte("never tracked")

	states := &mockStateStore{state: domain.NewSyncState()}
	states.state.SetRecord("live.md", domain.SyncRecord{Fingerprint: "f"})
	states.state.SetRecord("gone.md", domain.SyncRecord{
		Fingerprint: "g",
		ChunkKeys:   []string{"gone__chunk-001.md", "gone__chunk-002.md"},
	})

	engine := NewSyncEngine(store, states, testConfig(dir))

	removed, err := engine.Prune(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NotContains(t, store.objects, "gone__chunk-001.md")
	assert.NotContains(t, store.objects, "gone__chunk-002.md")
	assert.Contains(t, store.objects, "live.md", "reachable keys survive")
	assert.Contains(t, store.objects, "stranger.md", "untracked keys are never touched")
	assert.True(t, states.saved)
}

func TestSyncEngine_PruneDropsRecordsForVanishedSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "live.md", "still here")

	store := newMockObjectStore()
	store.objects["live.md"] = []byte("still here")
	store.objects["gone__chunk-001.md"] = []byte("orphan")
	store.objects["gone__chunk-002.md"] = []byte("orphan")

	states := &mockStateStore{state: domain.NewSyncState()}
	states.state.SetRecord("live.md", domain.SyncRecord{
		Fingerprint: fingerprintBytes([]byte("still here")),
	})
	states.state.SetRecord("gone.md", domain.SyncRecord{
		Fingerprint: fingerprintBytes([]byte("returning content")),
		ChunkKeys:   []string{"gone__chunk-001.md", "gone__chunk-002.md"},
	})
	engine := NewSyncEngine(store, states, testConfig(dir))

	removed, err := engine.Prune(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	_, tracked := states.state.Record("gone.md")
	assert.False(t, tracked, "record for a vanished chunked source is dropped with its chunks")

	// The file coming back with identical content is synced afresh, not
	// skipped against the stale fingerprint.
	writeFile(t, dir, "gone.md", "returning content")
	summary, err := engine.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Synced)
	assert.Equal(t, 1, summary.Skipped)
	assert.Contains(t, store.objects, "gone.md")
}

func TestSyncEngine_PruneNothingOrphaned(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "live.md", "content")

	store := newMockObjectStore()
	store.objects["live.md"] = []byte("content")
	states := &mockStateStore{state: domain.NewSyncState()}
	states.state.SetRecord("live.md", domain.SyncRecord{Fingerprint: "f"})

	engine := NewSyncEngine(store, states, testConfig(dir))

	removed, err := engine.Prune(context.Background())

	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSyncEngine_LoadStateError(t *testing.T) {
	states := &mockStateStore{loadErr: errors.New("disk gone")}
	engine := NewSyncEngine(newMockObjectStore(), states, testConfig(t.TempDir()))

	_, err := engine.Sync(context.Background())

	assert.ErrorContains(t, err, "load sync state")
}
