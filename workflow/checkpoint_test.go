package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/norrin/workflow-engine/state"
)

type memoryStore struct {
	mu          sync.Mutex
	runs        map[string]state.RunRecord
	checkpoints map[string][]state.CheckpointRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		runs:        map[string]state.RunRecord{},
		checkpoints: map[string][]state.CheckpointRecord{},
	}
}

func (m *memoryStore) SaveRun(ctx context.Context, run state.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.RunID] = run
	return nil
}

func (m *memoryStore) LoadRun(ctx context.Context, runID string) (state.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return state.RunRecord{}, state.ErrNotFound
	}
	return run, nil
}

func (m *memoryStore) ListRuns(ctx context.Context, query state.ListRunsQuery) ([]state.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []state.RunRecord
	for _, run := range m.runs {
		out = append(out, run)
	}
	return out, nil
}

func (m *memoryStore) SaveCheckpoint(ctx context.Context, cp state.CheckpointRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints[cp.RunID] = append(m.checkpoints[cp.RunID], cp)
	return nil
}

func (m *memoryStore) LoadLatestCheckpoint(ctx context.Context, runID string) (state.CheckpointRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cps := m.checkpoints[runID]
	if len(cps) == 0 {
		return state.CheckpointRecord{}, state.ErrNotFound
	}
	latest := cps[0]
	for _, cp := range cps[1:] {
		if cp.Seq > latest.Seq {
			latest = cp
		}
	}
	return latest, nil
}

func (m *memoryStore) ListCheckpoints(ctx context.Context, runID string, limit int) ([]state.CheckpointRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]state.CheckpointRecord(nil), m.checkpoints[runID]...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) Close() error { return nil }

func TestCheckpointIDAndParent(t *testing.T) {
	cases := []struct {
		seq        int
		wantID     string
		wantParent string
	}{
		{seq: 1, wantID: "1", wantParent: ""},
		{seq: 2, wantID: "2", wantParent: "1"},
		{seq: 42, wantID: "42", wantParent: "41"},
	}
	for _, c := range cases {
		if got := checkpointID(c.seq); got != c.wantID {
			t.Errorf("checkpointID(%d) = %q, want %q", c.seq, got, c.wantID)
		}
		if got := parentCheckpointID(c.seq); got != c.wantParent {
			t.Errorf("parentCheckpointID(%d) = %q, want %q", c.seq, got, c.wantParent)
		}
	}
}

func TestCheckpointerSaveLoadRoundTrip(t *testing.T) {
	store := newMemoryStore()
	cp := newCheckpointer(store)
	ctx := context.Background()

	g := *newGraphState("thread-1")
	g.Messages = append(g.Messages, Message{Role: "user", Content: "hello", CreatedAt: time.Now()})

	if err := cp.save(ctx, g, nodePlanner, 1); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, node, seq, err := cp.load(ctx, "thread-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if node != nodePlanner {
		t.Fatalf("node = %q, want %q", node, nodePlanner)
	}
	if seq != 1 {
		t.Fatalf("seq = %d, want 1", seq)
	}
	if loaded.ThreadID != "thread-1" || len(loaded.Messages) != 1 {
		t.Fatalf("unexpected restored state: %#v", loaded)
	}
}

func TestCheckpointerLoadMissingThreadIsNotFound(t *testing.T) {
	cp := newCheckpointer(newMemoryStore())
	_, _, _, err := cp.load(context.Background(), "nope")
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
