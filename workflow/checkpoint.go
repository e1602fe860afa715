package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/norrin/workflow-engine/state"
)

// nodeTag marks which of the five graph nodes produced a checkpoint. It is
// persisted alongside the state so a resumed run knows where it left off.
type nodeTag string

const (
	nodeSmartRouter nodeTag = "smart_router"
	nodePlanner     nodeTag = "planner"
	nodeExecutor    nodeTag = "executor"
	nodeSynthesizer nodeTag = "synthesizer"
	nodeInterrupted nodeTag = "interrupted"
)

type checkpointSnapshot struct {
	State GraphState `json:"state"`
	Node  nodeTag    `json:"node"`
}

func snapshotState(g GraphState, node nodeTag) (map[string]any, error) {
	raw, err := json.Marshal(checkpointSnapshot{State: g, Node: node})
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint snapshot: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode checkpoint snapshot map: %w", err)
	}
	return out, nil
}

func restoreState(raw map[string]any) (GraphState, nodeTag, error) {
	if len(raw) == 0 {
		return GraphState{}, "", fmt.Errorf("checkpoint state is empty")
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return GraphState{}, "", fmt.Errorf("marshal checkpoint state: %w", err)
	}
	var snapshot checkpointSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return GraphState{}, "", fmt.Errorf("decode checkpoint state: %w", err)
	}
	return snapshot.State, snapshot.Node, nil
}

// checkpointer wraps a state.Store with the thread-keyed read/write and
// per-thread serialization the engine needs. A thread id maps 1:1 onto a
// state.RunRecord's RunID; the checkpoint chain's Seq is the monotonic
// ordinal, and a checkpoint's id is simply strconv.Itoa(Seq), making the
// parent-checkpoint-id trivially Seq-1 with no extra bookkeeping.
type checkpointer struct {
	store state.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newCheckpointer(store state.Store) *checkpointer {
	return &checkpointer{store: store, locks: map[string]*sync.Mutex{}}
}

// lockThread returns a mutex scoped to threadID, created on first use. The
// engine holds this for the duration of a single Start/Resume/Retry call so
// two requests against the same thread never interleave checkpoint writes.
func (c *checkpointer) lockThread(threadID string) func() {
	c.mu.Lock()
	l, ok := c.locks[threadID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[threadID] = l
	}
	c.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (c *checkpointer) load(ctx context.Context, threadID string) (GraphState, nodeTag, int, error) {
	cp, err := c.store.LoadLatestCheckpoint(ctx, threadID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return GraphState{}, "", 0, newErr(KindNotFound, "load", err)
		}
		return GraphState{}, "", 0, newErr(KindCheckpoint, "load", err)
	}
	g, node, err := restoreState(cp.State)
	if err != nil {
		return GraphState{}, "", 0, newErr(KindCheckpoint, "load", err)
	}
	return g, node, cp.Seq, nil
}

func (c *checkpointer) save(ctx context.Context, g GraphState, node nodeTag, seq int) error {
	snap, err := snapshotState(g, node)
	if err != nil {
		return newErr(KindCheckpoint, "save", err)
	}
	err = c.store.SaveCheckpoint(ctx, state.CheckpointRecord{
		RunID:     g.ThreadID,
		Seq:       seq,
		NodeID:    string(node),
		State:     snap,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return newErr(KindCheckpoint, "save", err)
	}
	return nil
}

func (c *checkpointer) ensureRun(ctx context.Context, threadID, input string) error {
	_, err := c.store.LoadRun(ctx, threadID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, state.ErrNotFound) {
		return newErr(KindCheckpoint, "ensure_run", err)
	}
	now := time.Now().UTC()
	err = c.store.SaveRun(ctx, state.RunRecord{
		RunID:     threadID,
		SessionID: threadID,
		Provider:  "workflow-engine",
		Status:    "running",
		Input:     input,
		CreatedAt: &now,
		UpdatedAt: &now,
	})
	if err != nil {
		return newErr(KindCheckpoint, "ensure_run", err)
	}
	return nil
}

func (c *checkpointer) touchRun(ctx context.Context, g GraphState, status string) error {
	now := time.Now().UTC()
	run, err := c.store.LoadRun(ctx, g.ThreadID)
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		return newErr(KindCheckpoint, "touch_run", err)
	}
	output := ""
	if g.Plan != nil {
		output = g.Plan.FinalSummary
	}
	var completedAt *time.Time
	if status == "completed" || status == "failed" {
		completedAt = &now
	}
	createdAt := run.CreatedAt
	if createdAt == nil {
		createdAt = &now
	}
	err = c.store.SaveRun(ctx, state.RunRecord{
		RunID:       g.ThreadID,
		SessionID:   g.ThreadID,
		Provider:    "workflow-engine",
		Status:      status,
		Input:       run.Input,
		Output:      output,
		Error:       g.LastError,
		CreatedAt:   createdAt,
		UpdatedAt:   &now,
		CompletedAt: completedAt,
	})
	if err != nil {
		return newErr(KindCheckpoint, "touch_run", err)
	}
	return nil
}

func checkpointID(seq int) string {
	return strconv.Itoa(seq)
}

func parentCheckpointID(seq int) string {
	if seq <= 1 {
		return ""
	}
	return strconv.Itoa(seq - 1)
}
