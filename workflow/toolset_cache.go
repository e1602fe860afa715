package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
)

// toolsetCache memoizes ToolRegistry.Build by a deterministic hash of the
// caller's credential bag, so two requests presenting the same tokens reuse
// the same built tool set instead of re-resolving every tool on every call.
// A never-seen credential combination builds and caches a fresh one.
type toolsetCache struct {
	mu    sync.Mutex
	byKey map[string]ToolSet
}

func newToolsetCache() *toolsetCache {
	return &toolsetCache{byKey: map[string]ToolSet{}}
}

func (c *toolsetCache) build(ctx context.Context, registry ToolRegistry, credentials map[string]string) (ToolSet, error) {
	key := credentialsKey(credentials)

	c.mu.Lock()
	if ts, ok := c.byKey[key]; ok {
		c.mu.Unlock()
		return ts, nil
	}
	c.mu.Unlock()

	ts, err := registry.Build(ctx, credentials)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byKey[key] = ts
	c.mu.Unlock()
	return ts, nil
}

// credentialsKey hashes the sorted key=value pairs of a credential bag so the
// cache key is order-independent and never leaks raw tokens into memory keys
// or logs.
func credentialsKey(credentials map[string]string) string {
	if len(credentials) == 0 {
		return "none"
	}
	pairs := make([]string, 0, len(credentials))
	for k, v := range credentials {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	sum := sha256.Sum256([]byte(strings.Join(pairs, "\x00")))
	return hex.EncodeToString(sum[:])
}
