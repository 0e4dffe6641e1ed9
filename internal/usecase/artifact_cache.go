package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"RfpIntel/internal/domain"
)

// ArtifactState tags the lifecycle of one (document, kind) computation.
type ArtifactState int

const (
	StateEmpty ArtifactState = iota
	StateComputing
	StateReady
	StateFailed
)

func (s ArtifactState) String() string {
	switch s {
	case StateComputing:
		return "computing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "empty"
	}
}

// ArtifactEntry is a snapshot of a cache slot.
type ArtifactEntry struct {
	State ArtifactState
	Value string
	Err   error
}

type artifactKey struct {
	documentID int64
	kind       domain.ArtifactKind
}

type flight struct {
	done  chan struct{}
	value string
	err   error
}

// ArtifactCache deduplicates in-flight artifact computations and memoizes
// settled outcomes. Computing slots live in an unbounded in-flight map;
// Ready and Failed slots live in a size and TTL bounded LRU. A Failed slot
// is informational only: the next computation request runs again.
type ArtifactCache struct {
	mu       sync.Mutex
	inflight map[artifactKey]*flight
	settled  *expirable.LRU[artifactKey, ArtifactEntry]
}

// NewArtifactCache builds a cache. size <= 0 falls back to 256 entries and
// ttl <= 0 disables expiry.
func NewArtifactCache(size int, ttl time.Duration) *ArtifactCache {
	if size <= 0 {
		size = 256
	}
	if ttl < 0 {
		ttl = 0
	}
	return &ArtifactCache{
		inflight: make(map[artifactKey]*flight),
		settled:  expirable.NewLRU[artifactKey, ArtifactEntry](size, nil, ttl),
	}
}

// Get reports the current state of a slot.
func (c *ArtifactCache) Get(documentID int64, kind domain.ArtifactKind) ArtifactEntry {
	key := artifactKey{documentID: documentID, kind: kind}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inflight[key]; ok {
		return ArtifactEntry{State: StateComputing}
	}
	if entry, ok := c.settled.Get(key); ok {
		return entry
	}
	return ArtifactEntry{State: StateEmpty}
}

// Set marks a slot Ready with value, e.g. after a human edit. An empty
// value resets the slot to Empty.
func (c *ArtifactCache) Set(documentID int64, kind domain.ArtifactKind, value string) {
	key := artifactKey{documentID: documentID, kind: kind}
	if value == "" {
		c.settled.Remove(key)
		return
	}
	c.settled.Add(key, ArtifactEntry{State: StateReady, Value: value})
}

type doSource int

const (
	sourceComputed doSource = iota
	sourceMemo
	sourceShared
)

// do returns the Ready value for the slot or runs compute exactly once for
// all concurrent callers. Waiters give up when their own ctx ends; the
// computation keeps running for the caller that started it.
func (c *ArtifactCache) do(
	ctx context.Context,
	documentID int64,
	kind domain.ArtifactKind,
	compute func(context.Context) (string, error),
) (string, doSource, error) {
	key := artifactKey{documentID: documentID, kind: kind}

	c.mu.Lock()
	if entry, ok := c.settled.Get(key); ok && entry.State == StateReady {
		c.mu.Unlock()
		return entry.Value, sourceMemo, nil
	}
	if f, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.value, sourceShared, f.err
		case <-ctx.Done():
			return "", sourceShared, ctx.Err()
		}
	}
	f := &flight{done: make(chan struct{})}
	c.inflight[key] = f
	c.mu.Unlock()

	settled := false
	defer func() {
		if !settled {
			f.err = errComputePanicked
		}
		c.mu.Lock()
		delete(c.inflight, key)
		if f.err != nil {
			c.settled.Add(key, ArtifactEntry{State: StateFailed, Err: f.err})
		} else {
			c.settled.Add(key, ArtifactEntry{State: StateReady, Value: f.value})
		}
		c.mu.Unlock()
		close(f.done)
	}()

	f.value, f.err = compute(ctx)
	settled = true

	return f.value, sourceComputed, f.err
}

var errComputePanicked = errors.New("artifact computation panicked")
