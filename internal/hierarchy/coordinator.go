package hierarchy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/taskdeck/taskdeck/internal/types"
)

// DefaultTTL is the freshness window for cached snapshots. A snapshot older
// than this is refetched on the next read.
const DefaultTTL = 5 * time.Minute

// Coordinator decides cache-hit versus network fetch and commits the
// outcome into the store.
//
// Concurrent callers for the same stale or missing key share one in-flight
// request (singleflight), and every fetch carries a per-key monotonically
// increasing token: a fetch that settles after a newer one has already
// committed discards its result instead of silently overwriting the cache.
type Coordinator struct {
	store   *Store
	fetcher Fetcher
	ttl     time.Duration
	group   singleflight.Group

	mu     sync.Mutex
	tokens map[types.ItemID]uint64
}

// NewCoordinator creates a fetch coordinator over the given store and
// network boundary. ttl <= 0 selects DefaultTTL.
func NewCoordinator(store *Store, fetcher Fetcher, ttl time.Duration) *Coordinator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Coordinator{
		store:   store,
		fetcher: fetcher,
		ttl:     ttl,
		tokens:  make(map[types.ItemID]uint64),
	}
}

// Store returns the store this coordinator commits into.
func (c *Coordinator) Store() *Store { return c.store }

// TTL returns the freshness window.
func (c *Coordinator) TTL() time.Duration { return c.ttl }

// EnsureFresh returns the project's tree, fetching it when the cache has no
// entry, the entry is stale, or force is set. A fresh cached entry is
// returned immediately without touching the network.
//
// Fetch failures are recorded on the key's error state for views to render
// and returned to the caller; the cache layer never swallows them.
func (c *Coordinator) EnsureFresh(ctx context.Context, projectID types.ItemID, force bool) ([]*types.WorkItem, error) {
	if !force {
		if entry, ok := c.store.Entry(projectID); ok && time.Since(entry.FetchedAt) < c.ttl {
			return entry.Tree, nil
		}
	}

	v, err, _ := c.group.Do(projectID.String(), func() (any, error) {
		return c.fetch(ctx, projectID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*types.WorkItem), nil
}

// fetch performs one network round trip and settles the key: loading is set
// before the call, and exactly one of SetEntry or SetError follows it. The
// commit is skipped when a newer fetch for the key has started in the
// meantime.
func (c *Coordinator) fetch(ctx context.Context, projectID types.ItemID) ([]*types.WorkItem, error) {
	token := c.nextToken(projectID)
	c.store.SetLoading(projectID, true)

	tree, err := c.fetcher.FetchHierarchy(ctx, projectID)
	if err != nil {
		ferr := &FetchError{ProjectID: projectID, Status: ErrorStatus(err), Err: err}
		if c.isLatest(projectID, token) {
			c.store.SetError(projectID, ferr)
		}
		slog.Debug("hierarchy fetch failed",
			"project", projectID, "status", ferr.Status, "error", err)
		return nil, ferr
	}

	if c.isLatest(projectID, token) {
		c.store.SetEntry(projectID, tree)
	}
	slog.Debug("hierarchy fetch committed",
		"project", projectID, "roots", len(tree), "nodes", types.CountNodes(tree))
	return tree, nil
}

func (c *Coordinator) nextToken(projectID types.ItemID) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[projectID]++
	return c.tokens[projectID]
}

func (c *Coordinator) isLatest(projectID types.ItemID, token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens[projectID] == token
}
