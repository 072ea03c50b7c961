package hierarchy

import (
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/internal/types"
)

// Entry is one cached hierarchy snapshot. An entry is either entirely
// absent or represents one complete, internally consistent snapshot; a
// fetch never commits a partial or merged tree.
type Entry struct {
	Tree      []*types.WorkItem
	FetchedAt time.Time
}

// keyState tracks the fetch lifecycle for one project id. loading is true
// strictly between fetch start and fetch settle; lastErr holds the most
// recent fetch failure and is cleared on any new fetch start and on a
// successful settle.
type keyState struct {
	loading bool
	lastErr error
}

// Store holds the authoritative in-memory snapshot per project id together
// with the per-key loading/error flags. All reads and writes to cached
// trees go through here; the query and mutation functions only ever operate
// on tree values handed to them, never on the store itself.
//
// The store is an explicit, injected object with its lifecycle owned by the
// caller. Every operation takes the mutex, so each one is atomic from the
// caller's perspective.
type Store struct {
	mu      sync.RWMutex
	entries map[types.ItemID]*Entry
	states  map[types.ItemID]*keyState

	watchMu  sync.Mutex
	watchers map[types.ItemID]map[int]chan struct{}
	nextID   int

	now func() time.Time
}

// NewStore creates an empty hierarchy store.
func NewStore() *Store {
	return &Store{
		entries:  make(map[types.ItemID]*Entry),
		states:   make(map[types.ItemID]*keyState),
		watchers: make(map[types.ItemID]map[int]chan struct{}),
		now:      time.Now,
	}
}

// Entry returns the cached entry for a project, if any. No side effects.
// Callers must treat the returned tree as immutable; all writes go through
// SetEntry or PatchNode.
func (s *Store) Entry(projectID types.ItemID) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[projectID]
	return e, ok
}

// Tree returns the cached tree for a project, if any.
func (s *Store) Tree(projectID types.ItemID) ([]*types.WorkItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[projectID]
	if !ok {
		return nil, false
	}
	return e.Tree, true
}

// SetEntry stores a complete snapshot for the project with FetchedAt set to
// now, clearing the key's loading flag and error.
func (s *Store) SetEntry(projectID types.ItemID, tree []*types.WorkItem) {
	s.mu.Lock()
	s.entries[projectID] = &Entry{Tree: tree, FetchedAt: s.now()}
	delete(s.states, projectID)
	s.mu.Unlock()
	s.notify(projectID)
}

// SetLoading flips the key's loading flag.
func (s *Store) SetLoading(projectID types.ItemID, loading bool) {
	s.mu.Lock()
	st := s.state(projectID)
	st.loading = loading
	if loading {
		st.lastErr = nil
	}
	s.mu.Unlock()
	s.notify(projectID)
}

// SetError records a fetch failure for the key and clears loading.
func (s *Store) SetError(projectID types.ItemID, err error) {
	s.mu.Lock()
	st := s.state(projectID)
	st.loading = false
	st.lastErr = err
	s.mu.Unlock()
	s.notify(projectID)
}

// RemoveEntry discards the tree, loading flag, and error for the key. Views
// call this when a project is detached so the process does not accumulate
// snapshots for projects nobody is looking at.
func (s *Store) RemoveEntry(projectID types.ItemID) {
	s.mu.Lock()
	delete(s.entries, projectID)
	delete(s.states, projectID)
	s.mu.Unlock()
	s.notify(projectID)
}

// Loading reports whether a fetch is in flight for the key.
func (s *Store) Loading(projectID types.ItemID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[projectID]
	return ok && st.loading
}

// LastError returns the most recent fetch failure for the key, or nil.
func (s *Store) LastError(projectID types.ItemID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[projectID]
	if !ok {
		return nil
	}
	return st.lastErr
}

// PatchNode applies a field patch to one node of the cached tree and
// replaces the stored tree with the patched copy. FetchedAt is preserved: a
// patch is an optimistic local update, not a fresh snapshot. A patch for a
// project with no cached entry is a no-op, not an error. Returns whether a
// cached entry existed.
func (s *Store) PatchNode(projectID types.ItemID, patch NodePatch) bool {
	s.mu.Lock()
	e, ok := s.entries[projectID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.entries[projectID] = &Entry{Tree: ApplyPatch(e.Tree, patch), FetchedAt: e.FetchedAt}
	s.mu.Unlock()
	s.notify(projectID)
	return true
}

// Subscribe registers interest in cache changes for one project id. The
// returned channel receives a (coalesced) signal after every commit for the
// key; the cancel function must be called when the view unmounts.
func (s *Store) Subscribe(projectID types.ItemID) (<-chan struct{}, func()) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	ch := make(chan struct{}, 1)
	id := s.nextID
	s.nextID++
	if s.watchers[projectID] == nil {
		s.watchers[projectID] = make(map[int]chan struct{})
	}
	s.watchers[projectID][id] = ch
	cancel := func() {
		s.watchMu.Lock()
		defer s.watchMu.Unlock()
		delete(s.watchers[projectID], id)
		if len(s.watchers[projectID]) == 0 {
			delete(s.watchers, projectID)
		}
	}
	return ch, cancel
}

func (s *Store) notify(projectID types.ItemID) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers[projectID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// state returns the keyState for a project, creating it if needed.
// Caller must hold s.mu.
func (s *Store) state(projectID types.ItemID) *keyState {
	st, ok := s.states[projectID]
	if !ok {
		st = &keyState{}
		s.states[projectID] = st
	}
	return st
}
