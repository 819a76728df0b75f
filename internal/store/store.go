// Package store owns the canonical in-memory cache state.
//
// The store holds one Snapshot behind a write lock. Every mutation is
// applied as clone-mutate-swap, written through to durable storage
// before the lock is released (so persisted order always matches
// in-memory order), and then broadcast to subscribers.
package store

import (
	"log"
	"os"
	"sync"

	"github.com/userdeck/userdeck/internal/types"
)

// Persister is the durable storage contract the store writes through
// to. Implemented by *storage.Store.
type Persister interface {
	// Load returns the persisted snapshot, ok=false when none exists.
	Load() (types.Snapshot, bool)
	// Save overwrites the persisted snapshot.
	Save(types.Snapshot) error
}

// subBufferSize bounds each subscriber channel. When a consumer lags,
// the oldest buffered snapshot is dropped so the consumer always
// converges on the latest state without ever blocking a mutation.
const subBufferSize = 16

// Store is the single owner of the mutable snapshot.
type Store struct {
	mu        sync.RWMutex
	snap      types.Snapshot
	hydrated  bool
	persister Persister
	logger    *log.Logger

	subsMu sync.Mutex
	subs   map[int]chan types.Snapshot
	nextID int
}

// New creates a store with the empty initial snapshot.
//
// The store does not hydrate itself; hydration is triggered by the
// query layer at construction (see query.New), matching the
// read-through-on-init contract.
//
// If logger is nil, a default logger writing to stderr is used.
func New(p Persister, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}
	return &Store{
		snap:      types.NewSnapshot(),
		persister: p,
		logger:    logger,
		subs:      make(map[int]chan types.Snapshot),
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// HydrateIfEmpty performs the one-time load from durable storage.
// It is a no-op once the store has hydrated or has been mutated.
// Returns true when a persisted snapshot was applied.
func (s *Store) HydrateIfEmpty() bool {
	s.mu.Lock()
	if s.hydrated || !s.snap.IsEmpty() {
		s.mu.Unlock()
		return false
	}
	s.hydrated = true
	snap, ok := s.persister.Load()
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.snap = snap
	out := snap.Clone()
	s.mu.Unlock()

	s.notify(out)
	return true
}

// Rehydrate force-reloads the snapshot from durable storage, replacing
// the in-memory state. Used by the watch daemon when another process
// has written the backing file. The reloaded state is not re-persisted.
func (s *Store) Rehydrate() {
	snap, ok := s.persister.Load()
	if !ok {
		return
	}

	s.mu.Lock()
	s.hydrated = true
	s.snap = snap
	out := snap.Clone()
	s.mu.Unlock()

	s.notify(out)
}

// SetUsers replaces the users collection wholesale.
func (s *Store) SetUsers(users []types.User) {
	s.apply(func(snap *types.Snapshot) {
		snap.Users = make([]types.User, len(users))
		copy(snap.Users, users)
	})
}

// SetSelectedUser records the most recently viewed user. This is a
// side-channel cache, not authoritative for list membership.
func (s *Store) SetSelectedUser(u types.User) {
	s.apply(func(snap *types.Snapshot) {
		cp := u
		snap.SelectedUser = &cp
	})
}

// UpdateUser replaces the entry whose id matches. When no entry
// matches, the store is left unchanged: update never inserts. The
// no-op still counts as a mutation-free call, so nothing is persisted
// or broadcast in that case.
func (s *Store) UpdateUser(u types.User) {
	s.applyIf(func(snap *types.Snapshot) bool {
		for i := range snap.Users {
			if snap.Users[i].ID == u.ID {
				snap.Users[i] = u
				return true
			}
		}
		return false
	})
}

// AddUser appends the user unless an entry with the same id already
// exists, in which case it is a no-op (idempotent add).
func (s *Store) AddUser(u types.User) {
	s.applyIf(func(snap *types.Snapshot) bool {
		if _, exists := snap.UserByID(u.ID); exists {
			return false
		}
		snap.Users = append(snap.Users, u)
		return true
	})
}

// AddUserAllocatingID appends the user under a freshly allocated id:
// max(existing ids)+1, or 1 when the collection is empty. Allocation
// and append happen under the same write lock, so concurrent creates
// can never receive the same id. Returns the stored user.
func (s *Store) AddUserAllocatingID(u types.User) types.User {
	var stored types.User
	s.apply(func(snap *types.Snapshot) {
		u.ID = snap.MaxUserID() + 1
		snap.Users = append(snap.Users, u)
		stored = u
	})
	return stored
}

// SetPostsForUser replaces the post list for the given user id.
func (s *Store) SetPostsForUser(userID int, posts []types.Post) {
	s.apply(func(snap *types.Snapshot) {
		cp := make([]types.Post, len(posts))
		copy(cp, posts)
		snap.PostsByUserID[userID] = cp
	})
}

// apply runs an unconditional mutation.
func (s *Store) apply(mutate func(*types.Snapshot)) {
	s.applyIf(func(snap *types.Snapshot) bool {
		mutate(snap)
		return true
	})
}

// applyIf runs mutate against a clone of the snapshot. When mutate
// reports a change, the clone is swapped in and persisted while the
// write lock is held, then broadcast after release.
func (s *Store) applyIf(mutate func(*types.Snapshot) bool) {
	s.mu.Lock()
	next := s.snap.Clone()
	if !mutate(&next) {
		s.mu.Unlock()
		return
	}
	s.snap = next
	s.hydrated = true
	out := next.Clone()
	if err := s.persister.Save(out); err != nil {
		// Keep the in-memory mutation; the next successful save
		// re-persists the full snapshot anyway.
		s.logger.Printf("Warning: failed to persist snapshot: %v", err)
	}
	s.mu.Unlock()

	s.notify(out)
}

// Subscribe registers a snapshot listener. The returned channel does
// NOT receive the current value; it receives a snapshot after every
// subsequent mutation (the query layer prepends the current value for
// its subscribers). The cancel func must be called to release the
// subscription.
func (s *Store) Subscribe() (<-chan types.Snapshot, func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan types.Snapshot, subBufferSize)
	s.subs[id] = ch
	s.subsMu.Unlock()

	cancel := func() {
		s.subsMu.Lock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
		s.subsMu.Unlock()
	}
	return ch, cancel
}

// notify fans a snapshot out to all subscribers, dropping the oldest
// buffered value for any subscriber whose channel is full.
func (s *Store) notify(snap types.Snapshot) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Full: drop the oldest value, then push the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
