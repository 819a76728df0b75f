// Package query provides the read-only reactive view over the entity
// store: synchronous point lookups against the current snapshot plus
// push-updated subscriptions over derived slices of it.
package query

import (
	"github.com/userdeck/userdeck/internal/store"
	"github.com/userdeck/userdeck/internal/types"
)

// Query is a read-only projection of a store.
type Query struct {
	store *store.Store
}

// New creates a query layer over the given store.
//
// Construction triggers the one-time hydration from durable storage if
// the in-memory snapshot is still at its empty default, so the first
// reader of a fresh process sees persisted state without any remote
// call.
func New(s *store.Store) *Query {
	q := &Query{store: s}
	s.HydrateIfEmpty()
	return q
}

// Snapshot returns a deep copy of the current state.
func (q *Query) Snapshot() types.Snapshot {
	return q.store.Snapshot()
}

// Users returns the current users collection.
func (q *Query) Users() []types.User {
	return q.store.Snapshot().Users
}

// UserByID looks up a user in the current snapshot.
func (q *Query) UserByID(id int) (types.User, bool) {
	return q.store.Snapshot().UserByID(id)
}

// SelectedUser returns the most recently viewed user, if any.
func (q *Query) SelectedUser() (types.User, bool) {
	snap := q.store.Snapshot()
	if snap.SelectedUser == nil {
		return types.User{}, false
	}
	return *snap.SelectedUser, true
}

// PostsByUser returns the cached posts for a user id. The result is
// never nil: an id with no cached posts yields an empty slice.
func (q *Query) PostsByUser(id int) []types.Post {
	posts := q.store.Snapshot().PostsByUserID[id]
	if posts == nil {
		return []types.Post{}
	}
	return posts
}

// Sub is a live subscription to a derived slice of the snapshot.
type Sub[T any] struct {
	// C receives the current value immediately on subscription and a
	// new value after every subsequent store mutation. Values are not
	// deduplicated.
	C <-chan T

	cancel func()
	done   chan struct{}
}

// Close releases the subscription and closes C.
func (s *Sub[T]) Close() {
	s.cancel()
	<-s.done
}

// Watch subscribes to a derived view of the snapshot. The selector is
// applied to the current snapshot (emitted immediately) and to every
// snapshot produced by a mutation.
func Watch[T any](q *Query, selector func(types.Snapshot) T) *Sub[T] {
	snaps, cancel := q.store.Subscribe()
	out := make(chan T, 1)
	done := make(chan struct{})

	// Initial emission reflects the state at subscription time.
	out <- selector(q.store.Snapshot())

	go func() {
		defer close(done)
		defer close(out)
		for snap := range snaps {
			select {
			case out <- selector(snap):
			default:
				// Consumer lags: replace the pending value so it
				// converges on the latest state.
				select {
				case <-out:
				default:
				}
				select {
				case out <- selector(snap):
				default:
				}
			}
		}
	}()

	return &Sub[T]{C: out, cancel: cancel, done: done}
}
