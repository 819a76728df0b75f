package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/userdeck/userdeck/internal/query"
	"github.com/userdeck/userdeck/internal/remote"
	"github.com/userdeck/userdeck/internal/store"
	"github.com/userdeck/userdeck/internal/types"
)

// DefaultRemoteIDCeiling is the highest user id the deployed remote
// actually stores. Updates for ids above it are applied locally only,
// since the remote is known to silently drop them.
const DefaultRemoteIDCeiling = 10

// KeyUsers is the status key for the list fetch call site.
func KeyUsers() string { return "users" }

// KeyUser is the status key for a point fetch call site.
func KeyUser(id int) string { return fmt.Sprintf("user/%d", id) }

// KeyPosts is the status key for a posts fetch call site.
func KeyPosts(id int) string { return fmt.Sprintf("posts/%d", id) }

// Config holds orchestrator configuration.
type Config struct {
	// RemoteIDCeiling is the highest id the remote durably stores
	// (default: DefaultRemoteIDCeiling).
	RemoteIDCeiling int

	// Logger for orchestrator activity (default: stderr logger).
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RemoteIDCeiling: DefaultRemoteIDCeiling,
		Logger:          log.New(os.Stderr, "[sync] ", log.LstdFlags),
	}
}

// Orchestrator mediates between the store/query pair and the gateway.
type Orchestrator struct {
	store   *store.Store
	query   *query.Query
	gateway Gateway
	ceiling int
	logger  *log.Logger

	// flight coalesces concurrent identical fetches: two simultaneous
	// misses on the same key share one remote call.
	flight singleflight.Group

	statusMu sync.Mutex
	status   map[string]string
}

// New creates an orchestrator. A nil config uses defaults.
func New(st *store.Store, q *query.Query, gw Gateway, config *Config) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.RemoteIDCeiling == 0 {
		config.RemoteIDCeiling = DefaultRemoteIDCeiling
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Orchestrator{
		store:   st,
		query:   q,
		gateway: gw,
		ceiling: config.RemoteIDCeiling,
		logger:  config.Logger,
		status:  make(map[string]string),
	}
}

// Status returns the last failure message recorded for a call-site
// key, if any. A successful call clears its key.
func (o *Orchestrator) Status(key string) (string, bool) {
	o.statusMu.Lock()
	defer o.statusMu.Unlock()
	msg, ok := o.status[key]
	return msg, ok
}

func (o *Orchestrator) setStatus(key, msg string) {
	o.statusMu.Lock()
	o.status[key] = msg
	o.statusMu.Unlock()
}

func (o *Orchestrator) clearStatus(key string) {
	o.statusMu.Lock()
	delete(o.status, key)
	o.statusMu.Unlock()
}

// fetchOrCached is the single cache-or-fetch policy shared by all read
// paths. cached reports the stored value and whether it counts as a
// hit; on a miss, fetch is called (coalesced per key), its result is
// handed to reconcile, and the value is returned. On failure the store
// is left untouched, failMsg is recorded under key, and the zero value
// is returned with ok=false.
func fetchOrCached[T any](
	o *Orchestrator,
	ctx context.Context,
	key string,
	cached func() (T, bool),
	fetch func(context.Context) (T, error),
	reconcile func(T),
	failMsg func(error) string,
) (T, bool) {
	if v, hit := cached(); hit {
		o.clearStatus(key)
		return v, true
	}

	res, err, _ := o.flight.Do(key, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		reconcile(v)
		return v, nil
	})
	if err != nil {
		msg := failMsg(err)
		o.logger.Printf("%s: %v", msg, err)
		o.setStatus(key, msg)
		var zero T
		return zero, false
	}

	o.clearStatus(key)
	return res.(T), true
}

// UsersList returns the user collection: the stored one when the cache
// is warm, otherwise the remote list reconciled into the store. On
// remote failure it returns an empty collection and records the
// failure under KeyUsers; the store is left untouched.
func (o *Orchestrator) UsersList(ctx context.Context) []types.User {
	users, ok := fetchOrCached(o, ctx, KeyUsers(),
		func() ([]types.User, bool) {
			u := o.query.Users()
			return u, len(u) > 0
		},
		o.gateway.FetchUsers,
		o.store.SetUsers,
		func(error) string { return "failed to load users from remote" },
	)
	if !ok {
		return []types.User{}
	}
	return users
}

// UserByID returns the user with the given id: from the stored
// collection when present, otherwise fetched from the gateway and
// recorded as most recently viewed. The fetched user is not added to
// the users collection: a non-empty collection is what marks the list
// cache warm, and only a full list fetch may warm it.
// Absence of a value is the error-recovered terminal state, not
// "loading": on failure ok=false is returned and the status under
// KeyUser(id) explains why.
func (o *Orchestrator) UserByID(ctx context.Context, id int) (types.User, bool) {
	return fetchOrCached(o, ctx, KeyUser(id),
		func() (types.User, bool) {
			return o.query.UserByID(id)
		},
		func(ctx context.Context) (types.User, error) {
			return o.gateway.FetchUser(ctx, id)
		},
		o.store.SetSelectedUser,
		func(err error) string {
			if errors.Is(err, remote.ErrNotFound) {
				return fmt.Sprintf("user %d not found on remote", id)
			}
			return fmt.Sprintf("failed to load user %d from remote", id)
		},
	)
}

// UserPosts returns the posts for a user id, cache-or-fetch keyed on a
// non-empty cached post list. On failure it returns an empty list and
// records the failure under KeyPosts(id).
func (o *Orchestrator) UserPosts(ctx context.Context, userID int) []types.Post {
	posts, ok := fetchOrCached(o, ctx, KeyPosts(userID),
		func() ([]types.Post, bool) {
			p := o.query.PostsByUser(userID)
			return p, len(p) > 0
		},
		func(ctx context.Context) ([]types.Post, error) {
			return o.gateway.FetchPosts(ctx, userID)
		},
		func(p []types.Post) {
			o.store.SetPostsForUser(userID, p)
		},
		func(error) string {
			return fmt.Sprintf("failed to load posts for user %d from remote", userID)
		},
	)
	if !ok {
		return []types.Post{}
	}
	return posts
}

// UpdateUser applies a full-field replacement for an existing user.
//
// Ids within the remote's seed range round-trip through the gateway
// and the gateway's response is what lands in the store. Ids beyond
// the range belong to locally created users the remote would drop, so
// the store is mutated directly with no remote call.
//
// Unlike the read paths, a gateway failure here is returned to the
// caller and leaves the store untouched.
func (o *Orchestrator) UpdateUser(ctx context.Context, u types.User) (types.User, error) {
	if u.ID <= o.ceiling {
		updated, err := o.gateway.PutUser(ctx, u)
		if err != nil {
			return types.User{}, fmt.Errorf("failed to update user %d on remote: %w", u.ID, err)
		}
		o.store.UpdateUser(updated)
		return updated, nil
	}

	o.store.UpdateUser(u)
	return u, nil
}

// AddUser creates a user. The gateway is called for the create, but
// its echoed id is discarded: the store allocates max(existing ids)+1
// (or 1 for an empty collection) atomically and that id is
// authoritative. Returns the stored user.
//
// A gateway failure is returned to the caller; the store is untouched.
func (o *Orchestrator) AddUser(ctx context.Context, u types.User) (types.User, error) {
	echoed, err := o.gateway.PostUser(ctx, u)
	if err != nil {
		return types.User{}, fmt.Errorf("failed to create user on remote: %w", err)
	}

	// The remote always echoes a fixed id; keep its field values but
	// let the store assign identity.
	stored := o.store.AddUserAllocatingID(echoed)
	o.logger.Printf("Created user %d (remote echoed id %d, discarded)", stored.ID, echoed.ID)
	return stored, nil
}

// WatchUsers returns a live subscription to the users collection. The
// channel receives the current collection immediately and again after
// every store mutation.
func (o *Orchestrator) WatchUsers() *query.Sub[[]types.User] {
	return query.Watch(o.query, func(s types.Snapshot) []types.User {
		return s.Users
	})
}
