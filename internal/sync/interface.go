// Package sync implements the cache-or-fetch orchestration between the
// entity store and the remote user directory API.
//
// All three read paths (user list, single user, posts) follow one
// policy: serve from the store when the cached value is present,
// otherwise fetch from the gateway, reconcile the result into the
// store, and return it. Remote failures never escape a read path; they
// degrade to an empty result plus a human-readable status message in a
// side channel the UI can observe.
//
// Write paths follow the remote's known behavior instead of its
// interface: updates for ids within the seed range round-trip through
// the gateway, updates beyond it (locally created users the remote
// would silently drop) mutate the store directly, and creates discard
// the remote's echoed id in favor of a locally allocated one.
package sync

import (
	"context"

	"github.com/userdeck/userdeck/internal/types"
)

// Gateway is the remote API surface the orchestrator consumes.
// Implemented by *remote.Client.
//
// The orchestrator treats the gateway as unreliable: any call may fail
// (RemoteUnavailable), and PostUser's response id must not be trusted.
type Gateway interface {
	// FetchUsers retrieves the full user list.
	FetchUsers(ctx context.Context) ([]types.User, error)

	// FetchUser retrieves a single user by id.
	FetchUser(ctx context.Context, id int) (types.User, error)

	// FetchPosts retrieves the posts owned by a user.
	FetchPosts(ctx context.Context, userID int) ([]types.Post, error)

	// PutUser sends a full-replacement update.
	PutUser(ctx context.Context, u types.User) (types.User, error)

	// PostUser creates a user remotely. The response id is the
	// remote's allocation and is unreliable.
	PostUser(ctx context.Context, u types.User) (types.User, error)
}
