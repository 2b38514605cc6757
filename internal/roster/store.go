package roster

import "context"

// StorageKey is the key the team is stored under.
const StorageKey = "team"

// Store is the scoped key/value persistence the manager writes through to.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
