// Package metadata stores small key/value pairs in the local database,
// primarily the persisted session token pair that survives restarts.
package metadata

import "context"

type Repository interface {
	// Get returns the stored value, or "" when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
