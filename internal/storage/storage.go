package storage

import "context"

// ObjectStore is the durable store for certificate artifacts and versioned
// templates. Implementations must give Put unconditional overwrite
// semantics: regenerating an artifact under the same key replaces it.
type ObjectStore interface {
	// EnsureBucket creates the backing bucket when it does not exist.
	EnsureBucket(ctx context.Context) error
	// Put uploads data under key with the given content type. Certificate
	// uploads disable caching so a regenerated artifact is immediately
	// visible.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get retrieves an object by key.
	Get(ctx context.Context, key string) ([]byte, error)
	// PublicURL returns the publicly resolvable URL for a stored object.
	PublicURL(key string) string
	// Ping checks connectivity to the store.
	Ping(ctx context.Context) error
}
