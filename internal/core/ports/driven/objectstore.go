package driven

import "context"

// ObjectStore is the external bucket holding synced chunks. Put has
// overwrite-on-put semantics; Delete of a nonexistent key is not an
// error.
type ObjectStore interface {
	// Put uploads an object under key.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Delete removes an object. Idempotent.
	Delete(ctx context.Context, key string) error

	// List returns the keys under prefix. An empty prefix lists the
	// whole bucket.
	List(ctx context.Context, prefix string) ([]string, error)

	// Head reports whether an object (or, for an empty key, the
	// bucket itself) exists.
	Head(ctx context.Context, key string) (bool, error)

	// CreateBucket creates the configured bucket. Creating a bucket
	// that already exists is not an error.
	CreateBucket(ctx context.Context) error
}
