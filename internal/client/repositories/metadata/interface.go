// Package metadata stores small client-side key/value records, such as the
// persisted session token and the serialized user identity.
package metadata

import (
	"context"
	"time"
)

// Record is a stored value together with the time it was last written.
type Record struct {
	Value     []byte
	UpdatedAt time.Time
}

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string]Record, error)
}
