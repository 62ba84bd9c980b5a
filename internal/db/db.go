package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	KVStore
	VectorSetStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// VectorSetStore provides vector set operations.
type VectorSetStore interface {
	// VGetAttrBatch returns the attribute JSON of every element in one round trip.
	// Elements without attributes yield nil at their position.
	VGetAttrBatch(ctx context.Context, key string, elements []string) ([]*string, error)
	VSetAttr(ctx context.Context, key, element, attrs string) error
	// VInfoBatch describes every key inside a single MULTI/EXEC.
	VInfoBatch(ctx context.Context, keys []string) ([]VInfo, error)
	VSim(ctx context.Context, q *SimilarityQuery) ([]SimilarityHit, error)
}
