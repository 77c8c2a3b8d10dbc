package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("storage: not found")
	ErrClosed   = errors.New("storage: store closed")
)

const (
	KeyTasks            = "tasks"
	KeyDailyHistory     = "dailyHistory"
	KeyBadgeEnabled     = "badgeEnabled"
	KeyLastReviewedDate = "lastReviewedDate"
)

// Change is published once per key written. NewValue is nil when the key was removed.
type Change struct {
	Key      string
	NewValue []byte
}

// Store is a small key-value store with values kept as opaque blobs.
//
// Every successful Set publishes a Change per key to all subscribers. Delivery is
// latest-write-wins with no acknowledgement: a subscriber that does not keep up loses changes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, values map[string][]byte) error
	Subscribe(buffer int) (<-chan Change, func())
}
