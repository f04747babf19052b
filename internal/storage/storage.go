// Package storage provides the key-value blob port the account store and
// usage tracker persist through. Each record lives under its own fixed key
// as a JSON-encoded blob, so the core stays storage-backend-agnostic.
package storage

import (
	"context"
)

// Fixed storage keys. The three records are independent; no component shares
// mutable state with another except through these blobs.
const (
	SessionKey    = "deepguard_auth"
	AccountsKey   = "deepguard_users"
	DetectionsKey = "deepguard_detections"
)

type Store interface {
	// Get returns the blob stored under key. The second return value is
	// false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
