package settings

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("setting not found")

// Keys under which the host integration reports itself. They are read by
// diagnostics outside of this module.
const (
	SourceKey        = "com.qonversion.keys.source"
	SourceVersionKey = "com.qonversion.keys.sourceVersion"
)

// Store is process-durable string key/value storage.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}
