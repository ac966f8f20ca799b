// Package storage abstracts the persistent key-value store the engine keeps
// per-user state in. Implementations exist for Redis (production), an
// in-memory map (tests), and a caching decorator that serves last-known
// values when the backend is unavailable.
package storage

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when none of the requested fields exist.
var ErrNotFound = errors.New("storage: not found")

// Record is a set of named fields with JSON-encoded values. A partial Record
// passed to Set patches only the named fields; it never clears others.
type Record map[string]json.RawMessage

// KV is the narrow contract the engine consumes. Fields are scoped per user.
// Subscribe delivers patches applied by any writer, which is how concurrent
// tabs of the presentation layer observe each other; delivery is best-effort.
type KV interface {
	// Get returns the requested fields. Missing fields are simply absent
	// from the result; Get only errors on backend failure.
	Get(ctx context.Context, userID string, fields ...string) (Record, error)

	// Set patches the given fields for the user.
	Set(ctx context.Context, userID string, patch Record) error

	// Subscribe registers a callback invoked with every patch applied for
	// the user. The returned function cancels the subscription.
	Subscribe(ctx context.Context, userID string, fn func(Record)) (func(), error)
}

// Marshal encodes v as a field value. It panics only on types that cannot be
// JSON-encoded, which is a programming error for our state models.
func Marshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// Unmarshal decodes a field value into v. A missing (nil) value leaves v
// untouched so callers keep their zero-value defaults.
func Unmarshal(raw json.RawMessage, v interface{}) error {
	if raw == nil {
		return nil
	}
	return json.Unmarshal(raw, v)
}
