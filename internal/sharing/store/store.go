// Package store persists sharing preferences and the append-only sharing
// history. Preferences are upserted on (user, recipient) and soft-deleted.
package store

import "trustverify/pkg/platform/sentinel"

// ErrNotFound is returned when no active preference matches.
var ErrNotFound = sentinel.ErrNotFound
