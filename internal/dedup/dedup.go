// Package dedup provides the durable per-firing delivery record that
// yields the at-most-once recorded delivery guarantee.
package dedup

import "context"

// Store records delivered (subscriber, job, trigger) keys. The mark must
// be atomic per key and survive a process restart within the firing
// window.
type Store interface {
	// Seen reports whether the key is already marked delivered.
	Seen(ctx context.Context, key string) (bool, error)
	// MarkIfAbsent marks the key delivered and reports whether this call
	// performed the first mark.
	MarkIfAbsent(ctx context.Context, key string) (bool, error)
	Close() error
}
