// Package cache provides the time-boxed persistent cache for course
// collection queries.
//
// Entries are addressed by a deterministic fingerprint derived from a
// query's normalized fields and stored as JSON {data, timestamp}
// values in an injected store.Store. An entry is valid while its age
// is below the fixed TTL; expired and corrupt entries are purged
// lazily before reads rather than by a background scheduler.
//
// The manager distinguishes "valid" from "present-but-expired": an
// expired entry is still returned (flagged stale) so the fetch layer
// can serve it as a best-effort fallback when the network fails.
//
// Example:
//
//	mgr := cache.NewManager(st)
//	key := cache.Fingerprint(catalog.Query{Page: 1, PageSize: 6})
//
//	entry, valid, err := mgr.Get(ctx, key)
//	if err == nil && valid {
//		items, _ := entry.Items()
//		// serve from cache, skip the network
//	}
package cache
