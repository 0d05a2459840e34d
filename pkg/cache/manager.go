package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coursedeck/catalog-client/pkg/store"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// Manager handles caching operations over an injected store handle.
type Manager struct {
	store  store.Store
	logger zerolog.Logger
}

// NewManager creates a new cache manager.
func NewManager(s store.Store) *Manager {
	if s == nil {
		panic("store cannot be nil")
	}
	return &Manager{
		store:  s,
		logger: log.With().Str("component", "catalog-cache").Logger(),
	}
}

// Get retrieves the entry for key and reports whether it is still
// valid. Expired entries are returned with valid=false so the caller
// can hold them as fallback; the returned copy stays usable even after
// a purge removes the stored one. A corrupt entry is deleted and
// reported as a miss.
func (m *Manager) Get(ctx context.Context, key string) (*Entry, bool, error) {
	data, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			CacheMisses.Inc()
			return nil, false, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, false, fmt.Errorf("store get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt entries are never surfaced; treat as absent.
		_ = m.Delete(ctx, key)
		CachePurged.WithLabelValues("corrupt").Inc()
		CacheMisses.Inc()
		m.logger.Warn().Str("key", key).Err(err).Msg("Deleted corrupt cache entry")
		return nil, false, ErrCacheMiss
	}

	if entry.IsExpired() {
		CacheHits.WithLabelValues("stale").Inc()
		return &entry, false, nil
	}

	CacheHits.WithLabelValues("valid").Inc()
	m.logger.Debug().
		Str("key", key).
		Dur("age", entry.Age()).
		Msg("Cache hit")

	return &entry, true, nil
}

// Put stores payload under key with the current timestamp.
func (m *Manager) Put(ctx context.Context, key string, payload interface{}) error {
	entry, err := newEntry(payload)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache payload: %w", err)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.store.Set(ctx, key, data); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("store set: %w", err)
	}

	m.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("Cached payload")
	return nil
}

// Delete removes a cache entry.
func (m *Manager) Delete(ctx context.Context, key string) error {
	if err := m.store.Delete(ctx, key); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("store delete: %w", err)
	}
	return nil
}

// PurgeExpired scans every entry under the cache prefix and removes
// those whose age has reached the TTL or whose payload fails to
// deserialize. It is invoked opportunistically around reads; there is
// no background scheduler. Returns the number of entries removed.
func (m *Manager) PurgeExpired(ctx context.Context) (int, error) {
	keys, err := m.store.Scan(ctx, Prefix)
	if err != nil {
		CacheErrors.WithLabelValues("scan").Inc()
		return 0, fmt.Errorf("store scan: %w", err)
	}

	purged := 0
	for _, key := range keys {
		data, err := m.store.Get(ctx, key)
		if err != nil {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			if m.Delete(ctx, key) == nil {
				CachePurged.WithLabelValues("corrupt").Inc()
				purged++
			}
			continue
		}

		if entry.IsExpired() {
			if m.Delete(ctx, key) == nil {
				CachePurged.WithLabelValues("expired").Inc()
				purged++
			}
		}
	}

	if purged > 0 {
		m.logger.Debug().Int("purged", purged).Msg("Purged cache entries")
	}
	return purged, nil
}
