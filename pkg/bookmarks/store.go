// Package bookmarks persists the user's bookmarked course ids as an
// ordered set under a single storage key.
package bookmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coursedeck/catalog-client/pkg/store"
)

// StorageKey is the single key the bookmark set lives under, disjoint
// from the cache namespace.
const StorageKey = "courseBookmarks"

// Transition reports which way a Toggle flipped membership.
type Transition int

const (
	// Added means the id was absent and is now bookmarked.
	Added Transition = iota

	// Removed means the id was bookmarked and no longer is.
	Removed
)

// String returns the user-facing name of the transition.
func (t Transition) String() string {
	if t == Added {
		return "added"
	}
	return "removed"
}

// Store holds the bookmark set. Toggles are serialized; the per-item
// loading marker exists only so a UI can disable the control during a
// toggle, it is not a concurrency lock.
type Store struct {
	store  store.Store
	logger zerolog.Logger

	// toggleMu serializes toggles so persisted sets never interleave.
	toggleMu sync.Mutex

	mu        sync.Mutex
	ids       []string
	loadingID string
}

// NewStore creates a bookmark store over the given storage handle.
func NewStore(s store.Store) *Store {
	if s == nil {
		panic("store cannot be nil")
	}
	return &Store{
		store:  s,
		logger: log.With().Str("component", "bookmarks").Logger(),
	}
}

// Load reads the persisted set. A missing key starts empty; a corrupt
// value is discarded and starts empty rather than propagating.
func (b *Store) Load(ctx context.Context) error {
	data, err := b.store.Get(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load bookmarks: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		b.logger.Warn().Err(err).Msg("Discarding corrupt bookmark data")
		return nil
	}

	b.mu.Lock()
	b.ids = dedupe(ids)
	b.mu.Unlock()
	return nil
}

// Toggle flips membership for id, persists the full updated set, and
// reports which transition occurred. Toggling twice with no
// interleaving toggle restores the original membership.
func (b *Store) Toggle(ctx context.Context, id string) (Transition, error) {
	if id == "" {
		return Added, fmt.Errorf("course id is required")
	}

	b.toggleMu.Lock()
	defer b.toggleMu.Unlock()

	// The state mutex is released around the store write so LoadingID
	// stays observable while the I/O is in flight.
	b.mu.Lock()
	b.loadingID = id
	transition := Added
	next := make([]string, 0, len(b.ids)+1)
	for _, existing := range b.ids {
		if existing == id {
			transition = Removed
			continue
		}
		next = append(next, existing)
	}
	if transition == Added {
		next = append(next, id)
	}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.loadingID = ""
		b.mu.Unlock()
	}()

	data, err := json.Marshal(next)
	if err != nil {
		return transition, fmt.Errorf("marshal bookmarks: %w", err)
	}
	if err := b.store.Set(ctx, StorageKey, data); err != nil {
		return transition, fmt.Errorf("persist bookmarks: %w", err)
	}

	b.mu.Lock()
	b.ids = next
	b.mu.Unlock()

	b.logger.Debug().
		Str("course_id", id).
		Str("transition", transition.String()).
		Int("total", len(next)).
		Msg("Toggled bookmark")

	return transition, nil
}

// IsBookmarked reports membership for id.
func (b *Store) IsBookmarked(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.ids {
		if existing == id {
			return true
		}
	}
	return false
}

// List returns the bookmarked ids in insertion order.
func (b *Store) List() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.ids))
	copy(out, b.ids)
	return out
}

// LoadingID returns the id whose toggle is in flight, or "".
func (b *Store) LoadingID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadingID
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
