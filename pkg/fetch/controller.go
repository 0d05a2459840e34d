// Package fetch orchestrates the current catalog query: debounced
// query changes, cursor-style pagination, cancellation of superseded
// requests, and cache consultation with stale fallback.
package fetch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coursedeck/catalog-client/pkg/cache"
	"github.com/coursedeck/catalog-client/pkg/catalog"
)

// Lister is the remote collection boundary the controller fetches
// pages through.
type Lister interface {
	List(ctx context.Context, q catalog.Query) ([]catalog.Item, error)
}

// Config holds controller configuration.
type Config struct {
	// PageSize is fixed for the session.
	PageSize int

	// Debounce is the quiet window after the last SetQuery call before
	// a fetch fires.
	Debounce time.Duration
}

// DefaultConfig returns the standard controller configuration.
func DefaultConfig() Config {
	return Config{
		PageSize: 6,
		Debounce: 500 * time.Millisecond,
	}
}

// Snapshot is the stable consumer-facing view of the fetch state.
type Snapshot struct {
	Items   []catalog.Item
	Loading bool
	Err     error
	Page    int
	HasMore bool
}

// Controller owns the fetch state for one logical "current query".
// At most one request is ever current: a newer SetQuery or Refresh
// cancels the older in-flight request, and a superseded request's
// eventual resolution never mutates state.
type Controller struct {
	client Lister
	cache  *cache.Manager
	config Config
	logger zerolog.Logger

	mu       sync.Mutex
	items    []catalog.Item
	loading  bool
	err      error
	page     int
	hasMore  bool
	search   string
	category string

	pendingSearch   string
	pendingCategory string
	debounce        *time.Timer

	// inFlight is the reentrancy sentinel; gen orphans superseded
	// requests so their results are discarded on arrival.
	inFlight bool
	gen      uint64
	cancel   context.CancelFunc
	closed   bool
}

// NewController creates a controller over the given collection client
// and cache manager. The cache manager may be nil to disable caching.
func NewController(client Lister, cacheMgr *cache.Manager, cfg Config) *Controller {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 6
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	return &Controller{
		client:  client,
		cache:   cacheMgr,
		config:  cfg,
		logger:  log.With().Str("component", "fetch-controller").Logger(),
		page:    1,
		hasMore: true,
	}
}

// SetQuery updates the search term and category filter and schedules a
// debounced re-fetch at page 1. Only the last call within the quiet
// window fires; intermediate calls are discarded entirely. The pseudo
// category "All" is treated as "no filter".
func (c *Controller) SetQuery(search, category string) {
	if strings.EqualFold(strings.TrimSpace(category), "all") {
		category = ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.pendingSearch = search
	c.pendingCategory = category
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(c.config.Debounce, c.commitQuery)
}

// commitQuery fires when the debounce window settles.
func (c *Controller) commitQuery() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.search = c.pendingSearch
	c.category = c.pendingCategory
	c.hasMore = true
	c.mu.Unlock()

	c.start(1, false, true)
}

// Refresh immediately fetches page 1 of the committed query, cancelling
// any in-flight request. It doubles as the user-facing retry action
// after a first-page failure.
func (c *Controller) Refresh() {
	c.start(1, false, true)
}

// LoadNextPage requests the page after the current one, appending
// results. It is a no-op while a request is loading or when no more
// pages are believed to exist.
func (c *Controller) LoadNextPage() {
	c.mu.Lock()
	if c.closed || c.loading || !c.hasMore {
		c.mu.Unlock()
		return
	}
	page := c.page + 1
	c.mu.Unlock()

	c.start(page, true, false)
}

// Snapshot returns a copy of the current fetch state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]catalog.Item, len(c.items))
	copy(items, c.items)
	return Snapshot{
		Items:   items,
		Loading: c.loading,
		Err:     c.err,
		Page:    c.page,
		HasMore: c.hasMore,
	}
}

// Query returns the committed search term and category.
func (c *Controller) Query() (search, category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search, c.category
}

// Close cancels any in-flight request and any pending debounced fetch.
// A pending debounce must never fire after its context is gone.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// start launches one logical fetch. supersede cancels whatever is in
// flight first; without it the in-flight sentinel makes concurrent
// triggers (rapid scroll events) a no-op. The sentinel is independent
// of cancellation: cancellation handles "supersede", the sentinel
// handles reentrancy.
func (c *Controller) start(page int, isLoadMore, supersede bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if supersede && c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.inFlight = false
		c.gen++
	}
	if c.inFlight {
		c.mu.Unlock()
		return
	}
	if isLoadMore && !c.hasMore {
		c.mu.Unlock()
		return
	}

	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.inFlight = true
	c.loading = true
	if !isLoadMore {
		// A fresh query replaces the stale display immediately, not
		// after the network responds.
		c.items = nil
		c.err = nil
	}
	q := catalog.Query{
		Page:     page,
		PageSize: c.config.PageSize,
		Search:   c.search,
		Category: c.category,
	}
	c.mu.Unlock()

	go c.run(ctx, gen, q, isLoadMore)
}

// run resolves one request: cache first, network second, stale cache
// as fallback on genuine failure.
func (c *Controller) run(ctx context.Context, gen uint64, q catalog.Query, isLoadMore bool) {
	key := cache.Fingerprint(q)

	var stale *cache.Entry
	if c.cache != nil {
		if entry, valid, err := c.cache.Get(ctx, key); err == nil {
			if valid {
				if items, derr := entry.Items(); derr == nil {
					c.logger.Debug().Str("key", key).Msg("Serving page from cache")
					c.complete(gen, q, items, nil, nil, isLoadMore)
					return
				}
			} else {
				// Held for the failure fallback; the purge below may
				// remove the stored copy but this one survives.
				stale = entry
			}
		}
		_, _ = c.cache.PurgeExpired(ctx)
	}

	items, err := c.client.List(ctx, q)
	if err == nil && c.cache != nil {
		if perr := c.cache.Put(ctx, key, items); perr != nil {
			c.logger.Warn().Err(perr).Str("key", key).Msg("Failed to cache page")
		}
	}

	c.complete(gen, q, items, stale, err, isLoadMore)
}

// complete applies a request's outcome, unless the request has been
// superseded in the meantime.
func (c *Controller) complete(gen uint64, q catalog.Query, items []catalog.Item, stale *cache.Entry, err error, isLoadMore bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		// Superseded or torn down: the result is discarded without
		// touching state.
		return
	}

	c.inFlight = false
	c.loading = false
	c.cancel = nil

	if err != nil {
		if catalog.IsCancelled(err) {
			return
		}

		c.err = err
		c.logger.Warn().
			Err(err).
			Int("page", q.Page).
			Bool("load_more", isLoadMore).
			Msg("Fetch failed")

		// Best-effort degradation: show possibly stale content rather
		// than nothing. Load-more failures keep already-rendered items
		// either way.
		if stale != nil {
			if staleItems, derr := stale.Items(); derr == nil {
				if isLoadMore {
					c.items = append(c.items, staleItems...)
				} else {
					c.items = staleItems
				}
				c.page = q.Page
				c.logger.Info().Int("count", len(staleItems)).Msg("Served stale cache fallback")
			}
		}
		return
	}

	if isLoadMore {
		c.items = append(c.items, items...)
	} else {
		c.items = items
	}
	c.err = nil
	c.hasMore = len(items) >= q.PageSize
	c.page = q.Page
}
