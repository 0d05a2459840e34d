package fetch

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coursedeck/catalog-client/pkg/cache"
	"github.com/coursedeck/catalog-client/pkg/catalog"
)

// Getter is the single-record boundary of the remote collection.
type Getter interface {
	GetOne(ctx context.Context, id string) (catalog.Item, error)
}

// DetailController fetches one course's full detail record at most
// once, with the same cache policy as list fetches.
type DetailController struct {
	client Getter
	cache  *cache.Manager
	logger zerolog.Logger

	mu      sync.Mutex
	id      string
	course  *catalog.Item
	loading bool
	err     error
	fetched bool
}

// NewDetailController creates a detail controller for the given course
// id. The cache manager may be nil to disable caching.
func NewDetailController(client Getter, cacheMgr *cache.Manager, id string) *DetailController {
	return &DetailController{
		client: client,
		cache:  cacheMgr,
		id:     id,
		logger: log.With().Str("component", "detail-controller").Str("course_id", id).Logger(),
	}
}

// Load fetches the detail record. Repeat calls after the first fetch
// are no-ops, mirroring a mount-once lifecycle.
func (d *DetailController) Load(ctx context.Context) error {
	d.mu.Lock()
	if d.fetched || d.loading {
		d.mu.Unlock()
		return nil
	}
	d.loading = true
	d.mu.Unlock()

	course, err := d.resolve(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false

	if err != nil {
		if catalog.IsCancelled(err) {
			return nil
		}
		d.fetched = true
		d.err = err
		d.logger.Warn().Err(err).Msg("Detail fetch failed")
		return err
	}

	d.fetched = true
	d.course = &course
	return nil
}

func (d *DetailController) resolve(ctx context.Context) (catalog.Item, error) {
	key := cache.SingleFingerprint(d.id)

	if d.cache != nil {
		if entry, valid, err := d.cache.Get(ctx, key); err == nil && valid {
			if course, derr := entry.Item(); derr == nil {
				d.logger.Debug().Msg("Serving detail from cache")
				return course, nil
			}
		}
	}

	course, err := d.client.GetOne(ctx, d.id)
	if err != nil {
		return catalog.Item{}, err
	}

	if d.cache != nil {
		if perr := d.cache.Put(ctx, key, course); perr != nil {
			d.logger.Warn().Err(perr).Msg("Failed to cache detail")
		}
	}
	return course, nil
}

// Snapshot returns the current detail state. Course is nil until a
// fetch succeeds.
func (d *DetailController) Snapshot() (course *catalog.Item, loading bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.course == nil {
		return nil, d.loading, d.err
	}
	c := *d.course
	return &c, d.loading, d.err
}
