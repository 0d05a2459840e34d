package fetch

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coursedeck/catalog-client/pkg/catalog"
)

// Trigger turns sentinel visibility events into automatic page loads,
// replacing a manual "Load More" action. It is bound to the last
// rendered item; when that item enters the viewport and the controller
// is idle with more pages believed to exist, the next page is
// requested.
//
// The presentation layer owns the actual viewport observation and
// calls Visible with the id of the element that intersected.
type Trigger struct {
	mu     sync.Mutex
	ctrl   *Controller
	target string
	logger zerolog.Logger
}

// NewTrigger creates a trigger driving the given controller.
func NewTrigger(ctrl *Controller) *Trigger {
	return &Trigger{
		ctrl:   ctrl,
		logger: log.With().Str("component", "scroll-trigger").Logger(),
	}
}

// Rebind points the trigger at the last item of the current list,
// tearing down the previous binding first so a stale detached element
// can never fire a duplicate load. An empty list clears the binding.
func (t *Trigger) Rebind(items []catalog.Item) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(items) == 0 {
		t.target = ""
		return
	}
	t.target = items[len(items)-1].ID
}

// Target returns the id of the currently observed sentinel item.
func (t *Trigger) Target() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.target
}

// Visible reports that the element for id entered the viewport. Events
// for anything other than the current sentinel are ignored, as are
// events while a request is loading or after the last page.
func (t *Trigger) Visible(id string) {
	t.mu.Lock()
	target := t.target
	t.mu.Unlock()

	if id == "" || id != target {
		return
	}

	snap := t.ctrl.Snapshot()
	if snap.Loading || !snap.HasMore {
		return
	}

	t.logger.Debug().Str("sentinel", id).Int("page", snap.Page).Msg("Sentinel visible, loading next page")
	t.ctrl.LoadNextPage()
}
