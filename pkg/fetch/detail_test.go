package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/coursedeck/catalog-client/pkg/cache"
	"github.com/coursedeck/catalog-client/pkg/catalog"
	"github.com/coursedeck/catalog-client/pkg/store"
)

type stubGetter struct {
	mu     sync.Mutex
	calls  int
	course catalog.Item
	err    error
}

func (s *stubGetter) GetOne(ctx context.Context, id string) (catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return catalog.Item{}, s.err
	}
	return s.course, nil
}

func (s *stubGetter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func detailFixture(id string) catalog.Item {
	return catalog.Item{
		ID:         id,
		Title:      "Intro to Distributed Systems",
		Instructor: "A. Tanenbaum",
		Duration:   "6 weeks",
		Level:      "Beginner",
		ImageURL:   catalog.PlaceholderDetailImage,
	}
}

func TestDetailController_Load(t *testing.T) {
	stub := &stubGetter{course: detailFixture("42")}
	ctrl := NewDetailController(stub, nil, "42")

	if err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	course, loading, err := ctrl.Snapshot()
	if loading || err != nil {
		t.Fatalf("Snapshot: loading=%v err=%v", loading, err)
	}
	if course == nil || course.Title != "Intro to Distributed Systems" {
		t.Errorf("Unexpected course: %+v", course)
	}
}

func TestDetailController_LoadIsOneShot(t *testing.T) {
	stub := &stubGetter{course: detailFixture("42")}
	ctrl := NewDetailController(stub, nil, "42")

	for i := 0; i < 3; i++ {
		if err := ctrl.Load(context.Background()); err != nil {
			t.Fatalf("Load %d failed: %v", i, err)
		}
	}
	if got := stub.callCount(); got != 1 {
		t.Errorf("Repeat Load calls must not re-fetch, got %d calls", got)
	}
}

func TestDetailController_ErrorSurfaced(t *testing.T) {
	stub := &stubGetter{err: catalog.ErrNotFound}
	ctrl := NewDetailController(stub, nil, "missing")

	err := ctrl.Load(context.Background())
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("Load error = %v, want ErrNotFound", err)
	}

	course, loading, snapErr := ctrl.Snapshot()
	if course != nil {
		t.Error("Course must stay nil after a failed fetch")
	}
	if loading {
		t.Error("Loading must be false after the failure resolves")
	}
	if !errors.Is(snapErr, catalog.ErrNotFound) {
		t.Errorf("Snapshot error = %v, want ErrNotFound", snapErr)
	}
}

func TestDetailController_CancellationLeavesNoTrace(t *testing.T) {
	stub := &stubGetter{err: fmt.Errorf("%w: context canceled", catalog.ErrCancelled)}
	ctrl := NewDetailController(stub, nil, "42")

	if err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Cancellation must resolve silently, got %v", err)
	}

	course, _, err := ctrl.Snapshot()
	if course != nil || err != nil {
		t.Errorf("Cancellation must not mutate state: course=%v err=%v", course, err)
	}

	// The guard did not latch; a retry still fetches.
	if err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Retry after cancellation failed: %v", err)
	}
	if got := stub.callCount(); got != 2 {
		t.Errorf("Expected a retry fetch after cancellation, got %d calls", got)
	}
}

func TestDetailController_CachesAndServesDetail(t *testing.T) {
	mgr := cache.NewManager(store.NewMemoryStore())
	ctx := context.Background()

	first := &stubGetter{course: detailFixture("42")}
	if err := NewDetailController(first, mgr, "42").Load(ctx); err != nil {
		t.Fatalf("First load failed: %v", err)
	}

	// A second controller for the same id must be served from cache.
	second := &stubGetter{course: detailFixture("42")}
	ctrl := NewDetailController(second, mgr, "42")
	if err := ctrl.Load(ctx); err != nil {
		t.Fatalf("Second load failed: %v", err)
	}
	if second.callCount() != 0 {
		t.Errorf("Cached detail must skip the network, got %d calls", second.callCount())
	}

	course, _, _ := ctrl.Snapshot()
	if course == nil || course.Duration != "6 weeks" {
		t.Errorf("Cached detail lost fields: %+v", course)
	}
}
