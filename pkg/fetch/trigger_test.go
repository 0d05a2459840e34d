package fetch

import (
	"testing"
	"time"

	"github.com/coursedeck/catalog-client/pkg/catalog"
)

func TestTrigger_RebindTracksLastItem(t *testing.T) {
	trig := NewTrigger(NewController(&stubLister{}, nil, testConfig()))

	trig.Rebind(makeItems("p1", 6))
	if got := trig.Target(); got != "p1-6" {
		t.Errorf("Target = %q, want %q", got, "p1-6")
	}

	trig.Rebind(makeItems("p2", 3))
	if got := trig.Target(); got != "p2-3" {
		t.Errorf("Target after rebind = %q, want %q", got, "p2-3")
	}

	trig.Rebind(nil)
	if got := trig.Target(); got != "" {
		t.Errorf("Empty list must clear the binding, got %q", got)
	}
}

func TestTrigger_VisibleLoadsNextPage(t *testing.T) {
	stub := &stubLister{pages: map[int][]catalog.Item{
		1: makeItems("p1", 6),
		2: makeItems("p2", 6),
	}}
	ctrl := NewController(stub, nil, testConfig())
	defer ctrl.Close()

	ctrl.Refresh()
	waitFor(t, func() bool {
		snap := ctrl.Snapshot()
		return !snap.Loading && len(snap.Items) == 6
	}, "page 1 never loaded")

	trig := NewTrigger(ctrl)
	trig.Rebind(ctrl.Snapshot().Items)

	trig.Visible("p1-6")
	waitFor(t, func() bool {
		snap := ctrl.Snapshot()
		return !snap.Loading && len(snap.Items) == 12
	}, "sentinel visibility never loaded page 2")
}

func TestTrigger_IgnoresStaleSentinel(t *testing.T) {
	stub := &stubLister{pages: map[int][]catalog.Item{1: makeItems("p1", 6)}}
	ctrl := NewController(stub, nil, testConfig())
	defer ctrl.Close()

	ctrl.Refresh()
	waitFor(t, func() bool { return !ctrl.Snapshot().Loading }, "page 1 never loaded")

	trig := NewTrigger(ctrl)
	trig.Rebind(ctrl.Snapshot().Items)

	calls := stub.callCount()
	trig.Visible("p1-1")
	trig.Visible("detached-old-sentinel")
	trig.Visible("")
	time.Sleep(30 * time.Millisecond)

	if stub.callCount() != calls {
		t.Errorf("Non-sentinel visibility must not fetch, got %d extra calls", stub.callCount()-calls)
	}
}

func TestTrigger_GatedWhileLoading(t *testing.T) {
	release := make(chan struct{})
	stub := &stubLister{
		pages:       map[int][]catalog.Item{1: makeItems("p1", 6)},
		blockSearch: "held",
		release:     release,
	}
	ctrl := NewController(stub, nil, testConfig())
	defer ctrl.Close()

	trig := NewTrigger(ctrl)
	trig.Rebind(makeItems("p1", 6))

	ctrl.SetQuery("held", "")
	waitFor(t, func() bool { return stub.callCount() == 1 }, "fetch never started")

	trig.Visible("p1-6")
	time.Sleep(30 * time.Millisecond)
	if got := stub.callCount(); got != 1 {
		t.Errorf("Sentinel visibility during load must be ignored, got %d calls", got)
	}

	close(release)
}

func TestTrigger_GatedWhenExhausted(t *testing.T) {
	// A short page of 2 exhausts pagination immediately.
	stub := &stubLister{pages: map[int][]catalog.Item{1: makeItems("p1", 2)}}
	ctrl := NewController(stub, nil, testConfig())
	defer ctrl.Close()

	ctrl.Refresh()
	waitFor(t, func() bool {
		snap := ctrl.Snapshot()
		return !snap.Loading && len(snap.Items) == 2
	}, "page 1 never loaded")

	trig := NewTrigger(ctrl)
	trig.Rebind(ctrl.Snapshot().Items)

	trig.Visible("p1-2")
	time.Sleep(30 * time.Millisecond)
	if got := stub.callCount(); got != 1 {
		t.Errorf("Visibility after the last page must not fetch, got %d calls", got)
	}
}
