package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/coursedeck/catalog-client/internal/testutil"
	"github.com/coursedeck/catalog-client/pkg/bookmarks"
	"github.com/coursedeck/catalog-client/pkg/cache"
	"github.com/coursedeck/catalog-client/pkg/catalog"
	"github.com/coursedeck/catalog-client/pkg/fetch"
	"github.com/coursedeck/catalog-client/pkg/store"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func setupRedisStore(t *testing.T) (*store.RedisStore, func()) {
	t.Helper()

	redisClient, cleanup := setupRedis(t)
	st, err := store.NewRedisStore(redisClient, "catalog-test")
	if err != nil {
		cleanup()
		t.Fatalf("Failed to create Redis store: %v", err)
	}
	return st, cleanup
}

func courseFixtures(n int) []testutil.RawCourse {
	courses := make([]testutil.RawCourse, n)
	for i := range courses {
		courses[i] = testutil.RawCourse{
			ID:          string(rune('1' + i)),
			Title:       "Course " + string(rune('A'+i)),
			TeacherName: "Teacher",
			Category:    "Programming",
		}
	}
	return courses
}

func TestRedisStoreRoundTrip(t *testing.T) {
	st, cleanup := setupRedisStore(t)
	defer cleanup()

	ctx := context.Background()

	if err := st.Set(ctx, "course_cache_1_6__", []byte(`{"data":[]}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, err := st.Get(ctx, "course_cache_1_6__")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != `{"data":[]}` {
		t.Errorf("Get returned %q", data)
	}

	keys, err := st.Scan(ctx, cache.Prefix)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "course_cache_1_6__" {
		t.Errorf("Scan returned %v", keys)
	}

	if err := st.Delete(ctx, "course_cache_1_6__"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := st.Get(ctx, "course_cache_1_6__"); err != store.ErrNotFound {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestCacheManagerOverRedis(t *testing.T) {
	st, cleanup := setupRedisStore(t)
	defer cleanup()

	mgr := cache.NewManager(st)
	ctx := context.Background()

	items := []catalog.Item{{ID: "1", Title: "Go Basics"}}
	key := cache.Fingerprint(catalog.Query{Page: 1, PageSize: 6})

	if err := mgr.Put(ctx, key, items); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entry, valid, err := mgr.Get(ctx, key)
	if err != nil || !valid {
		t.Fatalf("Get: valid=%v err=%v", valid, err)
	}
	got, err := entry.Items()
	if err != nil {
		t.Fatalf("Items failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Go Basics" {
		t.Errorf("Items = %+v", got)
	}

	// A back-dated entry is reported stale and then purged.
	payload, _ := json.Marshal(items)
	aged, _ := json.Marshal(cache.Entry{
		Data:     payload,
		StoredAt: time.Now().Add(-time.Hour).UnixMilli(),
	})
	agedKey := cache.Fingerprint(catalog.Query{Page: 2, PageSize: 6})
	if err := st.Set(ctx, agedKey, aged); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, valid, err := mgr.Get(ctx, agedKey); err != nil || valid {
		t.Errorf("Aged entry: valid=%v err=%v, want stale hit", valid, err)
	}

	purged, err := mgr.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("PurgeExpired removed %d entries, want 1", purged)
	}
	if _, err := st.Get(ctx, agedKey); err != store.ErrNotFound {
		t.Errorf("Aged entry survived purge: %v", err)
	}
}

// TestFullFetchFlow exercises the complete flow: controller → cache →
// upstream → cache update, with Redis as the shared store.
func TestFullFetchFlow(t *testing.T) {
	st, cleanup := setupRedisStore(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetCourses(courseFixtures(6))

	client, err := catalog.New(catalog.DefaultConfig(mock.URL()))
	if err != nil {
		t.Fatalf("Failed to create catalog client: %v", err)
	}

	mgr := cache.NewManager(st)
	cfg := fetch.Config{PageSize: 6, Debounce: 20 * time.Millisecond}

	ctrl := fetch.NewController(client, mgr, cfg)
	ctrl.Refresh()
	waitFor(t, func() bool {
		snap := ctrl.Snapshot()
		return !snap.Loading && len(snap.Items) == 6
	}, "first fetch never completed")
	ctrl.Close()

	if got := mock.Requests(); got != 1 {
		t.Fatalf("Expected 1 upstream request, got %d", got)
	}

	// A second controller over the same Redis store is served entirely
	// from cache.
	ctrl2 := fetch.NewController(client, mgr, cfg)
	defer ctrl2.Close()
	ctrl2.Refresh()
	waitFor(t, func() bool {
		snap := ctrl2.Snapshot()
		return !snap.Loading && len(snap.Items) == 6
	}, "cached fetch never completed")

	if got := mock.Requests(); got != 1 {
		t.Errorf("Cached page must skip upstream, saw %d requests", got)
	}
}

func TestBookmarksOverRedis(t *testing.T) {
	st, cleanup := setupRedisStore(t)
	defer cleanup()

	ctx := context.Background()

	bm := bookmarks.NewStore(st)
	if _, err := bm.Toggle(ctx, "7"); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	// A fresh store over the same Redis sees the persisted set.
	reloaded := bookmarks.NewStore(st)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reloaded.IsBookmarked("7") {
		t.Error("Bookmark lost across reload")
	}

	// Bookmarks live outside the cache namespace and survive a purge.
	if _, err := cache.NewManager(st).PurgeExpired(ctx); err != nil {
		t.Fatalf("PurgeExpired failed: %v", err)
	}
	if _, err := st.Get(ctx, bookmarks.StorageKey); err != nil {
		t.Errorf("Bookmark key removed by cache purge: %v", err)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}
