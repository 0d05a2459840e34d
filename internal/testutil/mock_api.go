// Package testutil provides testing utilities for the catalog client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RawCourse is a provider-shaped course record fixture.
type RawCourse struct {
	ID               string              `json:"id"`
	Title            string              `json:"Title"`
	TeacherName      string              `json:"Teacher-Name"`
	ShortDescription string              `json:"Short-Description,omitempty"`
	LongDescription  string              `json:"Long-Description,omitempty"`
	Category         string              `json:"category,omitempty"`
	Image            map[string]string   `json:"Image,omitempty"`
	Duration         string              `json:"duration,omitempty"`
	Level            string              `json:"level,omitempty"`
	Rating           float64             `json:"rating,omitempty"`
	Students         int                 `json:"students,omitempty"`
	Syllabus         []map[string]string `json:"syllabus,omitempty"`
	Requirements     []string            `json:"requirements,omitempty"`
	Lessons          []map[string]string `json:"lessons,omitempty"`
}

// MockAPI is a configurable mock of the remote course collection.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	courses  []RawCourse
	handlers map[string]http.HandlerFunc
	delay    time.Duration
	failWith int

	// Tracking
	RequestCount int
	LastQuery    url.Values
}

// NewMockAPI creates a mock collection server with no fixtures.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastQuery = r.URL.Query()
		delay := mock.delay
		failWith := mock.failWith
		mock.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		if failWith != 0 {
			http.Error(w, http.StatusText(failWith), failWith)
			return
		}

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()
		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL (the API base).
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// SetCourses replaces the course fixtures.
func (m *MockAPI) SetCourses(courses []RawCourse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses = courses
}

// SetDelay makes every response wait before being written.
func (m *MockAPI) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// FailWith makes every request return the given HTTP status. Zero
// restores normal behavior.
func (m *MockAPI) FailWith(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = status
}

// SetHandler installs a custom handler for an exact path.
func (m *MockAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// Requests returns the number of requests served so far.
func (m *MockAPI) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// Reset clears tracking counters and failure injection.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastQuery = nil
	m.failWith = 0
	m.delay = 0
}

// defaultHandler serves /collection list and /collection/{id} detail
// requests from the fixtures, honoring page, limit, search, and
// category parameters the way the real provider does.
func (m *MockAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	courses := make([]RawCourse, len(m.courses))
	copy(courses, m.courses)
	m.mu.RUnlock()

	if id, ok := strings.CutPrefix(r.URL.Path, "/collection/"); ok && id != "" {
		for _, c := range courses {
			if c.ID == id {
				writeJSON(w, c)
				return
			}
		}
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if r.URL.Path != "/collection" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	category := strings.ToLower(q.Get("category"))

	var filtered []RawCourse
	for _, c := range courses {
		if search != "" && !strings.Contains(strings.ToLower(c.Title), search) {
			continue
		}
		if category != "" && strings.ToLower(c.Category) != category {
			continue
		}
		filtered = append(filtered, c)
	}

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = len(filtered)
	}

	startIdx := (page - 1) * limit
	if startIdx > len(filtered) {
		startIdx = len(filtered)
	}
	endIdx := startIdx + limit
	if endIdx > len(filtered) {
		endIdx = len(filtered)
	}

	result := filtered[startIdx:endIdx]
	if result == nil {
		result = []RawCourse{}
	}
	writeJSON(w, result)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
