package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/coursedeck/catalog-client/pkg/cache"
	"github.com/coursedeck/catalog-client/pkg/catalog"
	"github.com/coursedeck/catalog-client/pkg/logging"
)

// server holds the request handlers and their collaborators.
type server struct {
	client   *catalog.Client
	cache    *cache.Manager
	pageSize int
	logger   zerolog.Logger
}

func newServer(client *catalog.Client, cacheMgr *cache.Manager, pageSize int) *server {
	if pageSize <= 0 {
		pageSize = 6
	}
	return &server{
		client:   client,
		cache:    cacheMgr,
		pageSize: pageSize,
		logger:   logging.NewLogger("catalogd"),
	}
}

// handleList serves one collection page, read-through cached.
func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	q := catalog.Query{
		Page:     1,
		PageSize: s.pageSize,
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 0 {
		q.Page = page
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		q.PageSize = limit
	}

	key := cache.Fingerprint(q)
	if entry, valid, err := s.cache.Get(r.Context(), key); err == nil && valid {
		if items, derr := entry.Items(); derr == nil {
			writeJSON(w, items)
			return
		}
	}
	_, _ = s.cache.PurgeExpired(r.Context())

	items, err := s.client.List(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.cache.Put(r.Context(), key, items); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache page")
	}
	writeJSON(w, items)
}

// handleDetail serves a single course's full record.
func (s *server) handleDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/collection/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	key := cache.SingleFingerprint(id)
	if entry, valid, err := s.cache.Get(r.Context(), key); err == nil && valid {
		if item, derr := entry.Item(); derr == nil {
			writeJSON(w, item)
			return
		}
	}

	item, err := s.client.GetOne(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.cache.Put(r.Context(), key, item); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache detail")
	}
	writeJSON(w, item)
}

// writeError maps client errors onto HTTP statuses.
func (s *server) writeError(w http.ResponseWriter, err error) {
	switch {
	case catalog.IsCancelled(err):
		// Client went away; nothing useful to write.
		return
	case errors.Is(err, catalog.ErrNotFound):
		http.Error(w, "course not found", http.StatusNotFound)
	default:
		s.logger.Error().Err(err).Msg("Upstream request failed")
		http.Error(w, "upstream request failed", http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Connection-level failure; headers are already gone.
		return
	}
}
