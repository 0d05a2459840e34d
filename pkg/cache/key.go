package cache

import (
	"fmt"
	"strings"

	"github.com/coursedeck/catalog-client/pkg/catalog"
)

// Prefix scopes every cache key in the durable medium, keeping the
// cache namespace disjoint from the bookmark key.
const Prefix = "course_cache_"

// Fingerprint generates the deterministic cache key for a list query.
// Format: course_cache_{page}_{limit}_{search}_{category}
//
// Search and category are lower-cased and trimmed first, so queries
// that differ only in case or surrounding whitespace share a key.
func Fingerprint(q catalog.Query) string {
	norm := q.Normalized()
	return fmt.Sprintf("%s%d_%d_%s_%s", Prefix, q.Page, q.PageSize, norm.Search, norm.Category)
}

// SingleFingerprint generates the cache key for a single-course detail
// fetch.
func SingleFingerprint(id string) string {
	return Prefix + "single_" + strings.TrimSpace(id)
}
