package catalog

import "strings"

// Placeholder image URLs substituted when a course record carries no
// usable image. List and detail views use different dimensions.
const (
	PlaceholderListImage   = "https://via.placeholder.com/300x200"
	PlaceholderDetailImage = "https://via.placeholder.com/800x450"
)

// Lesson is a single syllabus entry.
type Lesson struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
}

// Item is a normalized course record. List requests populate only the
// summary fields; the detail fields stay at their zero values until a
// GetOne call fills them in.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Instructor  string `json:"instructor"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`

	// Detail fields (GetOne only).
	Duration     string   `json:"duration,omitempty"`
	Level        string   `json:"level,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	Students     int      `json:"students,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	Syllabus     []Lesson `json:"syllabus,omitempty"`
	Lessons      []Lesson `json:"lessons,omitempty"`
}

// Query describes one logical list request. PageSize is fixed per
// session; Search and Category may be empty, and an empty Category
// means "no filter".
type Query struct {
	Page     int
	PageSize int
	Search   string
	Category string
}

// Normalized returns a copy with Search and Category case-folded and
// trimmed. The pseudo-category "All" collapses to the empty string so
// that "All", "" and " all " address the same query.
func (q Query) Normalized() Query {
	q.Search = strings.ToLower(strings.TrimSpace(q.Search))
	q.Category = strings.ToLower(strings.TrimSpace(q.Category))
	if q.Category == "all" {
		q.Category = ""
	}
	return q
}

// Equal reports whether two queries address the same result set after
// normalization.
func (q Query) Equal(other Query) bool {
	return q.Normalized() == other.Normalized()
}
