package catalog

import "strings"

// rawCourse mirrors the provider's wire format. The provider uses
// inconsistent field casing, so the mapping layer is the only place
// that ever sees these names.
type rawCourse struct {
	ID               string      `json:"id"`
	Title            string      `json:"Title"`
	TeacherName      string      `json:"Teacher-Name"`
	ShortDescription string      `json:"Short-Description"`
	LongDescription  string      `json:"Long-Description"`
	Category         string      `json:"category"`
	Image            *rawImage   `json:"Image"`
	Lessons          []rawLesson `json:"lessons"`
	Duration         string      `json:"duration"`
	Level            string      `json:"level"`
	Rating           float64     `json:"rating"`
	Students         int         `json:"students"`
	Syllabus         []rawLesson `json:"syllabus"`
	Requirements     []string    `json:"requirements"`
}

type rawImage struct {
	URL string `json:"url"`
}

type rawLesson struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
}

// imageOrPlaceholder returns the record's image URL, or placeholder
// when the URL is absent or blank after trimming.
func imageOrPlaceholder(img *rawImage, placeholder string) string {
	if img == nil || strings.TrimSpace(img.URL) == "" {
		return placeholder
	}
	return img.URL
}

func mapLessons(raw []rawLesson) []Lesson {
	if len(raw) == 0 {
		return []Lesson{}
	}
	lessons := make([]Lesson, len(raw))
	for i, l := range raw {
		lessons[i] = Lesson(l)
	}
	return lessons
}

// toSummary maps a raw list record onto the summary subset of Item.
// Lessons stay empty until a detail fetch occurs.
func (r rawCourse) toSummary() Item {
	return Item{
		ID:          r.ID,
		Title:       r.Title,
		Instructor:  r.TeacherName,
		Description: r.ShortDescription,
		Category:    r.Category,
		ImageURL:    imageOrPlaceholder(r.Image, PlaceholderListImage),
		Lessons:     []Lesson{},
	}
}

// toDetail maps a raw detail record onto the full Item schema,
// substituting defaults for every optional field.
func (r rawCourse) toDetail() Item {
	description := r.LongDescription
	if description == "" {
		description = r.ShortDescription
	}

	duration := r.Duration
	if duration == "" {
		duration = "Not specified"
	}

	level := r.Level
	if level == "" {
		level = "Beginner"
	}

	requirements := r.Requirements
	if requirements == nil {
		requirements = []string{}
	}

	return Item{
		ID:           r.ID,
		Title:        r.Title,
		Instructor:   r.TeacherName,
		Description:  description,
		Category:     r.Category,
		ImageURL:     imageOrPlaceholder(r.Image, PlaceholderDetailImage),
		Duration:     duration,
		Level:        level,
		Rating:       r.Rating,
		Students:     r.Students,
		Requirements: requirements,
		Syllabus:     mapLessons(r.Syllabus),
		Lessons:      mapLessons(r.Lessons),
	}
}
