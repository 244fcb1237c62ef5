// Package course projects stored courses into their public JSON shapes.
package course

import (
	"time"

	"github.com/Clark-Hu/campus-catalog/internal/domain"
)

// Detail is the single-course view, lessons and timestamps included.
type Detail struct {
	ID               string          `json:"_id"`
	Category         string          `json:"category"`
	Title            string          `json:"course_title"`
	Price            float64         `json:"course_price"`
	IntroVideoURL    string          `json:"course_intro_video_url"`
	TotalLength      string          `json:"course_total_length"`
	Image            string          `json:"courses_image"`
	ShortDescription string          `json:"course_short_description"`
	Lessons          []domain.Lesson `json:"lessons"`
	IsPaid           bool            `json:"is_course_paid"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Summary is the list/search view. It leaves out lessons and timestamps.
type Summary struct {
	ID               string  `json:"_id"`
	Category         string  `json:"category"`
	Title            string  `json:"course_title"`
	Price            float64 `json:"course_price"`
	IntroVideoURL    string  `json:"course_intro_video_url"`
	TotalLength      string  `json:"course_total_length"`
	Image            string  `json:"courses_image"`
	ShortDescription string  `json:"course_short_description"`
	IsPaid           bool    `json:"is_course_paid"`
}

// FormatCourse maps a stored course one-to-one onto Detail; only the
// identifier changes name.
func FormatCourse(c domain.Course) Detail {
	return Detail{
		ID:               c.ID,
		Category:         c.Category,
		Title:            c.Title,
		Price:            c.Price,
		IntroVideoURL:    c.IntroVideoURL,
		TotalLength:      c.TotalLength,
		Image:            c.Image,
		ShortDescription: c.ShortDescription,
		Lessons:          c.Lessons,
		IsPaid:           c.IsPaid,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// FormatAllCourse narrows an already formatted course to Summary.
func FormatAllCourse(d Detail) Summary {
	return Summary{
		ID:               d.ID,
		Category:         d.Category,
		Title:            d.Title,
		Price:            d.Price,
		IntroVideoURL:    d.IntroVideoURL,
		TotalLength:      d.TotalLength,
		Image:            d.Image,
		ShortDescription: d.ShortDescription,
		IsPaid:           d.IsPaid,
	}
}

func FormatCourses(courses []domain.Course) []Detail {
	out := make([]Detail, 0, len(courses))
	for _, c := range courses {
		out = append(out, FormatCourse(c))
	}
	return out
}

func FormatAllCourses(details []Detail) []Summary {
	out := make([]Summary, 0, len(details))
	for _, d := range details {
		out = append(out, FormatAllCourse(d))
	}
	return out
}
