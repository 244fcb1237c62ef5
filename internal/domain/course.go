package domain

import "time"

// Lesson is a single lesson attached to a course.
type Lesson struct {
	ID       string `json:"_id"`
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
	VideoURL string `json:"video_url"`
	Length   string `json:"length"`
	Position int    `json:"position"`
}

// Course represents the canonical course entity in the database/service.
type Course struct {
	ID               string
	Category         string
	Title            string
	Price            float64
	IntroVideoURL    string
	TotalLength      string
	Image            string
	ShortDescription string
	Lessons          []Lesson
	IsPaid           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
