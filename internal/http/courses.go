package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Clark-Hu/campus-catalog/internal/course"
	"github.com/Clark-Hu/campus-catalog/internal/repository"
	"github.com/Clark-Hu/campus-catalog/internal/weberr"
)

type lessonRequest struct {
	Title    string `json:"title" validate:"required"`
	VideoURL string `json:"video_url" validate:"omitempty,url"`
	Length   string `json:"length"`
}

type courseCreateRequest struct {
	Category         string          `json:"category" validate:"required"`
	Title            string          `json:"course_title" validate:"required"`
	Price            float64         `json:"course_price" validate:"gte=0"`
	IntroVideoURL    string          `json:"course_intro_video_url" validate:"omitempty,url"`
	TotalLength      string          `json:"course_total_length"`
	Image            string          `json:"courses_image" validate:"omitempty,url"`
	ShortDescription string          `json:"course_short_description" validate:"max=500"`
	IsPaid           bool            `json:"is_course_paid"`
	Lessons          []lessonRequest `json:"lessons" validate:"dive"`
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) error {
	filters, err := buildCourseFilters(r.URL.Query())
	if err != nil {
		return weberr.Wrap(err, http.StatusBadRequest, err.Error())
	}

	result, err := s.deps.Courses.List(r.Context(), filters)
	if err != nil {
		return weberr.Internal(err, "Failed to list courses")
	}

	summaries := course.FormatAllCourses(course.FormatCourses(result.Items))
	setNextCursor(w, result.NextCursor)
	return s.respond(w, http.StatusOK, summaries, "Courses fetched successfully")
}

func buildCourseFilters(query url.Values) (repository.CourseListFilters, error) {
	var filters repository.CourseListFilters

	if q := strings.TrimSpace(query.Get("q")); q != "" {
		filters.Query = &q
	}
	if val := strings.TrimSpace(query.Get("category")); val != "" {
		filters.Category = &val
	}
	if val := strings.TrimSpace(query.Get("paid")); val != "" {
		paid, err := strconv.ParseBool(val)
		if err != nil {
			return filters, fmt.Errorf("invalid paid value")
		}
		filters.IsPaid = &paid
	}
	if val := strings.TrimSpace(query.Get("maxPrice")); val != "" {
		price, err := strconv.ParseFloat(val, 64)
		if err != nil || price < 0 {
			return filters, fmt.Errorf("invalid maxPrice value")
		}
		filters.MaxPrice = &price
	}
	limit, cursor, err := parsePage(query)
	if err != nil {
		return filters, err
	}
	filters.Limit = limit
	filters.Cursor = cursor
	return filters, nil
}

func parsePage(query url.Values) (int, *repository.Cursor, error) {
	var limit int
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid limit value")
		}
		limit = parsed
	}
	var cursor *repository.Cursor
	if val := strings.TrimSpace(query.Get("cursor")); val != "" {
		parsed, err := repository.DecodeCursor(val)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid cursor")
		}
		cursor = parsed
	}
	return limit, cursor, nil
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) error {
	id, err := idParam(r, "course")
	if err != nil {
		return err
	}

	c, err := s.deps.Courses.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return weberr.Wrap(err, http.StatusNotFound, "Course not found")
		}
		return weberr.Internal(err, "Failed to fetch course")
	}
	return s.respond(w, http.StatusOK, course.FormatCourse(c), "Course fetched successfully")
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) error {
	if err := s.requireBearer(r); err != nil {
		return err
	}

	var req courseCreateRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	params := repository.CourseCreateParams{
		Category:         strings.TrimSpace(req.Category),
		Title:            strings.TrimSpace(req.Title),
		Price:            req.Price,
		IntroVideoURL:    strings.TrimSpace(req.IntroVideoURL),
		TotalLength:      strings.TrimSpace(req.TotalLength),
		Image:            strings.TrimSpace(req.Image),
		ShortDescription: strings.TrimSpace(req.ShortDescription),
		IsPaid:           req.IsPaid,
	}
	for _, l := range req.Lessons {
		params.Lessons = append(params.Lessons, repository.LessonParams{
			Title:    strings.TrimSpace(l.Title),
			VideoURL: strings.TrimSpace(l.VideoURL),
			Length:   strings.TrimSpace(l.Length),
		})
	}

	created, err := s.deps.Courses.Create(r.Context(), params)
	if err != nil {
		return weberr.Internal(err, "Failed to create course")
	}

	w.Header().Set("Location", "/courses/"+url.PathEscape(created.ID))
	return s.respond(w, http.StatusCreated, course.FormatCourse(created), "Course created successfully")
}
