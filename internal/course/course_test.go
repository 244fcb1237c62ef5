package course

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Clark-Hu/campus-catalog/internal/domain"
)

func sampleCourse() domain.Course {
	created := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	return domain.Course{
		ID:               "c1",
		Category:         "Backend",
		Title:            "X",
		Price:            49.5,
		IntroVideoURL:    "https://cdn.example.com/intro.mp4",
		TotalLength:      "3h 20m",
		Image:            "https://cdn.example.com/x.png",
		ShortDescription: "Learn X",
		Lessons: []domain.Lesson{
			{ID: "l1", CourseID: "c1", Title: "One", Position: 1},
			{ID: "l2", CourseID: "c1", Title: "Two", Position: 2},
		},
		IsPaid:    true,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}
}

func jsonKeys(t *testing.T, v any) []string {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestFormatCourse(t *testing.T) {
	src := sampleCourse()
	got := FormatCourse(src)

	want := Detail{
		ID:               "c1",
		Category:         src.Category,
		Title:            "X",
		Price:            src.Price,
		IntroVideoURL:    src.IntroVideoURL,
		TotalLength:      src.TotalLength,
		Image:            src.Image,
		ShortDescription: src.ShortDescription,
		Lessons:          src.Lessons,
		IsPaid:           true,
		CreatedAt:        src.CreatedAt,
		UpdatedAt:        src.UpdatedAt,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("FormatCourse mismatch (-want +got):\n%s", diff)
	}

	wantKeys := []string{
		"_id", "category", "course_intro_video_url", "course_price", "course_short_description",
		"course_title", "course_total_length", "courses_image", "createdAt", "is_course_paid",
		"lessons", "updatedAt",
	}
	if diff := cmp.Diff(wantKeys, jsonKeys(t, got)); diff != "" {
		t.Fatalf("detail field set mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatCourseMissingFields(t *testing.T) {
	got := FormatCourse(domain.Course{ID: "c1", Title: "X"})
	if got.ID != "c1" || got.Title != "X" {
		t.Fatalf("unexpected projection: %+v", got)
	}
	if got.Lessons != nil {
		t.Fatalf("lessons should pass through as nil, got %v", got.Lessons)
	}
}

func TestFormatAllCourse(t *testing.T) {
	detail := FormatCourse(sampleCourse())
	got := FormatAllCourse(detail)

	want := Summary{
		ID:               "c1",
		Category:         detail.Category,
		Title:            detail.Title,
		Price:            detail.Price,
		IntroVideoURL:    detail.IntroVideoURL,
		TotalLength:      detail.TotalLength,
		Image:            detail.Image,
		ShortDescription: detail.ShortDescription,
		IsPaid:           detail.IsPaid,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("FormatAllCourse mismatch (-want +got):\n%s", diff)
	}

	wantKeys := []string{
		"_id", "category", "course_intro_video_url", "course_price", "course_short_description",
		"course_title", "course_total_length", "courses_image", "is_course_paid",
	}
	if diff := cmp.Diff(wantKeys, jsonKeys(t, got)); diff != "" {
		t.Fatalf("summary field set mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatIsIdempotent(t *testing.T) {
	src := sampleCourse()
	first := FormatAllCourses(FormatCourses([]domain.Course{src}))
	second := FormatAllCourses(FormatCourses([]domain.Course{src}))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated formatting differs:\n%s", diff)
	}
	if len(FormatCourses(nil)) != 0 || FormatAllCourses(nil) == nil {
		t.Fatalf("empty inputs should yield empty, non-nil slices")
	}
}
