package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/campus-catalog/internal/domain"
)

// CoursesRepository provides persistence helpers for courses and their lessons.
type CoursesRepository struct {
	pool *pgxpool.Pool
}

const courseColumns = `
    id,
    category,
    course_title,
    course_price::float8,
    course_intro_video_url,
    course_total_length,
    courses_image,
    course_short_description,
    is_course_paid,
    created_at,
    updated_at
`

// CourseCreateParams bundles the fields required to create a course.
type CourseCreateParams struct {
	Category         string
	Title            string
	Price            float64
	IntroVideoURL    string
	TotalLength      string
	Image            string
	ShortDescription string
	IsPaid           bool
	Lessons          []LessonParams
}

// LessonParams describes one lesson; position follows slice order.
type LessonParams struct {
	Title    string
	VideoURL string
	Length   string
}

// CourseListFilters encapsulates search and pagination options.
type CourseListFilters struct {
	Query    *string
	Category *string
	IsPaid   *bool
	MaxPrice *float64
	Limit    int
	Cursor   *Cursor
}

// CourseListResult returns the paginated payload. Lessons are not loaded.
type CourseListResult struct {
	Items      []domain.Course
	NextCursor *string
}

// Create inserts a course with its lessons in one transaction.
func (r *CoursesRepository) Create(ctx context.Context, params CourseCreateParams) (domain.Course, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Course{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := fmt.Sprintf(`
        INSERT INTO courses (category, course_title, course_price, course_intro_video_url,
                             course_total_length, courses_image, course_short_description, is_course_paid)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING %s
    `, courseColumns)

	course, err := scanCourse(tx.QueryRow(ctx, query,
		params.Category, params.Title, params.Price, params.IntroVideoURL,
		params.TotalLength, params.Image, params.ShortDescription, params.IsPaid,
	))
	if err != nil {
		return domain.Course{}, fmt.Errorf("insert course: %w", err)
	}

	const lessonQuery = `
        INSERT INTO lessons (course_id, title, video_url, length, position)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, course_id, title, video_url, length, position
    `
	course.Lessons = make([]domain.Lesson, 0, len(params.Lessons))
	for i, lp := range params.Lessons {
		var lesson domain.Lesson
		err := tx.QueryRow(ctx, lessonQuery, course.ID, lp.Title, lp.VideoURL, lp.Length, i+1).Scan(
			&lesson.ID, &lesson.CourseID, &lesson.Title, &lesson.VideoURL, &lesson.Length, &lesson.Position,
		)
		if err != nil {
			return domain.Course{}, fmt.Errorf("insert lesson %d: %w", i+1, err)
		}
		course.Lessons = append(course.Lessons, lesson)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Course{}, fmt.Errorf("commit course: %w", err)
	}
	return course, nil
}

// GetByID fetches a course and its lessons ordered by position.
func (r *CoursesRepository) GetByID(ctx context.Context, id string) (domain.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns)
	course, err := scanCourse(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Course{}, ErrNotFound
		}
		return domain.Course{}, err
	}

	lessons, err := r.lessons(ctx, course.ID)
	if err != nil {
		return domain.Course{}, err
	}
	course.Lessons = lessons
	return course, nil
}

func (r *CoursesRepository) lessons(ctx context.Context, courseID string) ([]domain.Lesson, error) {
	const query = `
        SELECT id, course_id, title, video_url, length, position
        FROM lessons
        WHERE course_id = $1
        ORDER BY position
    `
	rows, err := r.pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("query lessons: %w", err)
	}
	defer rows.Close()

	lessons := make([]domain.Lesson, 0)
	for rows.Next() {
		var l domain.Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.VideoURL, &l.Length, &l.Position); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// List returns courses that match the provided filters, newest first.
func (r *CoursesRepository) List(ctx context.Context, filters CourseListFilters) (CourseListResult, error) {
	filters.Limit = clampLimit(filters.Limit)

	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Query != nil && strings.TrimSpace(*filters.Query) != "" {
		q := "%" + strings.TrimSpace(*filters.Query) + "%"
		p1 := arg(q)
		p2 := arg(q)
		where = append(where, fmt.Sprintf("(course_title ILIKE %s OR course_short_description ILIKE %s)", p1, p2))
	}
	if filters.Category != nil && strings.TrimSpace(*filters.Category) != "" {
		where = append(where, fmt.Sprintf("lower(category) = lower(%s)", arg(strings.TrimSpace(*filters.Category))))
	}
	if filters.IsPaid != nil {
		where = append(where, fmt.Sprintf("is_course_paid = %s", arg(*filters.IsPaid)))
	}
	if filters.MaxPrice != nil {
		where = append(where, fmt.Sprintf("course_price <= %s", arg(*filters.MaxPrice)))
	}
	if filters.Cursor != nil {
		cursorCreated := arg(filters.Cursor.CreatedAt)
		cursorID := arg(filters.Cursor.ID)
		where = append(where, fmt.Sprintf("(created_at, id) < (%s, %s)", cursorCreated, cursorID))
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(courseColumns)
	queryBuilder.WriteString(" FROM courses")
	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d", filters.Limit))

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return CourseListResult{}, err
	}
	defer rows.Close()

	items := make([]domain.Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return CourseListResult{}, err
		}
		items = append(items, course)
	}
	if err := rows.Err(); err != nil {
		return CourseListResult{}, err
	}

	result := CourseListResult{Items: items}
	if len(items) > 0 {
		last := items[len(items)-1]
		result.NextCursor, err = nextCursor(len(items), filters.Limit, last.CreatedAt, last.ID)
		if err != nil {
			return CourseListResult{}, err
		}
	}
	return result, nil
}

func scanCourse(row pgx.Row) (domain.Course, error) {
	var (
		course    domain.Course
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(
		&course.ID,
		&course.Category,
		&course.Title,
		&course.Price,
		&course.IntroVideoURL,
		&course.TotalLength,
		&course.Image,
		&course.ShortDescription,
		&course.IsPaid,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Course{}, err
	}
	course.CreatedAt = createdAt
	course.UpdatedAt = updatedAt
	return course, nil
}
