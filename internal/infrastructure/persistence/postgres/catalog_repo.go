package postgres

import (
	"context"
	"fmt"

	"github.com/course-hub/course-market-hub/internal/domain/course"
	"github.com/course-hub/course-market-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// CatalogRepository implements course.Catalog using PostgreSQL.
type CatalogRepository struct {
	conn *Connection
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

var _ course.Catalog = (*CatalogRepository)(nil)

// ──────────────────────────────────────────────────────────────────────────────
// Courses
// ──────────────────────────────────────────────────────────────────────────────

// CreateCourse inserts a new course.
func (r *CatalogRepository) CreateCourse(ctx context.Context, c *course.Course) error {
	query := `
		INSERT INTO courses (id, author, title, start_at, price, is_available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		c.ID, c.Author, c.Title, c.StartAt, c.Price.Int(), c.IsAvailable, c.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("course", "CreateCourse", shared.ErrAlreadyExists, "course already exists")
		}
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

// GetCourse retrieves a course by ID.
func (r *CatalogRepository) GetCourse(ctx context.Context, id string) (*course.Course, error) {
	query := `
		SELECT id, author, title, start_at, price, is_available, created_at
		FROM courses
		WHERE id = $1
	`
	return scanCourse(r.conn.QueryRow(ctx, query, id))
}

// ListCourses returns all courses, newest first.
func (r *CatalogRepository) ListCourses(ctx context.Context) ([]*course.Course, error) {
	query := `
		SELECT id, author, title, start_at, price, is_available, created_at
		FROM courses
		ORDER BY created_at DESC
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []*course.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// SetAvailability toggles the course availability flag.
func (r *CatalogRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	query := `UPDATE courses SET is_available = $2 WHERE id = $1`

	tag, err := r.conn.Exec(ctx, query, id, available)
	if err != nil {
		return fmt.Errorf("failed to update course availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrCourseNotFound
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Lessons
// ──────────────────────────────────────────────────────────────────────────────

// CreateLesson inserts a lesson for an existing course.
func (r *CatalogRepository) CreateLesson(ctx context.Context, l *course.Lesson) error {
	query := `
		INSERT INTO lessons (id, course_id, title, link, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.Exec(ctx, query, l.ID, l.CourseID, l.Title, l.Link, l.CreatedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrCourseNotFound
		}
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

// ListLessons returns the lessons of a course in creation order.
func (r *CatalogRepository) ListLessons(ctx context.Context, courseID string) ([]*course.Lesson, error) {
	query := `
		SELECT id, course_id, title, link, created_at
		FROM lessons
		WHERE course_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.conn.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []*course.Lesson
	for rows.Next() {
		var l course.Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Link, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, &l)
	}
	return lessons, rows.Err()
}

// ──────────────────────────────────────────────────────────────────────────────
// Groups
// ──────────────────────────────────────────────────────────────────────────────

// GroupsOf returns the groups of a course with derived member counts,
// least loaded first, older group first on ties.
func (r *CatalogRepository) GroupsOf(ctx context.Context, courseID string) ([]course.GroupLoad, error) {
	return queryGroupLoads(ctx, r.conn, courseID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ──────────────────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCourse(row rowScanner) (*course.Course, error) {
	var c course.Course
	var price int

	err := row.Scan(&c.ID, &c.Author, &c.Title, &c.StartAt, &price, &c.IsAvailable, &c.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}
	c.Price = course.Price(price)
	return &c, nil
}

// queryGroupLoads is shared between the catalog repository and the purchase
// transaction: member counts are always derived from memberships, never cached.
func queryGroupLoads(ctx context.Context, q Querier, courseID string) ([]course.GroupLoad, error) {
	query := `
		SELECT g.id, g.course_id, g.title, g.capacity, g.created_at,
		       COUNT(m.id) AS members
		FROM groups g
		LEFT JOIN memberships m ON m.group_id = g.id
		WHERE g.course_id = $1
		GROUP BY g.id, g.course_id, g.title, g.capacity, g.created_at
		ORDER BY members ASC, g.created_at ASC
	`

	rows, err := q.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group loads: %w", err)
	}
	defer rows.Close()

	var loads []course.GroupLoad
	for rows.Next() {
		var gl course.GroupLoad
		err := rows.Scan(&gl.ID, &gl.CourseID, &gl.Title, &gl.Capacity, &gl.CreatedAt, &gl.Members)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group load: %w", err)
		}
		loads = append(loads, gl)
	}
	return loads, rows.Err()
}
