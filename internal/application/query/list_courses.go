package query

import (
	"context"

	"github.com/course-hub/course-market-hub/internal/domain/course"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST COURSES QUERY
// Публичный каталог: все курсы без фильтров по студенту. Список читается
// через кэш (cache-aside) и инвалидируется любой записью в каталог.
// ══════════════════════════════════════════════════════════════════════════════

// CourseListCache is a read-through cache for the full course list.
// Any error from GetCourseList is treated as a miss.
type CourseListCache interface {
	GetCourseList(ctx context.Context) ([]*course.Course, error)
	SetCourseList(ctx context.Context, courses []*course.Course) error
}

// ListCoursesResult contains the query result.
type ListCoursesResult struct {
	// Courses - все курсы каталога, новые первыми.
	Courses []CourseDTO `json:"courses"`
}

// ListCoursesHandler handles the course catalog listing.
type ListCoursesHandler struct {
	catalog course.Catalog
	cache   CourseListCache
}

// NewListCoursesHandler creates a new handler. cache may be nil.
func NewListCoursesHandler(catalog course.Catalog, cache CourseListCache) *ListCoursesHandler {
	return &ListCoursesHandler{catalog: catalog, cache: cache}
}

// Handle returns the full course catalog.
func (h *ListCoursesHandler) Handle(ctx context.Context) (*ListCoursesResult, error) {
	courses, err := h.loadCourses(ctx)
	if err != nil {
		return nil, err
	}

	result := &ListCoursesResult{Courses: make([]CourseDTO, 0, len(courses))}
	for _, c := range courses {
		result.Courses = append(result.Courses, CourseDTO{
			ID:          c.ID,
			Author:      c.Author,
			Title:       c.Title,
			StartAt:     c.StartAt,
			Price:       c.Price.Int(),
			IsAvailable: c.IsAvailable,
		})
	}
	return result, nil
}

func (h *ListCoursesHandler) loadCourses(ctx context.Context) ([]*course.Course, error) {
	if h.cache != nil {
		if courses, err := h.cache.GetCourseList(ctx); err == nil {
			return courses, nil
		}
	}

	courses, err := h.catalog.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	if h.cache != nil {
		_ = h.cache.SetCourseList(ctx, courses)
	}
	return courses, nil
}
