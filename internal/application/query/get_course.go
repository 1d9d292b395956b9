package query

import (
	"context"
	"time"

	"github.com/course-hub/course-market-hub/internal/domain/course"
	"github.com/course-hub/course-market-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COURSE QUERY
// Карточка курса с уроками. Читается через кэш (cache-aside): промах или
// недоступный кэш прозрачно уводят чтение в хранилище.
// ══════════════════════════════════════════════════════════════════════════════

// CourseCache is a read-through cache for course entities.
// Any error from GetCourse is treated as a miss.
type CourseCache interface {
	GetCourse(ctx context.Context, id string) (*course.Course, error)
	SetCourse(ctx context.Context, c *course.Course) error
}

// GetCourseQuery contains the query parameters.
type GetCourseQuery struct {
	// CourseID - идентификатор курса.
	CourseID string

	// IncludeLessons - добавить уроки в ответ.
	IncludeLessons bool
}

// LessonDTO describes one lesson of a course.
type LessonDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Link  string `json:"link"`
}

// CourseDTO describes a course card.
type CourseDTO struct {
	ID          string      `json:"id"`
	Author      string      `json:"author"`
	Title       string      `json:"title"`
	StartAt     time.Time   `json:"start_at"`
	Price       int         `json:"price"`
	IsAvailable bool        `json:"is_available"`
	Lessons     []LessonDTO `json:"lessons,omitempty"`
}

// GetCourseHandler handles the GetCourseQuery.
type GetCourseHandler struct {
	catalog course.Catalog
	cache   CourseCache
}

// NewGetCourseHandler creates a new handler. cache may be nil.
func NewGetCourseHandler(catalog course.Catalog, cache CourseCache) *GetCourseHandler {
	return &GetCourseHandler{catalog: catalog, cache: cache}
}

// Handle returns the course card.
func (h *GetCourseHandler) Handle(ctx context.Context, q GetCourseQuery) (*CourseDTO, error) {
	if q.CourseID == "" {
		return nil, shared.NewDomainError("query", "GetCourse", shared.ErrInvalidID, "course_id is required")
	}

	c, err := h.loadCourse(ctx, q.CourseID)
	if err != nil {
		return nil, err
	}

	dto := &CourseDTO{
		ID:          c.ID,
		Author:      c.Author,
		Title:       c.Title,
		StartAt:     c.StartAt,
		Price:       c.Price.Int(),
		IsAvailable: c.IsAvailable,
	}

	if q.IncludeLessons {
		lessons, err := h.catalog.ListLessons(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		dto.Lessons = make([]LessonDTO, 0, len(lessons))
		for _, l := range lessons {
			dto.Lessons = append(dto.Lessons, LessonDTO{ID: l.ID, Title: l.Title, Link: l.Link})
		}
	}

	return dto, nil
}

func (h *GetCourseHandler) loadCourse(ctx context.Context, id string) (*course.Course, error) {
	if h.cache != nil {
		if c, err := h.cache.GetCourse(ctx, id); err == nil {
			return c, nil
		}
	}

	c, err := h.catalog.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.cache != nil {
		_ = h.cache.SetCourse(ctx, c)
	}
	return c, nil
}
