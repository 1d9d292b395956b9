package course

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем каталога.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Catalog определяет операции над курсами, уроками и группами.
type Catalog interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Courses
	// ─────────────────────────────────────────────────────────────────────────

	// CreateCourse создаёт новый курс.
	CreateCourse(ctx context.Context, c *Course) error

	// GetCourse возвращает курс по ID.
	// Возвращает shared.ErrCourseNotFound, если курс не найден.
	GetCourse(ctx context.Context, id string) (*Course, error)

	// ListCourses возвращает все курсы в порядке убывания даты создания.
	ListCourses(ctx context.Context) ([]*Course, error)

	// SetAvailability переключает флаг доступности курса.
	// Возвращает shared.ErrCourseNotFound, если курс не найден.
	SetAvailability(ctx context.Context, id string, available bool) error

	// ─────────────────────────────────────────────────────────────────────────
	// Lessons
	// ─────────────────────────────────────────────────────────────────────────

	// CreateLesson создаёт урок для курса.
	// Возвращает shared.ErrCourseNotFound, если курса не существует.
	CreateLesson(ctx context.Context, l *Lesson) error

	// ListLessons возвращает уроки курса в порядке создания.
	ListLessons(ctx context.Context, courseID string) ([]*Lesson, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Groups
	// ─────────────────────────────────────────────────────────────────────────

	// GroupsOf возвращает группы курса с производными счётчиками участников,
	// отсортированные по заполненности (возрастание), затем по возрасту
	// (старшая группа первой).
	GroupsOf(ctx context.Context, courseID string) ([]GroupLoad, error)
}
