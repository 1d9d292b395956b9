package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/course-hub/course-market-hub/internal/domain/course"
	"github.com/course-hub/course-market-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG MANAGEMENT COMMANDS
// Административные операции над каталогом: создание курсов и уроков,
// переключение доступности. После каждой записи инвалидируется кэш каталога.
// ══════════════════════════════════════════════════════════════════════════════

// CatalogInvalidator drops cached catalog entries after a write.
// Implementations may be nil-safe no-ops when caching is disabled.
type CatalogInvalidator interface {
	InvalidateCourse(ctx context.Context, courseID string) error
	InvalidateList(ctx context.Context) error
}

// ──────────────────────────────────────────────────────────────────────────────
// Create course
// ──────────────────────────────────────────────────────────────────────────────

// CreateCourseCommand contains the data to create a course.
type CreateCourseCommand struct {
	// Author is the course author.
	Author string

	// Title is the course title.
	Title string

	// StartAt is when the course starts.
	StartAt time.Time

	// Price is the cost of access in bonuses.
	Price int

	// IsAvailable marks the course as purchasable right away.
	IsAvailable bool
}

// Validate validates the command.
func (c CreateCourseCommand) Validate() error {
	if strings.TrimSpace(c.Author) == "" {
		return errors.New("create_course: author is required")
	}
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("create_course: title is required")
	}
	if c.Price < 0 {
		return errors.New("create_course: price cannot be negative")
	}
	return nil
}

// CreateCourseResult contains the result of creating a course.
type CreateCourseResult struct {
	// CourseID is the ID of the created course.
	CourseID string
}

// CreateCourseHandler handles the CreateCourseCommand.
type CreateCourseHandler struct {
	catalog        course.Catalog
	cache          CatalogInvalidator
	eventPublisher shared.EventPublisher
}

// NewCreateCourseHandler creates a new CreateCourseHandler.
func NewCreateCourseHandler(catalog course.Catalog, cache CatalogInvalidator, eventPublisher shared.EventPublisher) *CreateCourseHandler {
	return &CreateCourseHandler{
		catalog:        catalog,
		cache:          cache,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the create course command.
func (h *CreateCourseHandler) Handle(ctx context.Context, cmd CreateCourseCommand) (*CreateCourseResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "CreateCourse", shared.ErrValidation, err.Error(), err)
	}

	c, err := course.NewCourse(course.NewCourseParams{
		ID:          uuid.New().String(),
		Author:      cmd.Author,
		Title:       cmd.Title,
		StartAt:     cmd.StartAt,
		Price:       course.Price(cmd.Price),
		IsAvailable: cmd.IsAvailable,
	})
	if err != nil {
		return nil, err
	}

	if err := h.catalog.CreateCourse(ctx, c); err != nil {
		return nil, err
	}

	if h.cache != nil {
		_ = h.cache.InvalidateList(ctx)
	}
	if h.eventPublisher != nil {
		_ = h.eventPublisher.Publish(shared.NewCourseCreatedEvent(c.ID, c.Title, c.Price.Int()))
	}

	return &CreateCourseResult{CourseID: c.ID}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Set availability
// ──────────────────────────────────────────────────────────────────────────────

// SetAvailabilityCommand toggles the availability flag of a course.
type SetAvailabilityCommand struct {
	// CourseID is the course to update.
	CourseID string

	// Available is the new availability state.
	Available bool
}

// SetAvailabilityHandler handles the SetAvailabilityCommand.
type SetAvailabilityHandler struct {
	catalog        course.Catalog
	cache          CatalogInvalidator
	eventPublisher shared.EventPublisher
}

// NewSetAvailabilityHandler creates a new SetAvailabilityHandler.
func NewSetAvailabilityHandler(catalog course.Catalog, cache CatalogInvalidator, eventPublisher shared.EventPublisher) *SetAvailabilityHandler {
	return &SetAvailabilityHandler{
		catalog:        catalog,
		cache:          cache,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the set availability command.
func (h *SetAvailabilityHandler) Handle(ctx context.Context, cmd SetAvailabilityCommand) error {
	if cmd.CourseID == "" {
		return shared.NewDomainError("command", "SetAvailability", shared.ErrInvalidID, "course_id is required")
	}

	if err := h.catalog.SetAvailability(ctx, cmd.CourseID, cmd.Available); err != nil {
		return err
	}

	if h.cache != nil {
		_ = h.cache.InvalidateCourse(ctx, cmd.CourseID)
	}
	if h.eventPublisher != nil {
		_ = h.eventPublisher.Publish(shared.NewCourseAvailabilityChangedEvent(cmd.CourseID, cmd.Available))
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Create lesson
// ──────────────────────────────────────────────────────────────────────────────

// CreateLessonCommand contains the data to create a lesson.
type CreateLessonCommand struct {
	// CourseID is the course the lesson belongs to.
	CourseID string

	// Title is the lesson title.
	Title string

	// Link is the URL of the lesson materials.
	Link string
}

// CreateLessonResult contains the result of creating a lesson.
type CreateLessonResult struct {
	// LessonID is the ID of the created lesson.
	LessonID string
}

// CreateLessonHandler handles the CreateLessonCommand.
type CreateLessonHandler struct {
	catalog course.Catalog
	cache   CatalogInvalidator
}

// NewCreateLessonHandler creates a new CreateLessonHandler.
func NewCreateLessonHandler(catalog course.Catalog, cache CatalogInvalidator) *CreateLessonHandler {
	return &CreateLessonHandler{catalog: catalog, cache: cache}
}

// Handle executes the create lesson command.
func (h *CreateLessonHandler) Handle(ctx context.Context, cmd CreateLessonCommand) (*CreateLessonResult, error) {
	l, err := course.NewLesson(uuid.New().String(), cmd.CourseID, cmd.Title, cmd.Link)
	if err != nil {
		return nil, err
	}

	if err := h.catalog.CreateLesson(ctx, l); err != nil {
		return nil, err
	}

	if h.cache != nil {
		_ = h.cache.InvalidateCourse(ctx, cmd.CourseID)
	}
	return &CreateLessonResult{LessonID: l.ID}, nil
}
