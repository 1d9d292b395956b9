// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"github.com/course-hub/course-market-hub/internal/domain/course"
	"github.com/course-hub/course-market-hub/internal/domain/enrollment"
	"github.com/course-hub/course-market-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST AVAILABLE COURSES QUERY
// Витрина маркетплейса для конкретного студента: курсы, которые он может
// купить прямо сейчас. Из списка исключаются уже купленные, закрытые для
// продажи и полностью заполненные курсы.
//
// Список - мгновенный снимок: между чтением и покупкой места могут кончиться,
// поэтому покупка перепроверяет все условия в своей транзакции.
// ══════════════════════════════════════════════════════════════════════════════

// ListAvailableCoursesQuery contains the query parameters.
type ListAvailableCoursesQuery struct {
	// StudentID - студент, для которого строится витрина.
	StudentID string
}

// AvailableCourseDTO describes one purchasable course.
type AvailableCourseDTO struct {
	// ID - идентификатор курса.
	ID string `json:"id"`

	// Author - автор курса.
	Author string `json:"author"`

	// Title - название курса.
	Title string `json:"title"`

	// StartAt - дата начала.
	StartAt time.Time `json:"start_at"`

	// Price - стоимость в бонусах.
	Price int `json:"price"`

	// FreeSeats - сколько студентов ещё может купить курс.
	FreeSeats int `json:"free_seats"`
}

// ListAvailableCoursesResult contains the query result.
type ListAvailableCoursesResult struct {
	// Courses - покупаемые курсы, новые первыми.
	Courses []AvailableCourseDTO `json:"courses"`

	// GeneratedAt - время построения снимка.
	GeneratedAt time.Time `json:"generated_at"`
}

// ListAvailableCoursesHandler handles the ListAvailableCoursesQuery.
type ListAvailableCoursesHandler struct {
	catalog     course.Catalog
	enrollments enrollment.Repository
	policy      enrollment.Policy
}

// NewListAvailableCoursesHandler creates a new handler.
func NewListAvailableCoursesHandler(
	catalog course.Catalog,
	enrollments enrollment.Repository,
	policy enrollment.Policy,
) *ListAvailableCoursesHandler {
	if !policy.IsValid() {
		policy = enrollment.DefaultPolicy()
	}
	return &ListAvailableCoursesHandler{
		catalog:     catalog,
		enrollments: enrollments,
		policy:      policy,
	}
}

// Handle builds the list of courses the student can purchase.
func (h *ListAvailableCoursesHandler) Handle(ctx context.Context, q ListAvailableCoursesQuery) (*ListAvailableCoursesResult, error) {
	if q.StudentID == "" {
		return nil, shared.NewDomainError("query", "ListAvailableCourses", shared.ErrInvalidID, "student_id is required")
	}

	courses, err := h.catalog.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	subscribedIDs, err := h.enrollments.SubscribedCourseIDs(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}
	subscribed := make(map[string]struct{}, len(subscribedIDs))
	for _, id := range subscribedIDs {
		subscribed[id] = struct{}{}
	}

	result := &ListAvailableCoursesResult{
		Courses:     make([]AvailableCourseDTO, 0, len(courses)),
		GeneratedAt: time.Now().UTC(),
	}

	for _, c := range courses {
		if !c.IsAvailable {
			continue
		}
		if _, bought := subscribed[c.ID]; bought {
			continue
		}

		loads, err := h.catalog.GroupsOf(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if !h.policy.HasVacancy(loads) {
			continue
		}

		result.Courses = append(result.Courses, AvailableCourseDTO{
			ID:        c.ID,
			Author:    c.Author,
			Title:     c.Title,
			StartAt:   c.StartAt,
			Price:     c.Price.Int(),
			FreeSeats: h.freeSeats(loads),
		})
	}

	return result, nil
}

// freeSeats counts the remaining capacity of a course: free seats in existing
// groups plus seats in groups the allocator may still open.
func (h *ListAvailableCoursesHandler) freeSeats(loads []course.GroupLoad) int {
	seats := 0
	for _, g := range loads {
		if free := g.Capacity - g.Members; free > 0 {
			seats += free
		}
	}
	if remaining := h.policy.MaxGroupsPerCourse - len(loads); remaining > 0 {
		seats += remaining * h.policy.GroupCapacity
	}
	return seats
}
