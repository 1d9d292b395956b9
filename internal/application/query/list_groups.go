package query

import (
	"context"
	"time"

	"github.com/course-hub/course-market-hub/internal/domain/course"
	"github.com/course-hub/course-market-hub/internal/domain/enrollment"
	"github.com/course-hub/course-market-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE GROUPS QUERIES
// Группы курса с заполненностью и группа конкретного студента.
// ══════════════════════════════════════════════════════════════════════════════

// ListGroupsQuery contains the query parameters.
type ListGroupsQuery struct {
	// CourseID - курс, группы которого запрашиваются.
	CourseID string
}

// GroupDTO describes a course group with its derived load.
type GroupDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Capacity  int       `json:"capacity"`
	Members   int       `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// ListGroupsResult contains the query result.
type ListGroupsResult struct {
	CourseID string     `json:"course_id"`
	Groups   []GroupDTO `json:"groups"`
}

// ListGroupsHandler handles the ListGroupsQuery.
type ListGroupsHandler struct {
	catalog course.Catalog
}

// NewListGroupsHandler creates a new handler.
func NewListGroupsHandler(catalog course.Catalog) *ListGroupsHandler {
	return &ListGroupsHandler{catalog: catalog}
}

// Handle returns the course groups, least loaded first.
func (h *ListGroupsHandler) Handle(ctx context.Context, q ListGroupsQuery) (*ListGroupsResult, error) {
	if q.CourseID == "" {
		return nil, shared.NewDomainError("query", "ListGroups", shared.ErrInvalidID, "course_id is required")
	}

	// Курс должен существовать даже если групп ещё нет.
	if _, err := h.catalog.GetCourse(ctx, q.CourseID); err != nil {
		return nil, err
	}

	loads, err := h.catalog.GroupsOf(ctx, q.CourseID)
	if err != nil {
		return nil, err
	}

	result := &ListGroupsResult{
		CourseID: q.CourseID,
		Groups:   make([]GroupDTO, 0, len(loads)),
	}
	for _, g := range loads {
		result.Groups = append(result.Groups, GroupDTO{
			ID:        g.ID,
			Title:     g.Title,
			Capacity:  g.Capacity,
			Members:   g.Members,
			CreatedAt: g.CreatedAt,
		})
	}
	return result, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Student's group
// ──────────────────────────────────────────────────────────────────────────────

// GetMembershipQuery contains the query parameters.
type GetMembershipQuery struct {
	// StudentID - студент.
	StudentID string

	// CourseID - курс.
	CourseID string
}

// MembershipDTO describes the student's placement in a course group.
type MembershipDTO struct {
	GroupID   string    `json:"group_id"`
	CourseID  string    `json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}

// GetMembershipHandler handles the GetMembershipQuery.
type GetMembershipHandler struct {
	enrollments enrollment.Repository
}

// NewGetMembershipHandler creates a new handler.
func NewGetMembershipHandler(enrollments enrollment.Repository) *GetMembershipHandler {
	return &GetMembershipHandler{enrollments: enrollments}
}

// Handle returns the student's group membership for a course.
func (h *GetMembershipHandler) Handle(ctx context.Context, q GetMembershipQuery) (*MembershipDTO, error) {
	if q.StudentID == "" || q.CourseID == "" {
		return nil, shared.NewDomainError("query", "GetMembership", shared.ErrInvalidID, "student_id and course_id are required")
	}

	m, err := h.enrollments.MembershipOf(ctx, q.StudentID, q.CourseID)
	if err != nil {
		return nil, err
	}

	return &MembershipDTO{
		GroupID:   m.GroupID,
		CourseID:  m.CourseID,
		CreatedAt: m.CreatedAt,
	}, nil
}
