package command

import (
	"context"
	"errors"

	"github.com/course-hub/course-market-hub/internal/domain/enrollment"
	"github.com/course-hub/course-market-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PURCHASE COURSE COMMAND
// Тонкая обёртка над enrollment.Service: вся бизнес-логика покупки (порядок
// проверок, атомарность, распределение в группу, повторы конфликтов) живёт
// в доменном сервисе.
// ══════════════════════════════════════════════════════════════════════════════

// PurchaseCourseCommand contains the data to purchase course access.
type PurchaseCourseCommand struct {
	// StudentID is the buying student.
	StudentID string

	// CourseID is the course to buy access to.
	CourseID string
}

// Validate validates the command.
func (c PurchaseCourseCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("purchase_course: student_id is required")
	}
	if c.CourseID == "" {
		return errors.New("purchase_course: course_id is required")
	}
	return nil
}

// PurchaseCourseResult contains the result of a purchase.
type PurchaseCourseResult struct {
	// SubscriptionID is the ID of the created subscription.
	SubscriptionID string

	// GroupID is the group the student was placed into.
	GroupID string

	// GroupTitle is the title of that group.
	GroupTitle string

	// NewGroupCreated is true if the purchase opened a new group.
	NewGroupCreated bool

	// PricePaid is the amount of bonuses debited.
	PricePaid int
}

// PurchaseCourseHandler handles the PurchaseCourseCommand.
type PurchaseCourseHandler struct {
	enrollmentSvc *enrollment.Service
}

// NewPurchaseCourseHandler creates a new PurchaseCourseHandler.
func NewPurchaseCourseHandler(enrollmentSvc *enrollment.Service) *PurchaseCourseHandler {
	return &PurchaseCourseHandler{enrollmentSvc: enrollmentSvc}
}

// Handle executes the purchase course command.
func (h *PurchaseCourseHandler) Handle(ctx context.Context, cmd PurchaseCourseCommand) (*PurchaseCourseResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "PurchaseCourse", shared.ErrValidation, err.Error(), err)
	}

	result, err := h.enrollmentSvc.Purchase(ctx, cmd.StudentID, cmd.CourseID)
	if err != nil {
		return nil, err
	}

	return &PurchaseCourseResult{
		SubscriptionID:  result.Subscription.ID,
		GroupID:         result.Placement.Group.ID,
		GroupTitle:      result.Placement.Group.Title,
		NewGroupCreated: result.Placement.CreatedGroup,
		PricePaid:       result.Subscription.PricePaid,
	}, nil
}
