package query

import (
	"context"
	"time"

	"github.com/course-hub/course-market-hub/internal/domain/shared"
	"github.com/course-hub/course-market-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET BALANCE QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetBalanceQuery contains the query parameters.
type GetBalanceQuery struct {
	// StudentID - владелец баланса.
	StudentID string
}

// BalanceDTO describes a student's bonus balance.
type BalanceDTO struct {
	StudentID string    `json:"student_id"`
	Bonuses   int       `json:"bonuses"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetBalanceHandler handles the GetBalanceQuery.
type GetBalanceHandler struct {
	studentRepo student.Repository
}

// NewGetBalanceHandler creates a new handler.
func NewGetBalanceHandler(studentRepo student.Repository) *GetBalanceHandler {
	return &GetBalanceHandler{studentRepo: studentRepo}
}

// Handle returns the student's balance.
func (h *GetBalanceHandler) Handle(ctx context.Context, q GetBalanceQuery) (*BalanceDTO, error) {
	if q.StudentID == "" {
		return nil, shared.NewDomainError("query", "GetBalance", shared.ErrInvalidID, "student_id is required")
	}

	b, err := h.studentRepo.GetBalance(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	return &BalanceDTO{
		StudentID: b.StudentID,
		Bonuses:   b.Bonuses.Int(),
		UpdatedAt: b.UpdatedAt,
	}, nil
}
