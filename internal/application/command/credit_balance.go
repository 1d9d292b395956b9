package command

import (
	"context"
	"errors"

	"github.com/course-hub/course-market-hub/internal/domain/shared"
	"github.com/course-hub/course-market-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREDIT BALANCE COMMAND
// Административное пополнение бонусного баланса. Единственный способ
// увеличить баланс после регистрации: покупки только списывают.
// ══════════════════════════════════════════════════════════════════════════════

// CreditBalanceCommand contains the data to top up a balance.
type CreditBalanceCommand struct {
	// StudentID is the owner of the balance.
	StudentID string

	// Amount is the number of bonuses to add. Must be positive.
	Amount int
}

// Validate validates the command.
func (c CreditBalanceCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("credit_balance: student_id is required")
	}
	if c.Amount <= 0 {
		return errors.New("credit_balance: amount must be positive")
	}
	return nil
}

// CreditBalanceResult contains the result of a top-up.
type CreditBalanceResult struct {
	// StudentID is the owner of the balance.
	StudentID string

	// NewTotal is the balance after the credit.
	NewTotal int
}

// CreditBalanceHandler handles the CreditBalanceCommand.
type CreditBalanceHandler struct {
	studentRepo    student.Repository
	eventPublisher shared.EventPublisher
}

// NewCreditBalanceHandler creates a new CreditBalanceHandler.
func NewCreditBalanceHandler(studentRepo student.Repository, eventPublisher shared.EventPublisher) *CreditBalanceHandler {
	return &CreditBalanceHandler{
		studentRepo:    studentRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the credit balance command.
func (h *CreditBalanceHandler) Handle(ctx context.Context, cmd CreditBalanceCommand) (*CreditBalanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "CreditBalance", shared.ErrValidation, err.Error(), err)
	}

	balance, err := h.studentRepo.Credit(ctx, cmd.StudentID, student.Bonuses(cmd.Amount))
	if err != nil {
		return nil, err
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.Publish(shared.NewBalanceCreditedEvent(cmd.StudentID, cmd.Amount, balance.Bonuses.Int()))
	}

	return &CreditBalanceResult{
		StudentID: cmd.StudentID,
		NewTotal:  balance.Bonuses.Int(),
	}, nil
}
