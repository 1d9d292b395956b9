// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/course-hub/course-market-hub/internal/domain/shared"
	"github.com/course-hub/course-market-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER STUDENT COMMAND
// Регистрирует нового студента. Вместе со студентом атомарно создаётся его
// бонусный баланс со стартовой суммой - "приветственные" бонусы, на которые
// покупается первый курс.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterStudentCommand contains the data to register a student.
type RegisterStudentCommand struct {
	// Email is the student's email address, unique across the marketplace.
	Email string

	// Password is the plaintext password; it is hashed before storage.
	Password string

	// FullName is the display name. Optional.
	FullName string
}

// Validate validates the command.
func (c RegisterStudentCommand) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return errors.New("register_student: email is required")
	}
	if len(c.Password) < 8 {
		return errors.New("register_student: password must be at least 8 characters")
	}
	return nil
}

// RegisterStudentResult contains the result of a registration.
type RegisterStudentResult struct {
	// StudentID is the ID of the created student.
	StudentID string

	// Email is the normalized email address.
	Email string

	// StartingBonuses is the amount credited to the new balance.
	StartingBonuses int
}

// RegisterStudentHandler handles the RegisterStudentCommand.
type RegisterStudentHandler struct {
	studentRepo     student.Repository
	eventPublisher  shared.EventPublisher
	startingBonuses student.Bonuses
}

// NewRegisterStudentHandler creates a new RegisterStudentHandler.
func NewRegisterStudentHandler(
	studentRepo student.Repository,
	eventPublisher shared.EventPublisher,
	startingBonuses int,
) *RegisterStudentHandler {
	return &RegisterStudentHandler{
		studentRepo:     studentRepo,
		eventPublisher:  eventPublisher,
		startingBonuses: student.Bonuses(startingBonuses),
	}
}

// Handle executes the register student command.
func (h *RegisterStudentHandler) Handle(ctx context.Context, cmd RegisterStudentCommand) (*RegisterStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "RegisterStudent", shared.ErrValidation, err.Error(), err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register_student: failed to hash password: %w", err)
	}

	s, err := student.NewStudent(student.NewStudentParams{
		ID:           uuid.New().String(),
		Email:        cmd.Email,
		PasswordHash: string(hash),
		FullName:     cmd.FullName,
	})
	if err != nil {
		return nil, err
	}

	if err := h.studentRepo.CreateWithBalance(ctx, s, h.startingBonuses); err != nil {
		return nil, err
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.Publish(shared.NewStudentRegisteredEvent(s.ID, s.Email, h.startingBonuses.Int()))
	}

	return &RegisterStudentResult{
		StudentID:       s.ID,
		Email:           s.Email,
		StartingBonuses: h.startingBonuses.Int(),
	}, nil
}
