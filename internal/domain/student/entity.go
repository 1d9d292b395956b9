// Package student содержит доменную модель студента и его бонусного баланса.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package student

import (
	"strings"
	"time"

	"github.com/course-hub/course-market-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Bonuses представляет внутреннюю валюту, которой оплачиваются курсы.
type Bonuses int

// IsValid проверяет, что количество бонусов неотрицательное.
func (b Bonuses) IsValid() bool {
	return b >= 0
}

// CanAfford проверяет, хватает ли бонусов на указанную сумму.
func (b Bonuses) CanAfford(amount Bonuses) bool {
	return b >= amount
}

// Int возвращает целочисленное представление.
func (b Bonuses) Int() int {
	return int(b)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student - пользователь маркетплейса, покупающий доступ к курсам.
type Student struct {
	// ID - уникальный идентификатор (UUID в строковом формате).
	ID string

	// Email - адрес электронной почты, уникален.
	Email string

	// PasswordHash - bcrypt-хэш пароля.
	PasswordHash string

	// FullName - отображаемое имя.
	FullName string

	// CreatedAt - время регистрации.
	CreatedAt time.Time
}

// NewStudentParams - параметры для создания студента.
type NewStudentParams struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
}

// NewStudent создаёт нового студента с валидацией.
func NewStudent(p NewStudentParams) (*Student, error) {
	if p.ID == "" {
		return nil, shared.NewDomainError("student", "Create", shared.ErrInvalidID, "student id is required")
	}
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if !isValidEmail(email) {
		return nil, shared.NewDomainError("student", "Create", shared.ErrInvalidInput, "invalid email address")
	}
	if p.PasswordHash == "" {
		return nil, shared.NewDomainError("student", "Create", shared.ErrEmptyValue, "password hash is required")
	}

	return &Student{
		ID:           p.ID,
		Email:        email,
		PasswordHash: p.PasswordHash,
		FullName:     strings.TrimSpace(p.FullName),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\n\r") && strings.Contains(email[at+1:], ".")
}

// ══════════════════════════════════════════════════════════════════════════════
// BALANCE
// ══════════════════════════════════════════════════════════════════════════════

// Balance - бонусный баланс студента (один-к-одному).
// Создаётся вместе со студентом; списывается только сервисом покупки.
type Balance struct {
	// StudentID - владелец баланса.
	StudentID string

	// Bonuses - текущее количество бонусов. Никогда не уходит в минус.
	Bonuses Bonuses

	// UpdatedAt - время последнего изменения.
	UpdatedAt time.Time
}

// NewBalance создаёт баланс со стартовым количеством бонусов.
func NewBalance(studentID string, starting Bonuses) (*Balance, error) {
	if studentID == "" {
		return nil, shared.NewDomainError("student", "CreateBalance", shared.ErrInvalidID, "student id is required")
	}
	if !starting.IsValid() {
		return nil, shared.NewDomainError("student", "CreateBalance", shared.ErrNegativeValue, "starting bonuses cannot be negative")
	}

	return &Balance{
		StudentID: studentID,
		Bonuses:   starting,
		UpdatedAt: time.Now().UTC(),
	}, nil
}
