package student

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над студентами и их балансами.
//
// Списание бонусов при покупке здесь намеренно отсутствует: оно выполняется
// только внутри транзакции покупки (см. enrollment.Tx.Debit), чтобы дебет и
// создание подписки были атомарны.
type Repository interface {
	// CreateWithBalance атомарно создаёт студента и его стартовый баланс.
	// Возвращает shared.ErrStudentAlreadyExists при конфликте email.
	CreateWithBalance(ctx context.Context, s *Student, starting Bonuses) error

	// GetByID возвращает студента по ID.
	// Возвращает shared.ErrStudentNotFound, если студент не найден.
	GetByID(ctx context.Context, id string) (*Student, error)

	// GetByEmail возвращает студента по email.
	// Возвращает shared.ErrStudentNotFound, если студент не найден.
	GetByEmail(ctx context.Context, email string) (*Student, error)

	// GetBalance возвращает баланс студента.
	// Возвращает shared.ErrBalanceNotFound, если записи баланса нет.
	GetBalance(ctx context.Context, studentID string) (*Balance, error)

	// Credit атомарно пополняет баланс студента.
	// Возвращает shared.ErrBalanceNotFound, если записи баланса нет.
	Credit(ctx context.Context, studentID string, amount Bonuses) (*Balance, error)
}
