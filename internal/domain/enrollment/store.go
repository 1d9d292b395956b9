package enrollment

import (
	"context"

	"github.com/course-hub/course-market-hub/internal/domain/course"
	"github.com/course-hub/course-market-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTIONAL STORE
// Store задаёт транзакционную границу покупки: проверки, списание бонусов,
// создание подписки и распределение в группу выполняются в одной транзакции.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Store предоставляет атомарное выполнение покупки.
type Store interface {
	// WithinPurchase выполняет fn внутри одной транзакции хранилища.
	// Если fn возвращает ошибку, все изменения откатываются.
	// Конфликты сериализации транслируются в shared.ErrTransientConflict.
	WithinPurchase(ctx context.Context, fn func(tx Tx) error) error
}

// Tx - операции, доступные внутри транзакции покупки.
// Все чтения согласованы с последующими записями той же транзакции.
type Tx interface {
	// GetCourse возвращает курс по ID.
	// Возвращает shared.ErrCourseNotFound, если курс не найден.
	GetCourse(ctx context.Context, courseID string) (*course.Course, error)

	// LockCourseAllocation сериализует распределение по группам данного курса:
	// конкурентные покупки одного курса выстраиваются друг за другом, поэтому
	// лимиты групп и мест не могут быть превышены гонкой.
	LockCourseAllocation(ctx context.Context, courseID string) error

	// IsSubscribed проверяет наличие подписки (студент, курс).
	IsSubscribed(ctx context.Context, studentID, courseID string) (bool, error)

	// GroupLoads возвращает группы курса с производными счётчиками участников,
	// отсортированные по заполненности, затем по возрасту группы.
	GroupLoads(ctx context.Context, courseID string) ([]course.GroupLoad, error)

	// BalanceOf возвращает текущий баланс студента.
	// Возвращает shared.ErrBalanceNotFound, если записи баланса нет.
	BalanceOf(ctx context.Context, studentID string) (student.Bonuses, error)

	// Debit атомарно списывает amount с баланса студента
	// (compare-and-decrement: баланс не может уйти в минус).
	// Возвращает shared.ErrInsufficientBonuses, если бонусов не хватает.
	Debit(ctx context.Context, studentID string, amount student.Bonuses) error

	// CreateSubscription сохраняет подписку.
	// Нарушение уникальности (студент, курс) транслируется
	// в shared.ErrAlreadyEnrolled.
	CreateSubscription(ctx context.Context, sub *Subscription) error

	// CreateGroup сохраняет новую группу, открытую аллокатором.
	CreateGroup(ctx context.Context, g *course.Group) error

	// CreateMembership сохраняет членство студента в группе.
	CreateMembership(ctx context.Context, m *Membership) error
}

// ══════════════════════════════════════════════════════════════════════════════
// READ MODEL
// ══════════════════════════════════════════════════════════════════════════════

// Repository - read-side операции над подписками и членствами,
// используемые запросами каталога вне транзакции покупки.
type Repository interface {
	// SubscribedCourseIDs возвращает ID курсов, купленных студентом.
	SubscribedCourseIDs(ctx context.Context, studentID string) ([]string, error)

	// IsSubscribed проверяет наличие подписки (студент, курс).
	IsSubscribed(ctx context.Context, studentID, courseID string) (bool, error)

	// MembershipOf возвращает членство студента в группе курса.
	// Возвращает shared.ErrGroupNotFound, если студент не распределён.
	MembershipOf(ctx context.Context, studentID, courseID string) (*Membership, error)
}
