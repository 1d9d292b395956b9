package enrollment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/course-hub/course-market-hub/internal/domain/shared"
	"github.com/course-hub/course-market-hub/internal/domain/student"
	"github.com/course-hub/course-market-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT SERVICE
// Единственная точка входа для покупки курса. Все проверки и запись
// выполняются в одной транзакции хранилища; распределение в группу -
// прямой синхронный вызов аллокатора внутри той же транзакции,
// а не реактивный хук на создание подписки.
// ══════════════════════════════════════════════════════════════════════════════

// Service оркестрирует покупку: проверки допуска, гейт вместимости,
// списание бонусов, создание подписки и распределение в группу.
type Service struct {
	store     Store
	allocator *Allocator
	publisher shared.EventPublisher
	retrier   *retry.Retrier
	log       *zap.Logger
}

// ServiceOption настраивает сервис покупки.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	maxAttempts int
}

// WithPurchaseAttempts ограничивает количество попыток покупки
// при конфликте сериализации.
func WithPurchaseAttempts(n int) ServiceOption {
	return func(c *serviceConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// NewService создаёт сервис покупки.
// publisher может быть nil - тогда события не публикуются.
func NewService(store Store, allocator *Allocator, publisher shared.EventPublisher, log *zap.Logger, opts ...ServiceOption) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := serviceConfig{maxAttempts: 3}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Service{
		store:     store,
		allocator: allocator,
		publisher: publisher,
		log:       log,
		retrier: retry.New(
			retry.WithMaxAttempts(cfg.maxAttempts),
			retry.WithRetryIf(shared.IsRetryable),
		),
	}
}

// Policy возвращает действующую политику распределения.
func (s *Service) Policy() Policy {
	return s.allocator.Policy()
}

// PurchaseResult - результат успешной покупки.
type PurchaseResult struct {
	// Subscription - созданная подписка.
	Subscription *Subscription

	// Placement - распределение в группу.
	Placement *Placement
}

// Purchase выполняет покупку доступа к курсу.
//
// Проверки выполняются строго по порядку, первая сработавшая прерывает
// покупку (порядок наблюдаем снаружи):
//  1. курс существует                  - shared.ErrCourseNotFound
//  2. подписки ещё нет                 - shared.ErrAlreadyEnrolled
//  3. курс доступен                    - shared.ErrCourseUnavailable
//  4. есть места в потоке курса        - shared.ErrNoVacancy
//  5. хватает бонусов                  - shared.ErrInsufficientBonuses
//  6. коммит: списание + подписка + распределение, атомарно.
//
// Конфликт сериализации повторяется ограниченное число раз; если попытки
// исчерпаны, наружу уходит shared.ErrTransientConflict.
func (s *Service) Purchase(ctx context.Context, studentID, courseID string) (*PurchaseResult, error) {
	if studentID == "" || courseID == "" {
		return nil, shared.NewDomainError("enrollment", "Purchase", shared.ErrInvalidID, "student and course ids are required")
	}

	var result *PurchaseResult
	start := time.Now()

	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		r, err := s.purchaseOnce(ctx, studentID, courseID)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("course purchased",
		zap.String("student_id", studentID),
		zap.String("course_id", courseID),
		zap.String("group_id", result.Placement.Group.ID),
		zap.Bool("new_group", result.Placement.CreatedGroup),
		zap.Duration("took", time.Since(start)),
	)
	s.publishPurchaseEvents(result)

	return result, nil
}

// purchaseOnce выполняет одну транзакционную попытку покупки.
func (s *Service) purchaseOnce(ctx context.Context, studentID, courseID string) (*PurchaseResult, error) {
	var result *PurchaseResult

	err := s.store.WithinPurchase(ctx, func(tx Tx) error {
		// 1. Курс существует.
		c, err := tx.GetCourse(ctx, courseID)
		if err != nil {
			return err
		}

		// Сериализуем распределение по этому курсу: дальнейшие чтения
		// счётчиков групп согласованы с нашей записью.
		if err := tx.LockCourseAllocation(ctx, courseID); err != nil {
			return err
		}

		// 2. Подписки ещё нет.
		subscribed, err := tx.IsSubscribed(ctx, studentID, courseID)
		if err != nil {
			return err
		}
		if subscribed {
			return shared.ErrAlreadyEnrolled
		}

		// 3. Курс доступен для покупки.
		if !c.IsAvailable {
			return shared.ErrCourseUnavailable
		}

		// 4. Гейт вместимости.
		loads, err := tx.GroupLoads(ctx, courseID)
		if err != nil {
			return err
		}
		if !s.allocator.Policy().HasVacancy(loads) {
			return shared.ErrNoVacancy
		}

		// 5. Хватает бонусов.
		balance, err := tx.BalanceOf(ctx, studentID)
		if err != nil {
			return err
		}
		price := student.Bonuses(c.Price.Int())
		if !balance.CanAfford(price) {
			return shared.ErrInsufficientBonuses
		}

		// 6. Коммит: списание, подписка, распределение.
		if err := tx.Debit(ctx, studentID, price); err != nil {
			return err
		}

		sub, err := NewSubscription(uuid.New().String(), studentID, courseID, c.Price.Int())
		if err != nil {
			return err
		}
		if err := tx.CreateSubscription(ctx, sub); err != nil {
			return err
		}

		placement, err := s.allocator.Place(ctx, tx, studentID, c, loads)
		if err != nil {
			return err
		}

		result = &PurchaseResult{Subscription: sub, Placement: placement}
		return nil
	})
	if err != nil {
		if shared.IsRetryable(err) {
			s.log.Warn("purchase transaction conflicted, retrying",
				zap.String("student_id", studentID),
				zap.String("course_id", courseID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	return result, nil
}

// publishPurchaseEvents публикует события после коммита транзакции.
func (s *Service) publishPurchaseEvents(r *PurchaseResult) {
	if s.publisher == nil {
		return
	}

	if r.Placement.CreatedGroup {
		g := r.Placement.Group
		_ = s.publisher.Publish(shared.NewGroupCreatedEvent(g.ID, g.CourseID, g.Title, g.Capacity))
	}
	sub := r.Subscription
	_ = s.publisher.Publish(shared.NewSubscriptionCreatedEvent(
		sub.ID, sub.StudentID, sub.CourseID, r.Placement.Group.ID, sub.PricePaid,
	))
}
