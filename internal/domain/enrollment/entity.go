// Package enrollment содержит ядро маркетплейса: покупку доступа к курсу,
// подписки и распределение студентов по группам с ограниченной вместимостью.
package enrollment

import (
	"time"

	"github.com/course-hub/course-market-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBSCRIPTION
// ══════════════════════════════════════════════════════════════════════════════

// Subscription - подписка студента на курс. Создаётся только сервисом покупки
// после успешного списания бонусов; после создания неизменяема (возвратов нет).
// Пара (студент, курс) уникальна.
type Subscription struct {
	// ID - уникальный идентификатор подписки.
	ID string

	// StudentID - студент, купивший курс.
	StudentID string

	// CourseID - купленный курс.
	CourseID string

	// PricePaid - сколько бонусов было списано при покупке.
	PricePaid int

	// CreatedAt - время покупки.
	CreatedAt time.Time
}

// NewSubscription создаёт подписку с валидацией.
func NewSubscription(id, studentID, courseID string, pricePaid int) (*Subscription, error) {
	if id == "" || studentID == "" || courseID == "" {
		return nil, shared.NewDomainError("enrollment", "Subscribe", shared.ErrInvalidID, "subscription, student and course ids are required")
	}
	if pricePaid < 0 {
		return nil, shared.NewDomainError("enrollment", "Subscribe", shared.ErrNegativeValue, "price paid cannot be negative")
	}

	return &Subscription{
		ID:        id,
		StudentID: studentID,
		CourseID:  courseID,
		PricePaid: pricePaid,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MEMBERSHIP
// ══════════════════════════════════════════════════════════════════════════════

// Membership - членство студента в группе курса. Создаётся только аллокатором
// как побочный эффект новой подписки; не больше одной группы на (студент, курс).
type Membership struct {
	// ID - уникальный идентификатор записи членства.
	ID string

	// StudentID - студент.
	StudentID string

	// GroupID - группа, в которую распределён студент.
	GroupID string

	// CourseID - курс группы; дублируется для уникального ограничения
	// (студент, курс).
	CourseID string

	// CreatedAt - время распределения.
	CreatedAt time.Time
}

// NewMembership создаёт членство с валидацией.
func NewMembership(id, studentID, groupID, courseID string) (*Membership, error) {
	if id == "" || studentID == "" || groupID == "" || courseID == "" {
		return nil, shared.NewDomainError("enrollment", "Allocate", shared.ErrInvalidID, "membership, student, group and course ids are required")
	}

	return &Membership{
		ID:        id,
		StudentID: studentID,
		GroupID:   groupID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	}, nil
}
