package enrollment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/course-hub/course-market-hub/internal/domain/course"
	"github.com/course-hub/course-market-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ALLOCATION POLICY
// ══════════════════════════════════════════════════════════════════════════════

// Policy - настраиваемые лимиты распределения. Исторические значения
// (10 групп по 30 мест) - бизнес-правило без обоснования, поэтому лимиты
// вынесены в конфигурацию, а не зашиты литералами.
type Policy struct {
	// MaxGroupsPerCourse - максимальное количество групп на курс.
	MaxGroupsPerCourse int

	// GroupCapacity - вместимость каждой группы.
	GroupCapacity int
}

// DefaultPolicy возвращает лимиты по умолчанию.
func DefaultPolicy() Policy {
	return Policy{
		MaxGroupsPerCourse: 10,
		GroupCapacity:      30,
	}
}

// IsValid проверяет, что лимиты положительные.
func (p Policy) IsValid() bool {
	return p.MaxGroupsPerCourse > 0 && p.GroupCapacity > 0
}

// HasVacancy - гейт вместимости курса: либо можно открыть новую группу,
// либо хотя бы в одной существующей есть свободное место.
func (p Policy) HasVacancy(loads []course.GroupLoad) bool {
	if len(loads) < p.MaxGroupsPerCourse {
		return true
	}
	for _, g := range loads {
		if g.HasFreeSeat() {
			return true
		}
	}
	return false
}

// MaxEnrollments возвращает максимум студентов на курс.
func (p Policy) MaxEnrollments() int {
	return p.MaxGroupsPerCourse * p.GroupCapacity
}

// ══════════════════════════════════════════════════════════════════════════════
// ALLOCATOR
// ══════════════════════════════════════════════════════════════════════════════

// Allocator распределяет нового подписчика ровно в одну группу курса.
// Новые группы предпочитаются переполнению существующих, пока не достигнут
// лимит групп на курс - так когорты получаются сбалансированными по размеру.
type Allocator struct {
	policy Policy
}

// NewAllocator создаёт аллокатор с указанной политикой.
func NewAllocator(policy Policy) *Allocator {
	if !policy.IsValid() {
		policy = DefaultPolicy()
	}
	return &Allocator{policy: policy}
}

// Policy возвращает политику аллокатора.
func (a *Allocator) Policy() Policy {
	return a.policy
}

// Placement - результат распределения.
type Placement struct {
	// Membership - созданная запись членства.
	Membership *Membership

	// Group - группа, в которую попал студент.
	Group *course.Group

	// CreatedGroup - true, если группа была открыта этим распределением.
	CreatedGroup bool
}

// Place распределяет студента в группу курса внутри транзакции покупки.
// loads - группы курса, прочитанные той же транзакцией под блокировкой
// распределения, отсортированные по заполненности и возрасту.
//
// Алгоритм:
//  1. Если групп меньше лимита и (групп нет или наименее загруженная полна) -
//     открыть новую группу и поместить студента туда.
//  2. Иначе поместить в наименее загруженную группу со свободным местом.
//  3. Если мест нет нигде - shared.ErrCapacityExceeded (защитная ветка:
//     гейт вместимости в сервисе покупки не должен сюда пускать).
func (a *Allocator) Place(ctx context.Context, tx Tx, studentID string, c *course.Course, loads []course.GroupLoad) (*Placement, error) {
	leastLoadedFull := len(loads) == 0 || loads[0].Members >= loads[0].Capacity

	if len(loads) < a.policy.MaxGroupsPerCourse && leastLoadedFull {
		return a.placeIntoNewGroup(ctx, tx, studentID, c, len(loads)+1)
	}

	if len(loads) > 0 && loads[0].HasFreeSeat() {
		return a.placeIntoGroup(ctx, tx, studentID, &loads[0].Group, false)
	}

	return nil, shared.ErrCapacityExceeded
}

func (a *Allocator) placeIntoNewGroup(ctx context.Context, tx Tx, studentID string, c *course.Course, ordinal int) (*Placement, error) {
	title := fmt.Sprintf("%s - группа %d", c.Title, ordinal)
	g, err := course.NewGroup(uuid.New().String(), c.ID, title, a.policy.GroupCapacity)
	if err != nil {
		return nil, err
	}
	if err := tx.CreateGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("allocator: failed to create group: %w", err)
	}

	placement, err := a.placeIntoGroup(ctx, tx, studentID, g, true)
	if err != nil {
		return nil, err
	}
	return placement, nil
}

func (a *Allocator) placeIntoGroup(ctx context.Context, tx Tx, studentID string, g *course.Group, created bool) (*Placement, error) {
	m, err := NewMembership(uuid.New().String(), studentID, g.ID, g.CourseID)
	if err != nil {
		return nil, err
	}
	if err := tx.CreateMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("allocator: failed to create membership: %w", err)
	}

	return &Placement{
		Membership:   m,
		Group:        g,
		CreatedGroup: created,
	}, nil
}
