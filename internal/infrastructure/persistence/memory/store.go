// Package memory provides an in-memory implementation of the persistence
// interfaces. It backs tests and local development without PostgreSQL and
// mirrors the transactional semantics of the SQL store: a purchase either
// applies entirely or not at all.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/course-hub/course-market-hub/internal/domain/course"
	"github.com/course-hub/course-market-hub/internal/domain/enrollment"
	"github.com/course-hub/course-market-hub/internal/domain/shared"
	"github.com/course-hub/course-market-hub/internal/domain/student"
)

// Store is an in-memory implementation of course.Catalog, student.Repository,
// enrollment.Store and enrollment.Repository.
type Store struct {
	mu sync.RWMutex

	courses  map[string]course.Course
	lessons  map[string]course.Lesson
	groups   map[string]course.Group
	students map[string]student.Student
	emails   map[string]string // email -> student id
	balances map[string]student.Balance

	subscriptions map[string]enrollment.Subscription
	subIndex      map[string]string // student|course -> subscription id
	memberships   map[string]enrollment.Membership
	memberIndex   map[string]string // student|course -> membership id
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		courses:       make(map[string]course.Course),
		lessons:       make(map[string]course.Lesson),
		groups:        make(map[string]course.Group),
		students:      make(map[string]student.Student),
		emails:        make(map[string]string),
		balances:      make(map[string]student.Balance),
		subscriptions: make(map[string]enrollment.Subscription),
		subIndex:      make(map[string]string),
		memberships:   make(map[string]enrollment.Membership),
		memberIndex:   make(map[string]string),
	}
}

var (
	_ course.Catalog        = (*Store)(nil)
	_ student.Repository    = (*Store)(nil)
	_ enrollment.Store      = (*Store)(nil)
	_ enrollment.Repository = (*Store)(nil)
)

func pairKey(studentID, courseID string) string {
	return studentID + "|" + courseID
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// CreateCourse stores a new course.
func (s *Store) CreateCourse(ctx context.Context, c *course.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.courses[c.ID]; exists {
		return shared.NewDomainError("course", "CreateCourse", shared.ErrAlreadyExists, "course already exists")
	}
	s.courses[c.ID] = *c
	return nil
}

// GetCourse returns a course by ID.
func (s *Store) GetCourse(ctx context.Context, id string) (*course.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return nil, shared.ErrCourseNotFound
	}
	return &c, nil
}

// ListCourses returns all courses, newest first.
func (s *Store) ListCourses(ctx context.Context) ([]*course.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	courses := make([]*course.Course, 0, len(s.courses))
	for _, c := range s.courses {
		c := c
		courses = append(courses, &c)
	}
	sort.Slice(courses, func(i, j int) bool {
		return courses[i].CreatedAt.After(courses[j].CreatedAt)
	})
	return courses, nil
}

// SetAvailability toggles the course availability flag.
func (s *Store) SetAvailability(ctx context.Context, id string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[id]
	if !ok {
		return shared.ErrCourseNotFound
	}
	c.IsAvailable = available
	s.courses[id] = c
	return nil
}

// CreateLesson stores a lesson for an existing course.
func (s *Store) CreateLesson(ctx context.Context, l *course.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[l.CourseID]; !ok {
		return shared.ErrCourseNotFound
	}
	s.lessons[l.ID] = *l
	return nil
}

// ListLessons returns the lessons of a course in creation order.
func (s *Store) ListLessons(ctx context.Context, courseID string) ([]*course.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lessons []*course.Lesson
	for _, l := range s.lessons {
		if l.CourseID == courseID {
			l := l
			lessons = append(lessons, &l)
		}
	}
	sort.Slice(lessons, func(i, j int) bool {
		return lessons[i].CreatedAt.Before(lessons[j].CreatedAt)
	})
	return lessons, nil
}

// GroupsOf returns the groups of a course with derived member counts.
func (s *Store) GroupsOf(ctx context.Context, courseID string) ([]course.GroupLoad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupLoadsLocked(courseID, nil), nil
}

// groupLoadsLocked computes group loads, including any staged state of an
// in-flight purchase transaction. Caller must hold the lock.
func (s *Store) groupLoadsLocked(courseID string, staged *purchaseTx) []course.GroupLoad {
	counts := make(map[string]int)
	for _, m := range s.memberships {
		counts[m.GroupID]++
	}

	var loads []course.GroupLoad
	for _, g := range s.groups {
		if g.CourseID == courseID {
			loads = append(loads, course.GroupLoad{Group: g, Members: counts[g.ID]})
		}
	}
	if staged != nil {
		stagedCounts := make(map[string]int)
		for _, m := range staged.newMemberships {
			stagedCounts[m.GroupID]++
		}
		for i := range loads {
			loads[i].Members += stagedCounts[loads[i].ID]
		}
		for _, g := range staged.newGroups {
			if g.CourseID == courseID {
				loads = append(loads, course.GroupLoad{Group: *g, Members: stagedCounts[g.ID]})
			}
		}
	}

	sort.Slice(loads, func(i, j int) bool {
		if loads[i].Members != loads[j].Members {
			return loads[i].Members < loads[j].Members
		}
		return loads[i].CreatedAt.Before(loads[j].CreatedAt)
	})
	return loads
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

// CreateWithBalance atomically stores a student and the starting balance.
func (s *Store) CreateWithBalance(ctx context.Context, st *student.Student, starting student.Bonuses) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[st.Email]; taken {
		return shared.ErrStudentAlreadyExists
	}
	if _, exists := s.students[st.ID]; exists {
		return shared.ErrStudentAlreadyExists
	}

	balance, err := student.NewBalance(st.ID, starting)
	if err != nil {
		return err
	}

	s.students[st.ID] = *st
	s.emails[st.Email] = st.ID
	s.balances[st.ID] = *balance
	return nil
}

// GetByID returns a student by ID.
func (s *Store) GetByID(ctx context.Context, id string) (*student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.students[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return &st, nil
}

// GetByEmail returns a student by email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	st := s.students[id]
	return &st, nil
}

// GetBalance returns the balance of a student.
func (s *Store) GetBalance(ctx context.Context, studentID string) (*student.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.balances[studentID]
	if !ok {
		return nil, shared.ErrBalanceNotFound
	}
	return &b, nil
}

// Credit atomically adds bonuses to a student's balance.
func (s *Store) Credit(ctx context.Context, studentID string, amount student.Bonuses) (*student.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.balances[studentID]
	if !ok {
		return nil, shared.ErrBalanceNotFound
	}
	b.Bonuses += amount
	s.balances[studentID] = b
	return &b, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PURCHASE TRANSACTION
// ══════════════════════════════════════════════════════════════════════════════

// WithinPurchase executes fn under the store lock with staged writes. The
// staged diff is applied only if fn returns nil, so a failed purchase leaves
// no trace. Holding the lock for the whole callback serializes concurrent
// purchases the way the SQL store's row lock does.
func (s *Store) WithinPurchase(ctx context.Context, fn func(tx enrollment.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &purchaseTx{
		store:  s,
		debits: make(map[string]student.Bonuses),
	}
	if err := fn(tx); err != nil {
		return err
	}

	tx.applyLocked()
	return nil
}

// purchaseTx stages purchase writes until commit.
type purchaseTx struct {
	store *Store

	debits         map[string]student.Bonuses
	newSubs        []*enrollment.Subscription
	newGroups      []*course.Group
	newMemberships []*enrollment.Membership
}

var _ enrollment.Tx = (*purchaseTx)(nil)

// applyLocked commits the staged diff. Caller must hold the store lock.
func (t *purchaseTx) applyLocked() {
	s := t.store
	for id, amount := range t.debits {
		b := s.balances[id]
		b.Bonuses -= amount
		s.balances[id] = b
	}
	for _, g := range t.newGroups {
		s.groups[g.ID] = *g
	}
	for _, sub := range t.newSubs {
		s.subscriptions[sub.ID] = *sub
		s.subIndex[pairKey(sub.StudentID, sub.CourseID)] = sub.ID
	}
	for _, m := range t.newMemberships {
		s.memberships[m.ID] = *m
		s.memberIndex[pairKey(m.StudentID, m.CourseID)] = m.ID
	}
}

// GetCourse reads the course.
func (t *purchaseTx) GetCourse(ctx context.Context, courseID string) (*course.Course, error) {
	c, ok := t.store.courses[courseID]
	if !ok {
		return nil, shared.ErrCourseNotFound
	}
	return &c, nil
}

// LockCourseAllocation is a no-op here: the store lock held by WithinPurchase
// already serializes concurrent purchases.
func (t *purchaseTx) LockCourseAllocation(ctx context.Context, courseID string) error {
	if _, ok := t.store.courses[courseID]; !ok {
		return shared.ErrCourseNotFound
	}
	return nil
}

// IsSubscribed reports whether a subscription exists, staged writes included.
func (t *purchaseTx) IsSubscribed(ctx context.Context, studentID, courseID string) (bool, error) {
	if _, ok := t.store.subIndex[pairKey(studentID, courseID)]; ok {
		return true, nil
	}
	for _, sub := range t.newSubs {
		if sub.StudentID == studentID && sub.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

// GroupLoads returns group loads, staged writes included.
func (t *purchaseTx) GroupLoads(ctx context.Context, courseID string) ([]course.GroupLoad, error) {
	return t.store.groupLoadsLocked(courseID, t), nil
}

// BalanceOf returns the balance net of staged debits.
func (t *purchaseTx) BalanceOf(ctx context.Context, studentID string) (student.Bonuses, error) {
	b, ok := t.store.balances[studentID]
	if !ok {
		return 0, shared.ErrBalanceNotFound
	}
	return b.Bonuses - t.debits[studentID], nil
}

// Debit stages a balance decrement, refusing to go negative.
func (t *purchaseTx) Debit(ctx context.Context, studentID string, amount student.Bonuses) error {
	current, err := t.BalanceOf(ctx, studentID)
	if err != nil {
		return err
	}
	if !current.CanAfford(amount) {
		return shared.ErrInsufficientBonuses
	}
	t.debits[studentID] += amount
	return nil
}

// CreateSubscription stages a subscription, enforcing (student, course)
// uniqueness like the SQL unique index does.
func (t *purchaseTx) CreateSubscription(ctx context.Context, sub *enrollment.Subscription) error {
	subscribed, err := t.IsSubscribed(ctx, sub.StudentID, sub.CourseID)
	if err != nil {
		return err
	}
	if subscribed {
		return shared.ErrAlreadyEnrolled
	}
	t.newSubs = append(t.newSubs, sub)
	return nil
}

// CreateGroup stages a new group.
func (t *purchaseTx) CreateGroup(ctx context.Context, g *course.Group) error {
	t.newGroups = append(t.newGroups, g)
	return nil
}

// CreateMembership stages a membership, enforcing (student, course) uniqueness.
func (t *purchaseTx) CreateMembership(ctx context.Context, m *enrollment.Membership) error {
	if _, ok := t.store.memberIndex[pairKey(m.StudentID, m.CourseID)]; ok {
		return shared.ErrAlreadyEnrolled
	}
	for _, staged := range t.newMemberships {
		if staged.StudentID == m.StudentID && staged.CourseID == m.CourseID {
			return shared.ErrAlreadyEnrolled
		}
	}
	t.newMemberships = append(t.newMemberships, m)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT READ MODEL
// ══════════════════════════════════════════════════════════════════════════════

// SubscribedCourseIDs returns the IDs of courses the student has purchased.
func (s *Store) SubscribedCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, sub := range s.subscriptions {
		if sub.StudentID == studentID {
			ids = append(ids, sub.CourseID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// IsSubscribed reports whether the student holds a subscription to the course.
func (s *Store) IsSubscribed(ctx context.Context, studentID, courseID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.subIndex[pairKey(studentID, courseID)]
	return ok, nil
}

// MembershipOf returns the student's group membership for a course.
func (s *Store) MembershipOf(ctx context.Context, studentID, courseID string) (*enrollment.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.memberIndex[pairKey(studentID, courseID)]
	if !ok {
		return nil, shared.ErrGroupNotFound
	}
	m := s.memberships[id]
	return &m, nil
}
