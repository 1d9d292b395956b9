package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/course-hub/course-market-hub/internal/domain/course"
	"github.com/course-hub/course-market-hub/internal/domain/enrollment"
	"github.com/course-hub/course-market-hub/internal/domain/shared"
	"github.com/course-hub/course-market-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT STORE
// Транзакционное хранилище покупки. Блокировка строки курса (FOR UPDATE)
// сериализует конкурентные покупки одного курса; дебет выполняется
// guarded-апдейтом, подписка защищена уникальным индексом (студент, курс).
// ══════════════════════════════════════════════════════════════════════════════

// EnrollmentStore implements enrollment.Store and enrollment.Repository
// using PostgreSQL.
type EnrollmentStore struct {
	conn *Connection
}

// NewEnrollmentStore creates a new enrollment store.
func NewEnrollmentStore(conn *Connection) *EnrollmentStore {
	return &EnrollmentStore{conn: conn}
}

var (
	_ enrollment.Store      = (*EnrollmentStore)(nil)
	_ enrollment.Repository = (*EnrollmentStore)(nil)
)

// WithinPurchase executes fn inside a single database transaction.
// Serialization failures and deadlocks surface as shared.ErrTransientConflict
// so the enrollment service can retry them.
func (s *EnrollmentStore) WithinPurchase(ctx context.Context, fn func(tx enrollment.Tx) error) error {
	err := s.conn.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&purchaseTx{tx: tx})
	})
	if err != nil && IsSerializationFailure(err) {
		return shared.NewDomainError("enrollment", "WithinPurchase", shared.ErrTransientConflict, "purchase transaction conflicted")
	}
	return err
}

// ──────────────────────────────────────────────────────────────────────────────
// Read model
// ──────────────────────────────────────────────────────────────────────────────

// SubscribedCourseIDs returns the IDs of courses the student has purchased.
func (s *EnrollmentStore) SubscribedCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	query := `SELECT course_id FROM subscriptions WHERE student_id = $1`

	rows, err := s.conn.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan course id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsSubscribed reports whether the student holds a subscription to the course.
func (s *EnrollmentStore) IsSubscribed(ctx context.Context, studentID, courseID string) (bool, error) {
	return querySubscribed(ctx, s.conn, studentID, courseID)
}

// MembershipOf returns the student's group membership for a course.
func (s *EnrollmentStore) MembershipOf(ctx context.Context, studentID, courseID string) (*enrollment.Membership, error) {
	query := `
		SELECT id, student_id, group_id, course_id, created_at
		FROM memberships
		WHERE student_id = $1 AND course_id = $2
	`

	var m enrollment.Membership
	err := s.conn.QueryRow(ctx, query, studentID, courseID).
		Scan(&m.ID, &m.StudentID, &m.GroupID, &m.CourseID, &m.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to scan membership: %w", err)
	}
	return &m, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Purchase transaction
// ──────────────────────────────────────────────────────────────────────────────

// purchaseTx implements enrollment.Tx over a pgx transaction.
type purchaseTx struct {
	tx pgx.Tx
}

var _ enrollment.Tx = (*purchaseTx)(nil)

// GetCourse reads the course inside the transaction.
func (t *purchaseTx) GetCourse(ctx context.Context, courseID string) (*course.Course, error) {
	query := `
		SELECT id, author, title, start_at, price, is_available, created_at
		FROM courses
		WHERE id = $1
	`
	return scanCourse(t.tx.QueryRow(ctx, query, courseID))
}

// LockCourseAllocation takes a row lock on the course, serializing concurrent
// purchases of the same course for the rest of the transaction.
func (t *purchaseTx) LockCourseAllocation(ctx context.Context, courseID string) error {
	query := `SELECT id FROM courses WHERE id = $1 FOR UPDATE`

	var id string
	if err := t.tx.QueryRow(ctx, query, courseID).Scan(&id); err != nil {
		if IsNoRows(err) {
			return shared.ErrCourseNotFound
		}
		return fmt.Errorf("failed to lock course: %w", err)
	}
	return nil
}

// IsSubscribed reports whether a subscription (student, course) already exists.
func (t *purchaseTx) IsSubscribed(ctx context.Context, studentID, courseID string) (bool, error) {
	return querySubscribed(ctx, t.tx, studentID, courseID)
}

// GroupLoads reads the course groups with derived member counts.
func (t *purchaseTx) GroupLoads(ctx context.Context, courseID string) ([]course.GroupLoad, error) {
	return queryGroupLoads(ctx, t.tx, courseID)
}

// BalanceOf reads the student's current balance.
func (t *purchaseTx) BalanceOf(ctx context.Context, studentID string) (student.Bonuses, error) {
	query := `SELECT bonuses FROM balances WHERE student_id = $1`

	var bonuses int
	if err := t.tx.QueryRow(ctx, query, studentID).Scan(&bonuses); err != nil {
		if IsNoRows(err) {
			return 0, shared.ErrBalanceNotFound
		}
		return 0, fmt.Errorf("failed to scan balance: %w", err)
	}
	return student.Bonuses(bonuses), nil
}

// Debit decrements the balance with a guarded update so it can never go
// negative, even under concurrent purchases by the same student.
func (t *purchaseTx) Debit(ctx context.Context, studentID string, amount student.Bonuses) error {
	query := `
		UPDATE balances
		SET bonuses = bonuses - $2, updated_at = NOW()
		WHERE student_id = $1 AND bonuses >= $2
	`

	tag, err := t.tx.Exec(ctx, query, studentID, amount.Int())
	if err != nil {
		if IsCheckViolation(err) {
			return shared.ErrInsufficientBonuses
		}
		return fmt.Errorf("failed to debit balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrInsufficientBonuses
	}
	return nil
}

// CreateSubscription inserts the subscription. A losing racer hits the unique
// index on (student_id, course_id) and surfaces as shared.ErrAlreadyEnrolled.
func (t *purchaseTx) CreateSubscription(ctx context.Context, sub *enrollment.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, student_id, course_id, price_paid, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := t.tx.Exec(ctx, query, sub.ID, sub.StudentID, sub.CourseID, sub.PricePaid, sub.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyEnrolled
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// CreateGroup inserts a group opened by the allocator.
func (t *purchaseTx) CreateGroup(ctx context.Context, g *course.Group) error {
	query := `
		INSERT INTO groups (id, course_id, title, capacity, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := t.tx.Exec(ctx, query, g.ID, g.CourseID, g.Title, g.Capacity, g.CreatedAt); err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// CreateMembership inserts the student's group membership.
func (t *purchaseTx) CreateMembership(ctx context.Context, m *enrollment.Membership) error {
	query := `
		INSERT INTO memberships (id, student_id, group_id, course_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := t.tx.Exec(ctx, query, m.ID, m.StudentID, m.GroupID, m.CourseID, m.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyEnrolled
		}
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

func querySubscribed(ctx context.Context, q Querier, studentID, courseID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE student_id = $1 AND course_id = $2)`

	var exists bool
	if err := q.QueryRow(ctx, query, studentID, courseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return exists, nil
}
