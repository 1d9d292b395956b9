package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/course-hub/course-market-hub/internal/domain/shared"
	"github.com/course-hub/course-market-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository using PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

var _ student.Repository = (*StudentRepository)(nil)

// CreateWithBalance atomically inserts a student together with the starting
// balance row. A duplicate email maps to shared.ErrStudentAlreadyExists.
func (r *StudentRepository) CreateWithBalance(ctx context.Context, s *student.Student, starting student.Bonuses) error {
	return r.conn.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		insertStudent := `
			INSERT INTO students (id, email, password_hash, full_name, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		_, err := tx.Exec(ctx, insertStudent,
			s.ID, s.Email, s.PasswordHash, s.FullName, s.CreatedAt,
		)
		if err != nil {
			if IsUniqueViolation(err) {
				return shared.ErrStudentAlreadyExists
			}
			return fmt.Errorf("failed to create student: %w", err)
		}

		insertBalance := `
			INSERT INTO balances (student_id, bonuses, updated_at)
			VALUES ($1, $2, NOW())
		`
		if _, err := tx.Exec(ctx, insertBalance, s.ID, starting.Int()); err != nil {
			return fmt.Errorf("failed to create starting balance: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	query := `
		SELECT id, email, password_hash, full_name, created_at
		FROM students
		WHERE id = $1
	`
	return r.scanStudent(r.conn.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a student by email.
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*student.Student, error) {
	query := `
		SELECT id, email, password_hash, full_name, created_at
		FROM students
		WHERE email = $1
	`
	return r.scanStudent(r.conn.QueryRow(ctx, query, email))
}

// GetBalance retrieves the balance of a student.
func (r *StudentRepository) GetBalance(ctx context.Context, studentID string) (*student.Balance, error) {
	query := `
		SELECT student_id, bonuses, updated_at
		FROM balances
		WHERE student_id = $1
	`
	return r.scanBalance(r.conn.QueryRow(ctx, query, studentID))
}

// Credit atomically adds bonuses to a student's balance.
func (r *StudentRepository) Credit(ctx context.Context, studentID string, amount student.Bonuses) (*student.Balance, error) {
	query := `
		UPDATE balances
		SET bonuses = bonuses + $2, updated_at = NOW()
		WHERE student_id = $1
		RETURNING student_id, bonuses, updated_at
	`
	return r.scanBalance(r.conn.QueryRow(ctx, query, studentID, amount.Int()))
}

func (r *StudentRepository) scanStudent(row rowScanner) (*student.Student, error) {
	var s student.Student

	err := row.Scan(&s.ID, &s.Email, &s.PasswordHash, &s.FullName, &s.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}
	return &s, nil
}

func (r *StudentRepository) scanBalance(row rowScanner) (*student.Balance, error) {
	var b student.Balance
	var bonuses int

	err := row.Scan(&b.StudentID, &bonuses, &b.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrBalanceNotFound
		}
		return nil, fmt.Errorf("failed to scan balance: %w", err)
	}
	b.Bonuses = student.Bonuses(bonuses)
	return &b, nil
}
