package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/course-hub/course-market-hub/internal/domain/course"
	"github.com/course-hub/course-market-hub/internal/domain/enrollment"
	"github.com/course-hub/course-market-hub/internal/domain/shared"
	"github.com/course-hub/course-market-hub/internal/domain/student"
)

func seedCourse(t *testing.T, s *Store, id string) {
	t.Helper()
	c, err := course.NewCourse(course.NewCourseParams{
		ID:          id,
		Author:      "author",
		Title:       "title " + id,
		StartAt:     time.Now(),
		Price:       100,
		IsAvailable: true,
	})
	require.NoError(t, err)
	require.NoError(t, s.CreateCourse(context.Background(), c))
}

func seedStudent(t *testing.T, s *Store, id string, bonuses int) {
	t.Helper()
	st, err := student.NewStudent(student.NewStudentParams{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NoError(t, s.CreateWithBalance(context.Background(), st, student.Bonuses(bonuses)))
}

func TestCreateWithBalanceRejectsDuplicateEmail(t *testing.T) {
	s := NewStore()
	seedStudent(t, s, "s1", 1000)

	dup, err := student.NewStudent(student.NewStudentParams{
		ID:           "s2",
		Email:        "s1@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	err = s.CreateWithBalance(context.Background(), dup, 1000)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// Неудачная регистрация не оставляет баланса.
	_, err = s.GetBalance(context.Background(), "s2")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFailedPurchaseLeavesNoTrace(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCourse(t, s, "c1")
	seedStudent(t, s, "s1", 1000)

	boom := errors.New("boom")
	err := s.WithinPurchase(ctx, func(tx enrollment.Tx) error {
		require.NoError(t, tx.Debit(ctx, "s1", 100))

		sub, err := enrollment.NewSubscription("sub1", "s1", "c1", 100)
		require.NoError(t, err)
		require.NoError(t, tx.CreateSubscription(ctx, sub))

		g, err := course.NewGroup("g1", "c1", "группа 1", 30)
		require.NoError(t, err)
		require.NoError(t, tx.CreateGroup(ctx, g))

		m, err := enrollment.NewMembership("m1", "s1", "g1", "c1")
		require.NoError(t, err)
		require.NoError(t, tx.CreateMembership(ctx, m))

		return boom
	})
	require.ErrorIs(t, err, boom)

	b, err := s.GetBalance(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, student.Bonuses(1000), b.Bonuses)

	subscribed, err := s.IsSubscribed(ctx, "s1", "c1")
	require.NoError(t, err)
	assert.False(t, subscribed)

	loads, err := s.GroupsOf(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, loads)
}

func TestPurchaseTxSeesOwnWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCourse(t, s, "c1")
	seedStudent(t, s, "s1", 1000)

	err := s.WithinPurchase(ctx, func(tx enrollment.Tx) error {
		require.NoError(t, tx.Debit(ctx, "s1", 400))

		balance, err := tx.BalanceOf(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, student.Bonuses(600), balance)

		g, err := course.NewGroup("g1", "c1", "группа 1", 30)
		require.NoError(t, err)
		require.NoError(t, tx.CreateGroup(ctx, g))

		m, err := enrollment.NewMembership("m1", "s1", "g1", "c1")
		require.NoError(t, err)
		require.NoError(t, tx.CreateMembership(ctx, m))

		loads, err := tx.GroupLoads(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, loads, 1)
		assert.Equal(t, 1, loads[0].Members)

		return nil
	})
	require.NoError(t, err)

	b, err := s.GetBalance(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, student.Bonuses(600), b.Bonuses)
}

func TestDebitGuardsAgainstOverdraft(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedStudent(t, s, "s1", 100)

	err := s.WithinPurchase(ctx, func(tx enrollment.Tx) error {
		require.NoError(t, tx.Debit(ctx, "s1", 60))
		return tx.Debit(ctx, "s1", 60)
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientFunds)
}

func TestGroupLoadsOrdering(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCourse(t, s, "c1")
	seedStudent(t, s, "s1", 0)
	seedStudent(t, s, "s2", 0)
	seedStudent(t, s, "s3", 0)

	err := s.WithinPurchase(ctx, func(tx enrollment.Tx) error {
		older, err := course.NewGroup("older", "c1", "группа 1", 30)
		require.NoError(t, err)
		require.NoError(t, tx.CreateGroup(ctx, older))

		time.Sleep(time.Millisecond)

		newer, err := course.NewGroup("newer", "c1", "группа 2", 30)
		require.NoError(t, err)
		require.NoError(t, tx.CreateGroup(ctx, newer))

		for _, sid := range []string{"s1", "s2"} {
			m, err := enrollment.NewMembership("m"+sid, sid, "newer", "c1")
			require.NoError(t, err)
			require.NoError(t, tx.CreateMembership(ctx, m))
		}
		m, err := enrollment.NewMembership("ms3", "s3", "older", "c1")
		require.NoError(t, err)
		return tx.CreateMembership(ctx, m)
	})
	require.NoError(t, err)

	loads, err := s.GroupsOf(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, loads, 2)

	// Наименее загруженная первой.
	assert.Equal(t, "older", loads[0].ID)
	assert.Equal(t, 1, loads[0].Members)
	assert.Equal(t, 2, loads[1].Members)
}

func TestSubscribedCourseIDs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedCourse(t, s, "c1")
	seedCourse(t, s, "c2")
	seedStudent(t, s, "s1", 1000)

	err := s.WithinPurchase(ctx, func(tx enrollment.Tx) error {
		for _, cid := range []string{"c1", "c2"} {
			sub, err := enrollment.NewSubscription("sub-"+cid, "s1", cid, 100)
			require.NoError(t, err)
			require.NoError(t, tx.CreateSubscription(ctx, sub))
		}
		return nil
	})
	require.NoError(t, err)

	ids, err := s.SubscribedCourseIDs(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, ids)
}
