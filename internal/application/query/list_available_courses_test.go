package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/course-hub/course-market-hub/internal/application/query"
	"github.com/course-hub/course-market-hub/internal/domain/course"
	"github.com/course-hub/course-market-hub/internal/domain/enrollment"
	"github.com/course-hub/course-market-hub/internal/domain/student"
	"github.com/course-hub/course-market-hub/internal/infrastructure/persistence/memory"
)

func seedCourse(t *testing.T, store *memory.Store, id string, price int, available bool) {
	t.Helper()
	c, err := course.NewCourse(course.NewCourseParams{
		ID:          id,
		Author:      "Анна Петрова",
		Title:       "Курс " + id,
		StartAt:     time.Now().Add(24 * time.Hour),
		Price:       course.Price(price),
		IsAvailable: available,
	})
	require.NoError(t, err)
	require.NoError(t, store.CreateCourse(context.Background(), c))
}

func seedStudent(t *testing.T, store *memory.Store, id string, bonuses int) {
	t.Helper()
	s, err := student.NewStudent(student.NewStudentParams{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NoError(t, store.CreateWithBalance(context.Background(), s, student.Bonuses(bonuses)))
}

func TestListAvailableCoursesFiltering(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	policy := enrollment.Policy{MaxGroupsPerCourse: 1, GroupCapacity: 1}
	svc := enrollment.NewService(store, enrollment.NewAllocator(policy), nil, nil)

	seedStudent(t, store, "viewer", 1000)
	seedStudent(t, store, "other", 1000)

	seedCourse(t, store, "open", 100, true)
	seedCourse(t, store, "closed", 100, false)
	seedCourse(t, store, "bought", 100, true)
	seedCourse(t, store, "full", 100, true)

	_, err := svc.Purchase(ctx, "viewer", "bought")
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, "other", "full")
	require.NoError(t, err)

	h := query.NewListAvailableCoursesHandler(store, store, policy)
	result, err := h.Handle(ctx, query.ListAvailableCoursesQuery{StudentID: "viewer"})
	require.NoError(t, err)

	require.Len(t, result.Courses, 1)
	assert.Equal(t, "open", result.Courses[0].ID)
	assert.Equal(t, 1, result.Courses[0].FreeSeats)
}

// Дорогой курс остаётся в витрине: баланс проверяется только при покупке.
func TestListAvailableCoursesIgnoresBalance(t *testing.T) {
	store := memory.NewStore()
	seedStudent(t, store, "poor", 1)
	seedCourse(t, store, "expensive", 100000, true)

	h := query.NewListAvailableCoursesHandler(store, store, enrollment.DefaultPolicy())
	result, err := h.Handle(context.Background(), query.ListAvailableCoursesQuery{StudentID: "poor"})
	require.NoError(t, err)

	require.Len(t, result.Courses, 1)
	assert.Equal(t, "expensive", result.Courses[0].ID)
}

func TestListAvailableCoursesFreeSeats(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	policy := enrollment.Policy{MaxGroupsPerCourse: 2, GroupCapacity: 3}
	svc := enrollment.NewService(store, enrollment.NewAllocator(policy), nil, nil)

	seedCourse(t, store, "c1", 0, true)
	seedStudent(t, store, "viewer", 0)
	seedStudent(t, store, "buyer", 0)

	_, err := svc.Purchase(ctx, "buyer", "c1")
	require.NoError(t, err)

	h := query.NewListAvailableCoursesHandler(store, store, policy)
	result, err := h.Handle(ctx, query.ListAvailableCoursesQuery{StudentID: "viewer"})
	require.NoError(t, err)

	require.Len(t, result.Courses, 1)
	// 2 места в открытой группе + 3 в ещё не открытой.
	assert.Equal(t, 5, result.Courses[0].FreeSeats)
}

func TestGetCourseWithLessons(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	seedCourse(t, store, "c1", 100, true)

	l, err := course.NewLesson("l1", "c1", "Введение", "https://example.com/1")
	require.NoError(t, err)
	require.NoError(t, store.CreateLesson(ctx, l))

	h := query.NewGetCourseHandler(store, nil)
	dto, err := h.Handle(ctx, query.GetCourseQuery{CourseID: "c1", IncludeLessons: true})
	require.NoError(t, err)

	assert.Equal(t, "c1", dto.ID)
	require.Len(t, dto.Lessons, 1)
	assert.Equal(t, "Введение", dto.Lessons[0].Title)
}

func TestGetMembership(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := enrollment.NewService(store, enrollment.NewAllocator(enrollment.DefaultPolicy()), nil, nil)

	seedCourse(t, store, "c1", 0, true)
	seedStudent(t, store, "s1", 0)

	result, err := svc.Purchase(ctx, "s1", "c1")
	require.NoError(t, err)

	h := query.NewGetMembershipHandler(store)
	m, err := h.Handle(ctx, query.GetMembershipQuery{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, result.Placement.Group.ID, m.GroupID)
}
