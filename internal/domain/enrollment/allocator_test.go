package enrollment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/course-hub/course-market-hub/internal/domain/course"
	"github.com/course-hub/course-market-hub/internal/domain/shared"
	"github.com/course-hub/course-market-hub/internal/domain/student"
)

// fakeTx records allocator writes without a real store.
type fakeTx struct {
	groups      []*course.Group
	memberships []*Membership
}

func (t *fakeTx) GetCourse(ctx context.Context, courseID string) (*course.Course, error) {
	return nil, shared.ErrCourseNotFound
}
func (t *fakeTx) LockCourseAllocation(ctx context.Context, courseID string) error { return nil }
func (t *fakeTx) IsSubscribed(ctx context.Context, studentID, courseID string) (bool, error) {
	return false, nil
}
func (t *fakeTx) GroupLoads(ctx context.Context, courseID string) ([]course.GroupLoad, error) {
	return nil, nil
}
func (t *fakeTx) BalanceOf(ctx context.Context, studentID string) (student.Bonuses, error) {
	return 0, nil
}
func (t *fakeTx) Debit(ctx context.Context, studentID string, amount student.Bonuses) error {
	return nil
}
func (t *fakeTx) CreateSubscription(ctx context.Context, sub *Subscription) error { return nil }
func (t *fakeTx) CreateGroup(ctx context.Context, g *course.Group) error {
	t.groups = append(t.groups, g)
	return nil
}
func (t *fakeTx) CreateMembership(ctx context.Context, m *Membership) error {
	t.memberships = append(t.memberships, m)
	return nil
}

func testCourse() *course.Course {
	c, _ := course.NewCourse(course.NewCourseParams{
		ID:          "course-1",
		Author:      "Анна Петрова",
		Title:       "Go с нуля",
		StartAt:     time.Now().Add(24 * time.Hour),
		Price:       100,
		IsAvailable: true,
	})
	return c
}

func load(id string, members, capacity int, createdAt time.Time) course.GroupLoad {
	return course.GroupLoad{
		Group: course.Group{
			ID:        id,
			CourseID:  "course-1",
			Title:     "Go с нуля - группа",
			Capacity:  capacity,
			CreatedAt: createdAt,
		},
		Members: members,
	}
}

func TestPolicyHasVacancy(t *testing.T) {
	policy := Policy{MaxGroupsPerCourse: 2, GroupCapacity: 3}
	now := time.Now()

	tests := []struct {
		name  string
		loads []course.GroupLoad
		want  bool
	}{
		{
			name:  "no groups yet",
			loads: nil,
			want:  true,
		},
		{
			name:  "room for another group",
			loads: []course.GroupLoad{load("g1", 3, 3, now)},
			want:  true,
		},
		{
			name: "all groups open but one has a seat",
			loads: []course.GroupLoad{
				load("g1", 2, 3, now),
				load("g2", 3, 3, now),
			},
			want: true,
		},
		{
			name: "everything full",
			loads: []course.GroupLoad{
				load("g1", 3, 3, now),
				load("g2", 3, 3, now),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.HasVacancy(tt.loads))
		})
	}
}

func TestPolicyDefaults(t *testing.T) {
	policy := DefaultPolicy()

	assert.Equal(t, 10, policy.MaxGroupsPerCourse)
	assert.Equal(t, 30, policy.GroupCapacity)
	assert.Equal(t, 300, policy.MaxEnrollments())
	assert.True(t, policy.IsValid())

	assert.False(t, Policy{MaxGroupsPerCourse: 0, GroupCapacity: 30}.IsValid())
	assert.False(t, Policy{MaxGroupsPerCourse: 10, GroupCapacity: -1}.IsValid())
}

func TestAllocatorOpensFirstGroup(t *testing.T) {
	a := NewAllocator(Policy{MaxGroupsPerCourse: 2, GroupCapacity: 3})
	tx := &fakeTx{}

	placement, err := a.Place(context.Background(), tx, "student-1", testCourse(), nil)
	require.NoError(t, err)

	assert.True(t, placement.CreatedGroup)
	require.Len(t, tx.groups, 1)
	require.Len(t, tx.memberships, 1)
	assert.Equal(t, tx.groups[0].ID, placement.Group.ID)
	assert.Equal(t, tx.groups[0].ID, tx.memberships[0].GroupID)
	assert.Equal(t, 3, placement.Group.Capacity)
	assert.Contains(t, placement.Group.Title, "Go с нуля")
}

func TestAllocatorFillsLeastLoadedGroup(t *testing.T) {
	a := NewAllocator(Policy{MaxGroupsPerCourse: 2, GroupCapacity: 3})
	tx := &fakeTx{}
	now := time.Now()

	loads := []course.GroupLoad{
		load("g1", 1, 3, now),
		load("g2", 2, 3, now.Add(time.Second)),
	}

	placement, err := a.Place(context.Background(), tx, "student-1", testCourse(), loads)
	require.NoError(t, err)

	assert.False(t, placement.CreatedGroup)
	assert.Equal(t, "g1", placement.Group.ID)
	assert.Empty(t, tx.groups)
	require.Len(t, tx.memberships, 1)
	assert.Equal(t, "g1", tx.memberships[0].GroupID)
}

func TestAllocatorOpensNewGroupWhenLeastLoadedIsFull(t *testing.T) {
	a := NewAllocator(Policy{MaxGroupsPerCourse: 2, GroupCapacity: 3})
	tx := &fakeTx{}

	loads := []course.GroupLoad{load("g1", 3, 3, time.Now())}

	placement, err := a.Place(context.Background(), tx, "student-1", testCourse(), loads)
	require.NoError(t, err)

	assert.True(t, placement.CreatedGroup)
	require.Len(t, tx.groups, 1)
	assert.NotEqual(t, "g1", placement.Group.ID)
}

func TestAllocatorRefusesWhenEverythingIsFull(t *testing.T) {
	a := NewAllocator(Policy{MaxGroupsPerCourse: 2, GroupCapacity: 3})
	tx := &fakeTx{}
	now := time.Now()

	loads := []course.GroupLoad{
		load("g1", 3, 3, now),
		load("g2", 3, 3, now),
	}

	_, err := a.Place(context.Background(), tx, "student-1", testCourse(), loads)
	assert.ErrorIs(t, err, shared.ErrNoCapacity)
	assert.Empty(t, tx.groups)
	assert.Empty(t, tx.memberships)
}

func TestAllocatorInvalidPolicyFallsBackToDefaults(t *testing.T) {
	a := NewAllocator(Policy{})
	assert.Equal(t, DefaultPolicy(), a.Policy())
}
