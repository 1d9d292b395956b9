package course

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/course-hub/course-market-hub/internal/domain/shared"
)

func validParams() NewCourseParams {
	return NewCourseParams{
		ID:          "course-1",
		Author:      "Анна Петрова",
		Title:       "Go с нуля",
		StartAt:     time.Now().Add(24 * time.Hour),
		Price:       500,
		IsAvailable: true,
	}
}

func TestNewCourse(t *testing.T) {
	c, err := NewCourse(validParams())
	require.NoError(t, err)

	assert.Equal(t, "course-1", c.ID)
	assert.Equal(t, Price(500), c.Price)
	assert.True(t, c.IsAvailable)
	assert.False(t, c.CreatedAt.IsZero())
}

func TestNewCourseValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NewCourseParams)
		want   error
	}{
		{"missing id", func(p *NewCourseParams) { p.ID = "" }, shared.ErrInvalidID},
		{"blank title", func(p *NewCourseParams) { p.Title = "   " }, shared.ErrEmptyValue},
		{"blank author", func(p *NewCourseParams) { p.Author = "" }, shared.ErrEmptyValue},
		{"negative price", func(p *NewCourseParams) { p.Price = -1 }, shared.ErrNegativeValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			_, err := NewCourse(p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFreeCourseIsValid(t *testing.T) {
	p := validParams()
	p.Price = 0
	_, err := NewCourse(p)
	assert.NoError(t, err)
}

func TestNewLesson(t *testing.T) {
	l, err := NewLesson("lesson-1", "course-1", "Введение", "https://example.com/intro")
	require.NoError(t, err)
	assert.Equal(t, "course-1", l.CourseID)
}

func TestNewLessonRejectsBadLink(t *testing.T) {
	_, err := NewLesson("lesson-1", "course-1", "Введение", "ftp://example.com")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewLesson("lesson-1", "course-1", "Введение", "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestNewGroup(t *testing.T) {
	g, err := NewGroup("group-1", "course-1", "Go с нуля - группа 1", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, g.Capacity)

	_, err = NewGroup("group-1", "course-1", "x", 0)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewGroup("", "course-1", "x", 30)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestGroupLoadHasFreeSeat(t *testing.T) {
	g := GroupLoad{Group: Group{Capacity: 2}, Members: 1}
	assert.True(t, g.HasFreeSeat())

	g.Members = 2
	assert.False(t, g.HasFreeSeat())
}
