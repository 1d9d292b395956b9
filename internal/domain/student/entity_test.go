package student

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/course-hub/course-market-hub/internal/domain/shared"
)

func TestNewStudentNormalizesEmail(t *testing.T) {
	s, err := NewStudent(NewStudentParams{
		ID:           "s1",
		Email:        "  Ivan@Example.COM ",
		PasswordHash: "hash",
		FullName:     " Иван Иванов ",
	})
	require.NoError(t, err)

	assert.Equal(t, "ivan@example.com", s.Email)
	assert.Equal(t, "Иван Иванов", s.FullName)
}

func TestNewStudentValidation(t *testing.T) {
	valid := NewStudentParams{ID: "s1", Email: "a@b.com", PasswordHash: "hash"}

	p := valid
	p.ID = ""
	_, err := NewStudent(p)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	p = valid
	p.PasswordHash = ""
	_, err = NewStudent(p)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	for _, email := range []string{"", "no-at", "@b.com", "a@", "a b@c.com", "a@nodot"} {
		p = valid
		p.Email = email
		_, err = NewStudent(p)
		assert.ErrorIs(t, err, shared.ErrInvalidInput, "email %q", email)
	}
}

func TestBonuses(t *testing.T) {
	b := Bonuses(100)

	assert.True(t, b.CanAfford(100))
	assert.True(t, b.CanAfford(0))
	assert.False(t, b.CanAfford(101))
	assert.True(t, b.IsValid())
	assert.False(t, Bonuses(-1).IsValid())
}

func TestNewBalance(t *testing.T) {
	b, err := NewBalance("s1", 1000)
	require.NoError(t, err)
	assert.Equal(t, Bonuses(1000), b.Bonuses)

	_, err = NewBalance("", 1000)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = NewBalance("s1", -5)
	assert.ErrorIs(t, err, shared.ErrNegativeValue)
}
