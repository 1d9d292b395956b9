// Package course содержит доменную модель каталога: курсы, уроки и группы.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package course

import (
	"strings"
	"time"

	"github.com/course-hub/course-market-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Price представляет стоимость курса в бонусах.
type Price int

// IsValid проверяет, что цена неотрицательная.
func (p Price) IsValid() bool {
	return p >= 0
}

// Int возвращает целочисленное представление цены.
func (p Price) Int() int {
	return int(p)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: COURSE
// ══════════════════════════════════════════════════════════════════════════════

// Course - продукт маркетплейса: курс, доступ к которому покупается за бонусы.
type Course struct {
	// ID - уникальный идентификатор курса (UUID в строковом формате).
	ID string

	// Author - автор курса.
	Author string

	// Title - название курса.
	Title string

	// StartAt - дата и время начала курса.
	StartAt time.Time

	// Price - стоимость доступа в бонусах.
	Price Price

	// IsAvailable - флаг доступности для покупки.
	IsAvailable bool

	// CreatedAt - время создания записи.
	CreatedAt time.Time
}

// NewCourseParams - параметры для создания курса.
type NewCourseParams struct {
	ID          string
	Author      string
	Title       string
	StartAt     time.Time
	Price       Price
	IsAvailable bool
}

// NewCourse создаёт новый курс с валидацией.
func NewCourse(p NewCourseParams) (*Course, error) {
	if p.ID == "" {
		return nil, shared.NewDomainError("course", "Create", shared.ErrInvalidID, "course id is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, shared.NewDomainError("course", "Create", shared.ErrEmptyValue, "title is required")
	}
	if strings.TrimSpace(p.Author) == "" {
		return nil, shared.NewDomainError("course", "Create", shared.ErrEmptyValue, "author is required")
	}
	if !p.Price.IsValid() {
		return nil, shared.ErrInvalidPrice
	}

	return &Course{
		ID:          p.ID,
		Author:      p.Author,
		Title:       p.Title,
		StartAt:     p.StartAt,
		Price:       p.Price,
		IsAvailable: p.IsAvailable,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON
// ══════════════════════════════════════════════════════════════════════════════

// Lesson - урок курса. Простой CRUD, без бизнес-правил.
type Lesson struct {
	// ID - уникальный идентификатор урока.
	ID string

	// CourseID - курс, к которому относится урок.
	CourseID string

	// Title - название урока.
	Title string

	// Link - ссылка на материалы урока.
	Link string

	// CreatedAt - время создания записи.
	CreatedAt time.Time
}

// NewLesson создаёт новый урок с валидацией.
func NewLesson(id, courseID, title, link string) (*Lesson, error) {
	if id == "" || courseID == "" {
		return nil, shared.NewDomainError("course", "CreateLesson", shared.ErrInvalidID, "lesson and course ids are required")
	}
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewDomainError("course", "CreateLesson", shared.ErrEmptyValue, "title is required")
	}
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return nil, shared.NewDomainError("course", "CreateLesson", shared.ErrInvalidInput, "link must be an http(s) URL")
	}

	return &Lesson{
		ID:        id,
		CourseID:  courseID,
		Title:     title,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GROUP
// ══════════════════════════════════════════════════════════════════════════════

// Group - поток (когорта) студентов внутри курса с фиксированной вместимостью.
// Группы создаются лениво аллокатором при покупках, до лимита на курс.
type Group struct {
	// ID - уникальный идентификатор группы.
	ID string

	// CourseID - курс, к которому принадлежит группа.
	CourseID string

	// Title - название группы.
	Title string

	// Capacity - максимальное количество студентов в группе.
	Capacity int

	// CreatedAt - время создания; используется для tie-break при распределении
	// (старшая группа выбирается первой).
	CreatedAt time.Time
}

// NewGroup создаёт новую группу с валидацией.
func NewGroup(id, courseID, title string, capacity int) (*Group, error) {
	if id == "" || courseID == "" {
		return nil, shared.NewDomainError("course", "CreateGroup", shared.ErrInvalidID, "group and course ids are required")
	}
	if capacity <= 0 {
		return nil, shared.NewDomainError("course", "CreateGroup", shared.ErrInvalidInput, "capacity must be positive")
	}
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewDomainError("course", "CreateGroup", shared.ErrEmptyValue, "title is required")
	}

	return &Group{
		ID:        id,
		CourseID:  courseID,
		Title:     title,
		Capacity:  capacity,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// GroupLoad - группа вместе с производным счётчиком участников.
// Счётчик всегда вычисляется по записям членства в рамках той же транзакции,
// а не хранится как поле - так исключаются гонки на устаревших значениях.
type GroupLoad struct {
	Group

	// Members - текущее количество студентов в группе.
	Members int
}

// HasFreeSeat возвращает true, если в группе есть свободное место.
func (g GroupLoad) HasFreeSeat() bool {
	return g.Members < g.Capacity
}
