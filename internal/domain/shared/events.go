package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Events are informational: they are published after a
// transaction commits and never drive business decisions (group allocation
// is a direct synchronous call inside the purchase transaction).
const (
	// Student events
	EventStudentRegistered EventType = "student.registered"
	EventBalanceCredited   EventType = "student.balance_credited"

	// Catalog events
	EventCourseCreated             EventType = "course.created"
	EventCourseAvailabilityChanged EventType = "course.availability_changed"

	// Enrollment events
	EventSubscriptionCreated EventType = "enrollment.subscription_created"
	EventGroupCreated        EventType = "enrollment.group_created"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a published event.
type EventHandler func(Event)

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// StudentRegisteredEvent is emitted when a new student registers.
// Registration also creates the student's bonus balance.
type StudentRegisteredEvent struct {
	BaseEvent
	Email           string `json:"email"`
	StartingBonuses int    `json:"starting_bonuses"`
}

// Payload implements Event interface.
func (e StudentRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"email":            e.Email,
		"starting_bonuses": e.StartingBonuses,
	}
}

// NewStudentRegisteredEvent creates a new StudentRegisteredEvent.
func NewStudentRegisteredEvent(studentID, email string, startingBonuses int) StudentRegisteredEvent {
	return StudentRegisteredEvent{
		BaseEvent:       NewBaseEvent(EventStudentRegistered, studentID),
		Email:           email,
		StartingBonuses: startingBonuses,
	}
}

// SubscriptionCreatedEvent is emitted after a purchase transaction commits.
type SubscriptionCreatedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	CourseID  string `json:"course_id"`
	GroupID   string `json:"group_id"`
	Price     int    `json:"price"`
}

// Payload implements Event interface.
func (e SubscriptionCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"course_id":  e.CourseID,
		"group_id":   e.GroupID,
		"price":      e.Price,
	}
}

// NewSubscriptionCreatedEvent creates a new SubscriptionCreatedEvent.
func NewSubscriptionCreatedEvent(subscriptionID, studentID, courseID, groupID string, price int) SubscriptionCreatedEvent {
	return SubscriptionCreatedEvent{
		BaseEvent: NewBaseEvent(EventSubscriptionCreated, subscriptionID),
		StudentID: studentID,
		CourseID:  courseID,
		GroupID:   groupID,
		Price:     price,
	}
}

// GroupCreatedEvent is emitted when the allocator opens a new group.
type GroupCreatedEvent struct {
	BaseEvent
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
	Capacity int    `json:"capacity"`
}

// Payload implements Event interface.
func (e GroupCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"course_id": e.CourseID,
		"title":     e.Title,
		"capacity":  e.Capacity,
	}
}

// NewGroupCreatedEvent creates a new GroupCreatedEvent.
func NewGroupCreatedEvent(groupID, courseID, title string, capacity int) GroupCreatedEvent {
	return GroupCreatedEvent{
		BaseEvent: NewBaseEvent(EventGroupCreated, groupID),
		CourseID:  courseID,
		Title:     title,
		Capacity:  capacity,
	}
}

// CourseCreatedEvent is emitted when a new course appears in the catalog.
type CourseCreatedEvent struct {
	BaseEvent
	Title string `json:"title"`
	Price int    `json:"price"`
}

// Payload implements Event interface.
func (e CourseCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"title": e.Title,
		"price": e.Price,
	}
}

// NewCourseCreatedEvent creates a new CourseCreatedEvent.
func NewCourseCreatedEvent(courseID, title string, price int) CourseCreatedEvent {
	return CourseCreatedEvent{
		BaseEvent: NewBaseEvent(EventCourseCreated, courseID),
		Title:     title,
		Price:     price,
	}
}

// CourseAvailabilityChangedEvent is emitted when a course is opened or closed
// for purchase.
type CourseAvailabilityChangedEvent struct {
	BaseEvent
	Available bool `json:"available"`
}

// Payload implements Event interface.
func (e CourseAvailabilityChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"available": e.Available,
	}
}

// NewCourseAvailabilityChangedEvent creates a new CourseAvailabilityChangedEvent.
func NewCourseAvailabilityChangedEvent(courseID string, available bool) CourseAvailabilityChangedEvent {
	return CourseAvailabilityChangedEvent{
		BaseEvent: NewBaseEvent(EventCourseAvailabilityChanged, courseID),
		Available: available,
	}
}

// BalanceCreditedEvent is emitted when an administrator tops up a balance.
type BalanceCreditedEvent struct {
	BaseEvent
	Amount   int `json:"amount"`
	NewTotal int `json:"new_total"`
}

// Payload implements Event interface.
func (e BalanceCreditedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"amount":    e.Amount,
		"new_total": e.NewTotal,
	}
}

// NewBalanceCreditedEvent creates a new BalanceCreditedEvent.
func NewBalanceCreditedEvent(studentID string, amount, newTotal int) BalanceCreditedEvent {
	return BalanceCreditedEvent{
		BaseEvent: NewBaseEvent(EventBalanceCredited, studentID),
		Amount:    amount,
		NewTotal:  newTotal,
	}
}
