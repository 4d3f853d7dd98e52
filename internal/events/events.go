package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/mathsia/memocard-service/internal/models"
)

// EventType represents different types of domain events
type EventType string

const (
	// Memocard catalog events
	EventMemocardCreated EventType = "memocard.created"
	EventMemocardUpdated EventType = "memocard.updated"
	EventMemocardDeleted EventType = "memocard.deleted"

	// Response events
	EventResponseRecorded EventType = "response.recorded"
)

// DomainEvent is the envelope for all events the service publishes
type DomainEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data"`
}

const (
	eventSource  = "memocard-service"
	eventVersion = "1.0"
)

func newDomainEvent(eventType EventType, data interface{}) *DomainEvent {
	return &DomainEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// ===== EVENT PAYLOADS =====

type MemocardEvent struct {
	MemocardID uint                   `json:"memocard_id"`
	Title      string                 `json:"title"`
	Level      models.SchoolLevel     `json:"level"`
	Difficulty models.DifficultyLevel `json:"difficulty"`
	Subject    string                 `json:"subject"`
	Type       models.MemocardType    `json:"type"`
	IsActive   bool                   `json:"is_active"`
}

type ResponseRecordedEvent struct {
	ResponseID uint      `json:"response_id"`
	StudentID  string    `json:"student_id"`
	MemocardID uint      `json:"memocard_id"`
	IsCorrect  bool      `json:"is_correct"`
	Attempts   int       `json:"attempts"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ===== EVENT CONSTRUCTORS =====

func NewMemocardCreatedEvent(memocard *models.Memocard) *DomainEvent {
	return newDomainEvent(EventMemocardCreated, memocardPayload(memocard))
}

func NewMemocardUpdatedEvent(memocard *models.Memocard) *DomainEvent {
	return newDomainEvent(EventMemocardUpdated, memocardPayload(memocard))
}

func NewMemocardDeletedEvent(memocard *models.Memocard) *DomainEvent {
	return newDomainEvent(EventMemocardDeleted, memocardPayload(memocard))
}

func NewResponseRecordedEvent(response *models.Response) *DomainEvent {
	return newDomainEvent(EventResponseRecorded, ResponseRecordedEvent{
		ResponseID: response.ID,
		StudentID:  response.StudentID,
		MemocardID: response.MemocardID,
		IsCorrect:  response.IsCorrect,
		Attempts:   response.Attempts,
		RecordedAt: response.CreatedAt,
	})
}

func memocardPayload(memocard *models.Memocard) MemocardEvent {
	return MemocardEvent{
		MemocardID: memocard.ID,
		Title:      memocard.Title,
		Level:      memocard.Level,
		Difficulty: memocard.Difficulty,
		Subject:    memocard.Subject,
		Type:       memocard.Type,
		IsActive:   memocard.IsActive,
	}
}
