package events

import (
	"time"

	"github.com/SAP-F-2025/delivery-service/internal/models"
	"github.com/google/uuid"
)

// EventType names a submission lifecycle event
type EventType string

const (
	EventSubmissionEntered       EventType = "submission.entered"
	EventSubmissionCompleted     EventType = "submission.completed"
	EventSubmissionAutoCompleted EventType = "submission.auto_completed"
)

const (
	eventSource  = "delivery-service"
	eventVersion = "1.0"
)

// SubmissionEvent is the envelope for everything published by this service
type SubmissionEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Payloads

type SubmissionEnteredEvent struct {
	SubmissionID    uint       `json:"submission_id"`
	AssessmentID    uint       `json:"assessment_id"`
	AssessmentTitle string     `json:"assessment_title"`
	UserID          string     `json:"user_id"`
	StartedAt       time.Time  `json:"started_at"`
	DueAt           *time.Time `json:"due_at,omitempty"`
	Resumed         bool       `json:"resumed"`
}

type SubmissionCompletedEvent struct {
	SubmissionID  uint                    `json:"submission_id"`
	AssessmentID  uint                    `json:"assessment_id"`
	UserID        string                  `json:"user_id"`
	CompletedAt   time.Time               `json:"completed_at"`
	Reason        models.CompletionReason `json:"reason"`
	AnsweredCount int                     `json:"answered_count"`
	QuestionCount int                     `json:"question_count"`
	Late          bool                    `json:"late"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *SubmissionEvent {
	return &SubmissionEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewSubmissionEnteredEvent(sub *models.Submission, assessment *models.Assessment, resumed bool) *SubmissionEvent {
	payload := SubmissionEnteredEvent{
		SubmissionID:    sub.ID,
		AssessmentID:    assessment.ID,
		AssessmentTitle: assessment.Title,
		UserID:          sub.UserID,
		DueAt:           sub.Expiration.DueAt,
		Resumed:         resumed,
	}
	if sub.StartedAt != nil {
		payload.StartedAt = *sub.StartedAt
	}
	return newEvent(EventSubmissionEntered, payload)
}

// NewSubmissionCompletedEvent picks the auto-completed type when the
// completion was forced by an expiration.
func NewSubmissionCompletedEvent(sub *models.Submission, assessment *models.Assessment, answered int) *SubmissionEvent {
	payload := SubmissionCompletedEvent{
		SubmissionID:  sub.ID,
		AssessmentID:  assessment.ID,
		UserID:        sub.UserID,
		Reason:        models.ReasonFinished,
		AnsweredCount: answered,
		QuestionCount: assessment.QuestionCount(),
		Late:          sub.IsCompletedLate(assessment),
	}
	if sub.CompletedAt != nil {
		payload.CompletedAt = *sub.CompletedAt
	}
	if sub.CompletionReason != nil {
		payload.Reason = *sub.CompletionReason
	}

	eventType := EventSubmissionCompleted
	if payload.Reason != models.ReasonFinished {
		eventType = EventSubmissionAutoCompleted
	}
	return newEvent(eventType, payload)
}
