package models

import (
	"time"

	"gorm.io/datatypes"
)

// Answer holds one question's response inside a submission. Entry is opaque
// to delivery; question types own its shape.
type Answer struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	SubmissionID    uint           `json:"submission_id" gorm:"not null;uniqueIndex:idx_answer_question"`
	QuestionID      uint           `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_question"`
	IsAnswered      bool           `json:"is_answered" gorm:"default:false"`
	IsComplete      bool           `json:"is_complete" gorm:"default:false"`
	MarkedForReview bool           `json:"marked_for_review" gorm:"default:false"`
	Entry           datatypes.JSON `json:"entry,omitempty"`
	SubmittedAt     *time.Time     `json:"submitted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Answer) TableName() string {
	return "submission_answers"
}
