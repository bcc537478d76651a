package models

import (
	"time"
)

type SubmissionStatus string

const (
	SubmissionInProgress SubmissionStatus = "in_progress"
	SubmissionComplete   SubmissionStatus = "complete"
)

type ExpirationCause string

const (
	CauseTimeLimit ExpirationCause = "time_limit"
	CauseCloseDate ExpirationCause = "close_date"
)

type CompletionReason string

const (
	ReasonFinished  CompletionReason = "finished"
	ReasonTimeLimit CompletionReason = "time_limit"
	ReasonCloseDate CompletionReason = "close_date"
)

// Expiration is fixed when the submission starts.
type Expiration struct {
	Limit *int64          `json:"limit,omitempty"` // seconds
	DueAt *time.Time      `json:"due_at,omitempty"`
	Cause ExpirationCause `json:"cause,omitempty" gorm:"size:20"`
}

type Submission struct {
	ID               uint              `json:"id" gorm:"primaryKey"`
	AssessmentID     uint              `json:"assessment_id" gorm:"not null;index"`
	UserID           string            `json:"user_id" gorm:"not null;size:100;index"`
	Status           SubmissionStatus  `json:"status" gorm:"size:20;default:in_progress;index"`
	StartedAt        *time.Time        `json:"started_at,omitempty"`
	Expiration       Expiration        `json:"expiration" gorm:"embedded;embeddedPrefix:expiration_"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	CompletionReason *CompletionReason `json:"completion_reason,omitempty" gorm:"size:20"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Answers []Answer `json:"answers" gorm:"foreignKey:SubmissionID"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (s *Submission) IsComplete() bool {
	return s.Status == SubmissionComplete
}

// AnswerFor returns the stored answer for a question, or nil.
func (s *Submission) AnswerFor(questionID uint) *Answer {
	for i := range s.Answers {
		if s.Answers[i].QuestionID == questionID {
			return &s.Answers[i]
		}
	}
	return nil
}

// IsQuestionComplete reports whether the question's answer has been finalized.
func (s *Submission) IsQuestionComplete(questionID uint) bool {
	answer := s.AnswerFor(questionID)
	return answer != nil && answer.IsComplete
}

// IsQuestionAnswered counts only submitted answers that are not marked for review.
func (s *Submission) IsQuestionAnswered(questionID uint) bool {
	answer := s.AnswerFor(questionID)
	return answer != nil && answer.SubmittedAt != nil && answer.IsAnswered && !answer.MarkedForReview
}

// IsCompletedLate reports completion after the due date on an assessment
// that accepts late submissions.
func (s *Submission) IsCompletedLate(assessment *Assessment) bool {
	if s.CompletedAt == nil || assessment.DueDate == nil || assessment.SubmitUntilDate == nil {
		return false
	}
	return s.CompletedAt.After(*assessment.DueDate)
}
