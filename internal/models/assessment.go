package models

import (
	"time"

	"gorm.io/gorm"
)

type PresentationMode string

const (
	PresentationByQuestion   PresentationMode = "question"
	PresentationBySection    PresentationMode = "section"
	PresentationByAssessment PresentationMode = "assessment"
)

type Assessment struct {
	ID               uint             `json:"id" gorm:"primaryKey"`
	Title            string           `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description      *string          `json:"description" gorm:"type:text"`
	PresentationMode PresentationMode `json:"presentation_mode" gorm:"size:20;default:question" validate:"omitempty,presentation_mode"`
	RandomAccess     bool             `json:"random_access" gorm:"default:false"`
	TimeLimit        *int64           `json:"time_limit,omitempty"` // seconds
	OpenDate         *time.Time       `json:"open_date,omitempty"`
	DueDate          *time.Time       `json:"due_date,omitempty"`
	SubmitUntilDate  *time.Time       `json:"submit_until_date,omitempty"`
	Password         *string          `json:"password,omitempty" gorm:"size:100"`
	FeedbackNow      bool             `json:"feedback_now" gorm:"default:false"`
	SubmitMessage    *string          `json:"submit_message,omitempty" gorm:"type:text"`
	Published        bool             `json:"published" gorm:"default:false;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Sections []Section `json:"sections" gorm:"foreignKey:AssessmentID"`
}

type Section struct {
	ID                uint    `json:"id" gorm:"primaryKey"`
	AssessmentID      uint    `json:"assessment_id" gorm:"not null;uniqueIndex:idx_section_position"`
	Position          int     `json:"position" gorm:"not null;uniqueIndex:idx_section_position"`
	Title             string  `json:"title" gorm:"size:200"`
	Instructions      *string `json:"instructions,omitempty" gorm:"type:text"`
	MergeInstructions bool    `json:"merge_instructions" gorm:"default:false"`

	Questions []Question `json:"questions" gorm:"foreignKey:SectionID"`
}

type Question struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	SectionID uint    `json:"section_id" gorm:"not null;uniqueIndex:idx_question_position"`
	Position  int     `json:"position" gorm:"not null;uniqueIndex:idx_question_position"`
	Title     string  `json:"title" gorm:"size:200"`
	Prompt    *string `json:"prompt,omitempty" gorm:"type:text"`
}

func (Assessment) TableName() string {
	return "assessments"
}

func (Section) TableName() string {
	return "assessment_sections"
}

func (Question) TableName() string {
	return "assessment_questions"
}

// IsOpen reports whether new submissions may be started at the given time.
func (a *Assessment) IsOpen(now time.Time) bool {
	if !a.Published {
		return false
	}
	if a.OpenDate != nil && now.Before(*a.OpenDate) {
		return false
	}
	return !a.IsClosed(now)
}

// IsClosed reports whether the close date has passed.
func (a *Assessment) IsClosed(now time.Time) bool {
	return a.SubmitUntilDate != nil && !now.Before(*a.SubmitUntilDate)
}

func (a *Assessment) RequiresPassword() bool {
	return a.Password != nil && *a.Password != ""
}

func (a *Assessment) QuestionCount() int {
	count := 0
	for _, section := range a.Sections {
		count += len(section.Questions)
	}
	return count
}
