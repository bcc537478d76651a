package services

import (
	"encoding/json"
	"time"

	"github.com/SAP-F-2025/delivery-service/internal/delivery"
	"github.com/SAP-F-2025/delivery-service/internal/models"
)

// ===== REQUESTS =====

type EnterRequest struct {
	AssessmentID uint   `json:"assessment_id" validate:"required"`
	Password     string `json:"password" validate:"max=100"`
}

// SubmitPageRequest is a page POST. Destination, when set, overrides Intent.
type SubmitPageRequest struct {
	SubmissionID uint          `json:"submission_id" validate:"required"`
	Selector     string        `json:"selector" validate:"required,page_selector"`
	Intent       string        `json:"intent" validate:"omitempty,intent"`
	Destination  string        `json:"destination" validate:"omitempty,destination"`
	Answers      []AnswerInput `json:"answers" validate:"dive"`
	UploadFailed bool          `json:"upload_failed"`
}

type AnswerInput struct {
	QuestionID      uint            `json:"question_id" validate:"required"`
	Answered        bool            `json:"answered"`
	MarkedForReview bool            `json:"marked_for_review"`
	Entry           json.RawMessage `json:"entry,omitempty"`
}

// ===== RESPONSES =====

type PositionResponse struct {
	Kind       delivery.Kind `json:"kind"`
	Selector   string        `json:"selector"`
	QuestionID uint          `json:"question_id,omitempty"`
	SectionID  uint          `json:"section_id,omitempty"`
	Anchor     uint          `json:"anchor,omitempty"`
	Path       string        `json:"path"`
}

func NewPositionResponse(pos delivery.Position, submissionID uint) PositionResponse {
	return PositionResponse{
		Kind:       pos.Kind,
		Selector:   pos.Selector(),
		QuestionID: pos.QuestionID,
		SectionID:  pos.SectionID,
		Anchor:     pos.Anchor,
		Path:       pos.Path(submissionID),
	}
}

// DeliveryResponse is returned by every navigation operation. Page is set
// when the operation renders content; otherwise Position says where to go.
type DeliveryResponse struct {
	SubmissionID  uint                    `json:"submission_id"`
	AssessmentID  uint                    `json:"assessment_id"`
	Status        models.SubmissionStatus `json:"status"`
	Position      PositionResponse        `json:"position"`
	Page          *PageView               `json:"page,omitempty"`
	Toc           []TocEntry              `json:"toc,omitempty"`
	Expiration    *ExpirationResponse     `json:"expiration,omitempty"`
	AutoCompleted bool                    `json:"auto_completed"`
	Completed     bool                    `json:"completed"`
	UploadFailed  bool                    `json:"upload_failed,omitempty"`
	SubmitMessage *string                 `json:"submit_message,omitempty"`
	Next          *PositionResponse       `json:"next,omitempty"`
}

type PageView struct {
	Section          *SectionView   `json:"section,omitempty"`
	ShowInstructions bool           `json:"show_instructions"`
	Questions        []QuestionView `json:"questions"`
}

type SectionView struct {
	ID           uint    `json:"id"`
	Title        string  `json:"title"`
	Instructions *string `json:"instructions,omitempty"`
}

type QuestionView struct {
	ID        uint        `json:"id"`
	SectionID uint        `json:"section_id"`
	Title     string      `json:"title"`
	Prompt    *string     `json:"prompt,omitempty"`
	Answer    *AnswerView `json:"answer,omitempty"`
}

type AnswerView struct {
	IsAnswered      bool            `json:"is_answered"`
	IsComplete      bool            `json:"is_complete"`
	MarkedForReview bool            `json:"marked_for_review"`
	Entry           json.RawMessage `json:"entry,omitempty"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
}

type TocEntry struct {
	QuestionID      uint             `json:"question_id"`
	SectionID       uint             `json:"section_id"`
	Title           string           `json:"title"`
	Position        PositionResponse `json:"position"`
	IsAnswered      bool             `json:"is_answered"`
	IsComplete      bool             `json:"is_complete"`
	MarkedForReview bool             `json:"marked_for_review"`
}

type ExpirationResponse struct {
	DueAt            *time.Time             `json:"due_at,omitempty"`
	Cause            models.ExpirationCause `json:"cause,omitempty"`
	LimitSeconds     *int64                 `json:"limit_seconds,omitempty"`
	RemainingSeconds *int64                 `json:"remaining_seconds,omitempty"`
	Over             bool                   `json:"over"`
}

func newExpirationResponse(exp models.Expiration, now time.Time) *ExpirationResponse {
	resp := &ExpirationResponse{
		DueAt:        exp.DueAt,
		Cause:        exp.Cause,
		LimitSeconds: exp.Limit,
	}
	if remaining, ok := delivery.Remaining(exp, now); ok {
		seconds := int64(remaining / time.Second)
		resp.RemainingSeconds = &seconds
	}
	return resp
}

func newPageView(page *delivery.Page, sub *models.Submission) *PageView {
	view := &PageView{
		ShowInstructions: page.ShowInstructions,
		Questions:        make([]QuestionView, 0, len(page.Questions)),
	}
	if page.Section != nil {
		view.Section = &SectionView{
			ID:           page.Section.ID,
			Title:        page.Section.Title,
			Instructions: page.Section.Instructions,
		}
	}

	for _, q := range page.Questions {
		qv := QuestionView{ID: q.ID, SectionID: q.SectionID, Title: q.Title, Prompt: q.Prompt}
		if answer := sub.AnswerFor(q.ID); answer != nil {
			qv.Answer = &AnswerView{
				IsAnswered:      answer.IsAnswered,
				IsComplete:      answer.IsComplete,
				MarkedForReview: answer.MarkedForReview,
				Entry:           json.RawMessage(answer.Entry),
				SubmittedAt:     answer.SubmittedAt,
			}
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

// ===== EXPORT =====

type SubmissionExportRow struct {
	SubmissionID     uint
	UserID           string
	Status           models.SubmissionStatus
	AnsweredCount    int
	QuestionCount    int
	StartedAt        *time.Time
	CompletedAt      *time.Time
	CompletionReason string
	Late             bool
}
