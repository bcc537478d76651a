package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/delivery-service/internal/models"
)

// SubmissionRepository interface for submission and answer operations
type SubmissionRepository interface {
	// Basic operations
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	GetByIDWithDetails(ctx context.Context, id uint) (*models.Submission, error) // Include answers

	// Query operations
	GetActive(ctx context.Context, assessmentID uint, userID string) (*models.Submission, error) // nil when none
	ListByAssessment(ctx context.Context, assessmentID uint, filters SubmissionFilters) ([]*models.Submission, int64, error)

	// SaveAnswers upserts answers by question. A stored complete flag is
	// never cleared. Fails with ErrSubmissionCompleted once the submission is complete.
	SaveAnswers(ctx context.Context, submissionID uint, answers []*models.Answer, markComplete bool) error

	// Complete moves an in-progress submission to complete. Fails with
	// ErrSubmissionCompleted if it already was.
	Complete(ctx context.Context, id uint, completedAt time.Time, reason models.CompletionReason) error
}
