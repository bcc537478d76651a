package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/delivery-service/internal/models"
	"github.com/SAP-F-2025/delivery-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s *SubmissionPostgreSQL) Create(ctx context.Context, submission *models.Submission) error {
	return s.db.WithContext(ctx).Create(submission).Error
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, err
	}

	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByIDWithDetails(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).
		Preload("Answers").
		First(&submission, id).Error; err != nil {
		return nil, err
	}

	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetActive(ctx context.Context, assessmentID uint, userID string) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).
		Where("assessment_id = ? AND user_id = ? AND status = ?", assessmentID, userID, models.SubmissionInProgress).
		Preload("Answers").
		Order("id DESC").
		First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &submission, nil
}

func (s *SubmissionPostgreSQL) ListByAssessment(ctx context.Context, assessmentID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	var submissions []*models.Submission
	var total int64

	// apply filter first
	query := s.db.WithContext(ctx).Model(&models.Submission{}).Where("assessment_id = ?", assessmentID)
	query = s.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = s.applyPaginationAndSort(query, filters)

	if err := query.Preload("Answers").Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (s *SubmissionPostgreSQL) SaveAnswers(ctx context.Context, submissionID uint, answers []*models.Answer, markComplete bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").
			First(&submission, submissionID).Error; err != nil {
			return err
		}
		if submission.IsComplete() {
			return repositories.ErrSubmissionCompleted
		}

		for _, answer := range answers {
			if err := s.upsertAnswer(tx, submissionID, answer, markComplete); err != nil {
				return fmt.Errorf("failed to save answer for question %d: %w", answer.QuestionID, err)
			}
		}
		return nil
	})
}

func (s *SubmissionPostgreSQL) upsertAnswer(tx *gorm.DB, submissionID uint, answer *models.Answer, markComplete bool) error {
	answer.SubmissionID = submissionID
	if answer.SubmittedAt == nil {
		now := time.Now().UTC()
		answer.SubmittedAt = &now
	}

	var existing models.Answer
	err := tx.Where("submission_id = ? AND question_id = ?", submissionID, answer.QuestionID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		answer.IsComplete = markComplete
		return tx.Create(answer).Error
	}
	if err != nil {
		return err
	}

	answer.ID = existing.ID
	answer.CreatedAt = existing.CreatedAt
	answer.IsComplete = existing.IsComplete || markComplete
	return tx.Model(&existing).Updates(map[string]interface{}{
		"is_answered":       answer.IsAnswered,
		"is_complete":       answer.IsComplete,
		"marked_for_review": answer.MarkedForReview,
		"entry":             answer.Entry,
		"submitted_at":      answer.SubmittedAt,
	}).Error
}

func (s *SubmissionPostgreSQL) Complete(ctx context.Context, id uint, completedAt time.Time, reason models.CompletionReason) error {
	result := s.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.SubmissionInProgress).
		Updates(map[string]interface{}{
			"status":            models.SubmissionComplete,
			"completed_at":      completedAt,
			"completion_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Submission{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return repositories.ErrSubmissionCompleted
}

func (s *SubmissionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.SubmissionFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	return query
}

var submissionSortColumns = map[string]string{
	"started_at":   "started_at",
	"completed_at": "completed_at",
	"created_at":   "created_at",
}

func (s *SubmissionPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.SubmissionFilters) *gorm.DB {
	column, ok := submissionSortColumns[filters.SortBy]
	if !ok {
		column = "id"
	}
	order := "ASC"
	if filters.SortOrder == "desc" {
		order = "DESC"
	}
	query = query.Order(column + " " + order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
