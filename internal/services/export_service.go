package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/delivery-service/internal/delivery"
	"github.com/SAP-F-2025/delivery-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportService renders submission progress for staff
type ExportService interface {
	ExportSubmissions(ctx context.Context, assessmentID uint, userID string) ([]byte, error)
	SubmissionRows(ctx context.Context, assessmentID uint) ([]SubmissionExportRow, error)
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// SubmissionRows summarizes every submission of the assessment in id order
func (s *exportService) SubmissionRows(ctx context.Context, assessmentID uint) ([]SubmissionExportRow, error) {
	assessment, err := s.repo.Assessment().GetByIDWithDetails(ctx, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	submissions, _, err := s.repo.Submission().ListByAssessment(ctx, assessmentID, repositories.SubmissionFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}

	ordering := delivery.NewOrdering(assessment)
	rows := make([]SubmissionExportRow, 0, len(submissions))
	for _, sub := range submissions {
		row := SubmissionExportRow{
			SubmissionID:  sub.ID,
			UserID:        sub.UserID,
			Status:        sub.Status,
			QuestionCount: len(ordering.Questions()),
			StartedAt:     sub.StartedAt,
			CompletedAt:   sub.CompletedAt,
			Late:          sub.IsCompletedLate(assessment),
		}
		for _, q := range ordering.Questions() {
			if sub.IsQuestionAnswered(q.ID) {
				row.AnsweredCount++
			}
		}
		if sub.CompletionReason != nil {
			row.CompletionReason = string(*sub.CompletionReason)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *exportService) ExportSubmissions(ctx context.Context, assessmentID uint, userID string) ([]byte, error) {
	s.logger.Info("Starting submission export",
		"assessment_id", assessmentID,
		"user_id", userID)

	rows, err := s.SubmissionRows(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Submissions"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	// Write headers
	headers := []interface{}{
		"Submission ID", "User ID", "Status", "Answered", "Questions",
		"Started At", "Completed At", "Completion Reason", "Late",
	}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	// Write submission data
	for i, row := range rows {
		values := []interface{}{
			row.SubmissionID,
			row.UserID,
			string(row.Status),
			row.AnsweredCount,
			row.QuestionCount,
			formatExportTime(row.StartedAt),
			formatExportTime(row.CompletedAt),
			row.CompletionReason,
			row.Late,
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row for submission %d: %w", row.SubmissionID, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Submission export completed successfully",
		"assessment_id", assessmentID,
		"rows", len(rows))

	return buf.Bytes(), nil
}

func formatExportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(exportTimeLayout)
}
