package repositories

import (
	"context"

	"github.com/SAP-F-2025/delivery-service/internal/models"
)

// AssessmentRepository interface for the delivery view of assessments
type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	GetByID(ctx context.Context, id uint) (*models.Assessment, error)
	GetByIDWithDetails(ctx context.Context, id uint) (*models.Assessment, error) // Include sections and questions
}
