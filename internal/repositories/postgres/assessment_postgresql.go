package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/delivery-service/internal/models"
	"github.com/SAP-F-2025/delivery-service/internal/repositories"
	"gorm.io/gorm"
)

type AssessmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssessmentPostgreSQL(db *gorm.DB) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{db: db}
}

// Create stores an assessment along with its sections and questions
func (a *AssessmentPostgreSQL) Create(ctx context.Context, assessment *models.Assessment) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(assessment).Error; err != nil {
			return fmt.Errorf("failed to create assessment: %w", err)
		}
		return nil
	})
}

// GetByID retrieves an assessment by ID
func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := a.db.WithContext(ctx).First(&assessment, id).Error; err != nil {
		return nil, err
	}

	return &assessment, nil
}

// GetByIDWithDetails retrieves an assessment with its sections and questions in position order
func (a *AssessmentPostgreSQL) GetByIDWithDetails(ctx context.Context, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	err := a.db.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Sections.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&assessment, id).Error

	if err != nil {
		return nil, err
	}

	return &assessment, nil
}
