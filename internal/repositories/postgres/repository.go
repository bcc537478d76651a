package postgres

import (
	"github.com/SAP-F-2025/delivery-service/internal/models"
	"github.com/SAP-F-2025/delivery-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	assessments repositories.AssessmentRepository
	submissions repositories.SubmissionRepository
}

// NewRepository wires the gorm-backed stores over a single connection
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		assessments: NewAssessmentPostgreSQL(db),
		submissions: NewSubmissionPostgreSQL(db),
	}
}

func (r *repository) Assessment() repositories.AssessmentRepository {
	return r.assessments
}

func (r *repository) Submission() repositories.SubmissionRepository {
	return r.submissions
}

// AutoMigrate creates or updates the delivery tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Assessment{},
		&models.Section{},
		&models.Question{},
		&models.Submission{},
		&models.Answer{},
	)
}
