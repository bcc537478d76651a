package repositories

import (
	"github.com/SAP-F-2025/delivery-service/internal/models"
)

// Repository groups the stores the delivery service reads and writes.
type Repository interface {
	Assessment() AssessmentRepository
	Submission() SubmissionRepository
}

// ===== SHARED FILTER STRUCTS =====

type SubmissionFilters struct {
	Status    *models.SubmissionStatus `json:"status"`
	UserID    *string                  `json:"user_id"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`    // "started_at", "completed_at", "created_at"
	SortOrder string                   `json:"sort_order"` // "asc", "desc"
}
