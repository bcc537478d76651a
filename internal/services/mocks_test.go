package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/delivery-service/internal/models"
	"github.com/SAP-F-2025/delivery-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of repositories.Repository
type MockRepository struct {
	assessments *MockAssessmentRepository
	submissions *MockSubmissionRepository
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		assessments: &MockAssessmentRepository{},
		submissions: &MockSubmissionRepository{},
	}
}

func (m *MockRepository) Assessment() repositories.AssessmentRepository { return m.assessments }
func (m *MockRepository) Submission() repositories.SubmissionRepository { return m.submissions }

// MockAssessmentRepository is a mock implementation of AssessmentRepository
type MockAssessmentRepository struct {
	mock.Mock
}

func (m *MockAssessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	args := m.Called(ctx, assessment)
	return args.Error(0)
}

func (m *MockAssessmentRepository) GetByID(ctx context.Context, id uint) (*models.Assessment, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*models.Assessment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAssessmentRepository) GetByIDWithDetails(ctx context.Context, id uint) (*models.Assessment, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*models.Assessment), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSubmissionRepository is a mock implementation of SubmissionRepository
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*models.Submission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionRepository) GetByIDWithDetails(ctx context.Context, id uint) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*models.Submission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionRepository) GetActive(ctx context.Context, assessmentID uint, userID string) (*models.Submission, error) {
	args := m.Called(ctx, assessmentID, userID)
	if s := args.Get(0); s != nil {
		return s.(*models.Submission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionRepository) ListByAssessment(ctx context.Context, assessmentID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	args := m.Called(ctx, assessmentID, filters)
	return args.Get(0).([]*models.Submission), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubmissionRepository) SaveAnswers(ctx context.Context, submissionID uint, answers []*models.Answer, markComplete bool) error {
	args := m.Called(ctx, submissionID, answers, markComplete)
	return args.Error(0)
}

func (m *MockSubmissionRepository) Complete(ctx context.Context, id uint, completedAt time.Time, reason models.CompletionReason) error {
	args := m.Called(ctx, id, completedAt, reason)
	return args.Error(0)
}
