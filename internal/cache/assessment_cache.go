package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/delivery-service/internal/models"
	"github.com/SAP-F-2025/delivery-service/internal/repositories"
)

// CachedAssessmentRepository serves assessment structure from the cache.
// Cache failures fall through to the wrapped repository.
type CachedAssessmentRepository struct {
	repositories.AssessmentRepository
	cache  CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedAssessmentRepository(repo repositories.AssessmentRepository, cache CacheService, ttl time.Duration, logger *slog.Logger) *CachedAssessmentRepository {
	return &CachedAssessmentRepository{
		AssessmentRepository: repo,
		cache:                cache,
		ttl:                  ttl,
		logger:               logger,
	}
}

func assessmentKey(id uint) string {
	return fmt.Sprintf("assessment:%d:details", id)
}

func (c *CachedAssessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	if err := c.AssessmentRepository.Create(ctx, assessment); err != nil {
		return err
	}
	if err := c.cache.Delete(ctx, assessmentKey(assessment.ID)); err != nil {
		c.logger.Warn("Failed to invalidate cached assessment", "assessment_id", assessment.ID, "error", err)
	}
	return nil
}

func (c *CachedAssessmentRepository) GetByIDWithDetails(ctx context.Context, id uint) (*models.Assessment, error) {
	key := assessmentKey(id)

	var cached models.Assessment
	err := c.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("Assessment cache unavailable", "assessment_id", id, "error", err)
	}

	assessment, err := c.AssessmentRepository.GetByIDWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, assessment, c.ttl); err != nil {
		c.logger.Warn("Failed to cache assessment", "assessment_id", id, "error", err)
	}
	return assessment, nil
}

// Invalidate drops every cached assessment
func (c *CachedAssessmentRepository) Invalidate(ctx context.Context) error {
	return c.cache.DeletePattern(ctx, "assessment:*")
}

type cachedRepository struct {
	repositories.Repository
	assessments repositories.AssessmentRepository
}

// WithAssessmentCache returns repo with assessment reads served by cached.
func WithAssessmentCache(repo repositories.Repository, cached *CachedAssessmentRepository) repositories.Repository {
	return &cachedRepository{Repository: repo, assessments: cached}
}

func (r *cachedRepository) Assessment() repositories.AssessmentRepository {
	return r.assessments
}
