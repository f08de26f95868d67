package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"annex-backend/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrLessonNotFound = errors.New("lesson not found")

type LessonRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lesson, error)
	ListApproved(ctx context.Context) ([]models.Lesson, error)
}

type gormLessonRepo struct {
	db *gorm.DB
}

func NewGormLessonRepo(db *gorm.DB) LessonRepository {
	return &gormLessonRepo{db: db}
}

func (r *gormLessonRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	var lesson models.Lesson
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&lesson).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *gormLessonRepo) ListApproved(ctx context.Context) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := r.db.WithContext(ctx).
		Where("status = ?", models.LessonApproved).
		Order("created_at DESC").
		Find(&lessons).Error
	return lessons, err
}

// cachedLessonRepo is a read-through cache for catalog browsing. The payment
// initiator is wired with the uncached repo so prices always come from the
// datastore.
type cachedLessonRepo struct {
	inner  LessonRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedLessonRepo(inner LessonRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) LessonRepository {
	return &cachedLessonRepo{inner: inner, client: client, ttl: ttl, logger: logger}
}

func lessonCacheKey(id uuid.UUID) string {
	return "lesson:" + id.String()
}

func (r *cachedLessonRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	if raw, err := r.client.Get(ctx, lessonCacheKey(id)).Bytes(); err == nil {
		var lesson models.Lesson
		if err := json.Unmarshal(raw, &lesson); err == nil {
			return &lesson, nil
		}
	} else if err != redis.Nil {
		r.logger.Warn("lesson cache read failed", zap.Error(err))
	}

	lesson, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(lesson); err == nil {
		if err := r.client.Set(ctx, lessonCacheKey(id), raw, r.ttl).Err(); err != nil {
			r.logger.Warn("lesson cache write failed", zap.Error(err))
		}
	}
	return lesson, nil
}

func (r *cachedLessonRepo) ListApproved(ctx context.Context) ([]models.Lesson, error) {
	// Listing stays uncached; it already hits an indexed status column.
	return r.inner.ListApproved(ctx)
}
