package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

type ContentArtifactRepo interface {
	Create(ctx context.Context, tx *gorm.DB, artifacts []*types.ContentArtifact) ([]*types.ContentArtifact, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContentArtifact, error)
	GetActiveByPair(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) (*types.ContentArtifact, error)
	ListByPair(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) ([]*types.ContentArtifact, error)
	DeactivateByPair(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) error
	DeleteByPair(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) error
}

type contentArtifactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentArtifactRepo(db *gorm.DB, baseLog *logger.Logger) ContentArtifactRepo {
	return &contentArtifactRepo{db: db, log: baseLog.With("repo", "ContentArtifactRepo")}
}

func (r *contentArtifactRepo) Create(ctx context.Context, tx *gorm.DB, artifacts []*types.ContentArtifact) ([]*types.ContentArtifact, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(artifacts) == 0 {
		return []*types.ContentArtifact{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&artifacts).Error; err != nil {
		return nil, err
	}
	return artifacts, nil
}

func (r *contentArtifactRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContentArtifact, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var artifact types.ContentArtifact
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&artifact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &artifact, nil
}

func (r *contentArtifactRepo) GetActiveByPair(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) (*types.ContentArtifact, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var artifact types.ContentArtifact
	err := transaction.WithContext(ctx).
		Where("course_id = ? AND employee_id = ? AND active = ?", courseID, employeeID, true).
		Order("created_at DESC").
		Limit(1).
		Find(&artifact).Error
	if err != nil {
		return nil, err
	}
	if artifact.ID == uuid.Nil {
		return nil, nil
	}
	return &artifact, nil
}

func (r *contentArtifactRepo) ListByPair(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) ([]*types.ContentArtifact, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ContentArtifact
	err := transaction.WithContext(ctx).
		Where("course_id = ? AND employee_id = ?", courseID, employeeID).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contentArtifactRepo) DeactivateByPair(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ContentArtifact{}).
		Where("course_id = ? AND employee_id = ? AND active = ?", courseID, employeeID, true).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": time.Now(),
		}).Error
}

func (r *contentArtifactRepo) DeleteByPair(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("course_id = ? AND employee_id = ?", courseID, employeeID).
		Delete(&types.ContentArtifact{}).Error
}

type LegacyContentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.LegacyGeneratedContent) ([]*types.LegacyGeneratedContent, error)
	CountByPair(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) (int64, error)
	DeleteByPair(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) error
}

type legacyContentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLegacyContentRepo(db *gorm.DB, baseLog *logger.Logger) LegacyContentRepo {
	return &legacyContentRepo{db: db, log: baseLog.With("repo", "LegacyContentRepo")}
}

func (r *legacyContentRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.LegacyGeneratedContent) ([]*types.LegacyGeneratedContent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.LegacyGeneratedContent{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *legacyContentRepo) CountByPair(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(ctx).
		Model(&types.LegacyGeneratedContent{}).
		Where("course_id = ? AND employee_id = ?", courseID, employeeID).
		Count(&n).Error
	return n, err
}

func (r *legacyContentRepo) DeleteByPair(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("course_id = ? AND employee_id = ?", courseID, employeeID).
		Delete(&types.LegacyGeneratedContent{}).Error
}
