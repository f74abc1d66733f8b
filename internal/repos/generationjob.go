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

type GenerationJobRepo interface {
	Create(ctx context.Context, tx *gorm.DB, jobs []*types.GenerationJob) ([]*types.GenerationJob, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.GenerationJob, error)
	GetLatestByPair(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) (*types.GenerationJob, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type generationJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationJobRepo(db *gorm.DB, baseLog *logger.Logger) GenerationJobRepo {
	return &generationJobRepo{db: db, log: baseLog.With("repo", "GenerationJobRepo")}
}

func (r *generationJobRepo) Create(ctx context.Context, tx *gorm.DB, jobs []*types.GenerationJob) ([]*types.GenerationJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(jobs) == 0 {
		return []*types.GenerationJob{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *generationJobRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.GenerationJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var job types.GenerationJob
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *generationJobRepo) GetLatestByPair(ctx context.Context, tx *gorm.DB, courseID, employeeID uuid.UUID) (*types.GenerationJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var job types.GenerationJob
	err := transaction.WithContext(ctx).
		Where("course_id = ? AND employee_id = ?", courseID, employeeID).
		Order("created_at DESC").
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (r *generationJobRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.GenerationJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}
