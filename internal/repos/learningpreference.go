package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

type LearningPreferenceRepo interface {
	GetByEmployeeID(ctx context.Context, tx *gorm.DB, employeeID uuid.UUID) (*types.LearningPreference, error)
	Upsert(ctx context.Context, tx *gorm.DB, pref *types.LearningPreference) error
}

type learningPreferenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningPreferenceRepo(db *gorm.DB, baseLog *logger.Logger) LearningPreferenceRepo {
	return &learningPreferenceRepo{db: db, log: baseLog.With("repo", "LearningPreferenceRepo")}
}

func (r *learningPreferenceRepo) GetByEmployeeID(ctx context.Context, tx *gorm.DB, employeeID uuid.UUID) (*types.LearningPreference, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if employeeID == uuid.Nil {
		return nil, nil
	}
	var pref types.LearningPreference
	err := transaction.WithContext(ctx).Where("employee_id = ?", employeeID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *learningPreferenceRepo) Upsert(ctx context.Context, tx *gorm.DB, pref *types.LearningPreference) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	pref.UpdatedAt = time.Now()
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"format", "weekly_time", "interests", "updated_at"}),
		}).
		Create(pref).Error
}
