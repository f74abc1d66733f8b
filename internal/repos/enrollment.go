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

type EnrollmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, enrollments []*types.Enrollment) ([]*types.Enrollment, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Enrollment, error)
	GetByPair(ctx context.Context, tx *gorm.DB, employeeID, courseID uuid.UUID) (*types.Enrollment, error)
	// Upsert inserts the enrollment or, on (employee, course) conflict,
	// overwrites the generation tracking columns.
	Upsert(ctx context.Context, tx *gorm.DB, enrollment *types.Enrollment) (*types.Enrollment, error)
	ListPending(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Enrollment, error)
	ListIncompleteWithContentCandidates(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Enrollment, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) Create(ctx context.Context, tx *gorm.DB, enrollments []*types.Enrollment) ([]*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(enrollments) == 0 {
		return []*types.Enrollment{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var enrollment types.Enrollment
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) GetByPair(ctx context.Context, tx *gorm.DB, employeeID, courseID uuid.UUID) (*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var enrollment types.Enrollment
	err := transaction.WithContext(ctx).
		Where("employee_id = ? AND course_id = ?", employeeID, courseID).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) Upsert(ctx context.Context, tx *gorm.DB, enrollment *types.Enrollment) (*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "employee_id"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"generation_status", "generation_job_id", "content_id",
				"error_message", "started_at", "completed_at", "updated_at",
			}),
		}).
		Create(enrollment).Error
	if err != nil {
		return nil, err
	}
	// Re-read so the caller holds the canonical row id.
	return r.GetByPair(ctx, transaction, enrollment.EmployeeID, enrollment.CourseID)
}

func (r *enrollmentRepo) ListPending(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 10
	}
	var results []*types.Enrollment
	err := transaction.WithContext(ctx).
		Where("generation_status = ?", types.GenerationStatusPending).
		Order("updated_at ASC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListIncompleteWithContentCandidates returns enrollments whose generation
// state may be stale: not completed but with a generation job linked. The
// reconciliation sweep checks each against artifact existence.
func (r *enrollmentRepo) ListIncompleteWithContentCandidates(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var results []*types.Enrollment
	err := transaction.WithContext(ctx).
		Where("generation_status IN ?", []string{types.GenerationStatusGenerating, types.GenerationStatusFailed}).
		Where("generation_job_id IS NOT NULL").
		Order("updated_at ASC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *enrollmentRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Enrollment{}).
		Where("id = ?", id).
		Updates(updates).Error
}
