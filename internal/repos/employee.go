package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/types"
)

type EmployeeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, employees []*types.Employee) ([]*types.Employee, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Employee, error)
}

type employeeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmployeeRepo(db *gorm.DB, baseLog *logger.Logger) EmployeeRepo {
	return &employeeRepo{db: db, log: baseLog.With("repo", "EmployeeRepo")}
}

func (r *employeeRepo) Create(ctx context.Context, tx *gorm.DB, employees []*types.Employee) ([]*types.Employee, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(employees) == 0 {
		return []*types.Employee{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

func (r *employeeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Employee, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var employee types.Employee
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&employee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

type EmployeeMappingRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.EmployeeMapping, error)
	Upsert(ctx context.Context, tx *gorm.DB, mapping *types.EmployeeMapping) error
}

type employeeMappingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmployeeMappingRepo(db *gorm.DB, baseLog *logger.Logger) EmployeeMappingRepo {
	return &employeeMappingRepo{db: db, log: baseLog.With("repo", "EmployeeMappingRepo")}
}

func (r *employeeMappingRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.EmployeeMapping, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var mapping types.EmployeeMapping
	err := transaction.WithContext(ctx).Where("user_id = ?", userID).First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *employeeMappingRepo) Upsert(ctx context.Context, tx *gorm.DB, mapping *types.EmployeeMapping) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	existing, err := r.GetByUserID(ctx, transaction, mapping.UserID)
	if err != nil {
		return err
	}
	if existing == nil {
		return transaction.WithContext(ctx).Create(mapping).Error
	}
	return transaction.WithContext(ctx).
		Model(&types.EmployeeMapping{}).
		Where("id = ?", existing.ID).
		Update("employee_id", mapping.EmployeeID).Error
}
