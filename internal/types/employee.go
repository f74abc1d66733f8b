package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Employee struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string         `gorm:"column:name;not null" json:"name"`
	Position       string         `gorm:"column:position" json:"position"`
	Department     string         `gorm:"column:department;index" json:"department"`
	Email          string         `gorm:"column:email;uniqueIndex" json:"email"`
	ProfileSummary string         `gorm:"column:profile_summary" json:"profile_summary"` // CV-derived, optional
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Employee) TableName() string { return "employee" }

// EmployeeMapping links an authenticated platform user to an employee record.
// Callers without a mapping fall back to using their own id as the employee id.
type EmployeeMapping struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (EmployeeMapping) TableName() string { return "employee_mapping" }
