package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GenerationStatusNone       = "none"
	GenerationStatusPending    = "pending"
	GenerationStatusGenerating = "generating"
	GenerationStatusCompleted  = "completed"
	GenerationStatusFailed     = "failed"
)

// Enrollment links an employee to a course and carries the denormalized
// generation tracking fields. At most one row per (employee, course) pair.
type Enrollment struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_pair" json:"employee_id"`
	CourseID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_pair" json:"course_id"`
	GenerationStatus string         `gorm:"column:generation_status;not null;index" json:"generation_status"`
	GenerationJobID  *uuid.UUID     `gorm:"type:uuid;column:generation_job_id" json:"generation_job_id,omitempty"`
	ContentID        *uuid.UUID     `gorm:"type:uuid;column:content_id" json:"content_id,omitempty"`
	ErrorMessage     string         `gorm:"column:error_message" json:"error_message"`
	StartedAt        *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt      *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Enrollment) TableName() string { return "enrollment" }
