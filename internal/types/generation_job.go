package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// JobTotalSteps is the fixed step count every generation run reports against.
const JobTotalSteps = 10

// GenerationJob is the durable record of one content generation run.
// Jobs are never deleted; terminal rows are the audit trail.
type GenerationJob struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"course_id"`
	EmployeeID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"employee_id"`
	Status          string     `gorm:"column:status;not null;index" json:"status"` // pending|in_progress|completed|failed
	TotalSteps      int        `gorm:"column:total_steps;not null" json:"total_steps"`
	CurrentStep     int        `gorm:"column:current_step;not null" json:"current_step"`
	Progress        int        `gorm:"column:progress;not null" json:"progress"`
	StepDescription string     `gorm:"column:step_description" json:"step_description"`
	ErrorMessage    string     `gorm:"column:error_message" json:"error_message"`
	CreatedAt       time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
	CompletedAt     *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (GenerationJob) TableName() string { return "generation_job" }

func (j *GenerationJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
