package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ContentArtifact is one generated, persisted result for a (course, employee)
// pair. Rows are immutable once written except for the Active flag, which is
// cleared when a newer artifact supersedes this one.
type ContentArtifact struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_artifact_pair" json:"course_id"`
	EmployeeID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_artifact_pair" json:"employee_id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	Level       string         `gorm:"column:level" json:"level"`
	Modules     datatypes.JSON `gorm:"column:modules;type:jsonb" json:"modules"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	Active      bool           `gorm:"column:active;not null;default:false;index" json:"active"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (ContentArtifact) TableName() string { return "content_artifact" }

// LegacyGeneratedContent is the storage location older platform versions wrote
// generated course content to. Forced regeneration purges it alongside
// content_artifact so a retried run never observes stale partial state.
type LegacyGeneratedContent struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	EmployeeID uuid.UUID      `gorm:"type:uuid;not null;index" json:"employee_id"`
	Payload    datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
}

func (LegacyGeneratedContent) TableName() string { return "generated_content" }
