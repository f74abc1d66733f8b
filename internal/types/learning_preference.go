package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LearningPreference is an employee's self-reported learning profile,
// upserted whenever a generation request carries personalization options.
type LearningPreference struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"employee_id"`
	Format     string         `gorm:"column:format" json:"format"` // video|reading|interactive
	WeeklyTime string         `gorm:"column:weekly_time" json:"weekly_time"`
	Interests  datatypes.JSON `gorm:"column:interests;type:jsonb" json:"interests"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (LearningPreference) TableName() string { return "learning_preference" }
