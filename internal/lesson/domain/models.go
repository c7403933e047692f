// Package domain contains the lesson aggregate: a scheduled or
// completed class occurrence that invoices bill for.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type LessonStatus string

const (
	StatusScheduled LessonStatus = "scheduled"
	StatusCompleted LessonStatus = "completed"
	StatusCancelled LessonStatus = "cancelled"
)

type Lesson struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID `gorm:"not null;index" json:"organization_id"`
	StudentID  snowflake.ID `gorm:"not null;index" json:"student_id"`
	GuardianID snowflake.ID `gorm:"not null;index" json:"guardian_id"`
	Subject    string       `gorm:"not null;default:''" json:"subject,omitempty"`
	Status     LessonStatus `gorm:"not null;default:'scheduled'" json:"status"`

	StartsAt        *time.Time `json:"starts_at,omitempty"`
	DurationMinutes int        `gorm:"not null;default:0" json:"duration_minutes"`
	Rate            *float64   `gorm:"type:numeric(12,2)" json:"rate,omitempty"`
	Amount          *float64   `gorm:"type:numeric(12,2)" json:"amount,omitempty"`
	Description     string     `gorm:"not null;default:''" json:"description,omitempty"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Lesson) TableName() string { return "lessons" }
