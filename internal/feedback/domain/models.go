// Package domain contains lesson feedback: a guardian's rating of a
// completed class.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Feedback struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"organization_id"`
	LessonID  snowflake.ID `gorm:"not null;index" json:"lesson_id"`
	StudentID snowflake.ID `gorm:"not null;index" json:"student_id"`

	Rating  int    `gorm:"not null;default:0" json:"rating"`
	Comment string `gorm:"not null;default:''" json:"comment,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Feedback) TableName() string { return "lesson_feedback" }
