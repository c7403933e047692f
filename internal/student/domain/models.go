// Package domain contains the student aggregate.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Student struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID `gorm:"not null;index" json:"organization_id"`
	GuardianID snowflake.ID `gorm:"not null;index" json:"guardian_id"`
	Name       string       `gorm:"not null" json:"name"`
	Grade      string       `gorm:"not null;default:''" json:"grade,omitempty"`
	Subjects   string       `gorm:"not null;default:''" json:"subjects,omitempty"`
	Active     bool         `gorm:"not null;default:true" json:"active"`

	Notes     string            `gorm:"not null;default:''" json:"notes,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Student) TableName() string { return "students" }
