// Package domain contains the guardian aggregate: the paying parent or
// caretaker an invoice is addressed to.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Guardian struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID snowflake.ID `gorm:"not null;index" json:"organization_id"`
	Name  string       `gorm:"not null" json:"name"`
	Email string       `gorm:"not null" json:"email"`
	Phone string       `gorm:"not null;default:''" json:"phone,omitempty"`

	// HourlyRate is the guardian-level default rate; invoices may carry
	// their own override.
	HourlyRate        *float64 `gorm:"type:numeric(12,2)" json:"hourly_rate,omitempty"`
	TransferFeeMode   string   `gorm:"not null;default:'fixed'" json:"transfer_fee_mode"`
	TransferFeeAmount float64  `gorm:"type:numeric(12,2);not null;default:0" json:"transfer_fee_amount"`
	TransferFeeWaived bool     `gorm:"not null;default:false" json:"transfer_fee_waived"`

	Notes     string            `gorm:"not null;default:''" json:"notes,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Guardian) TableName() string { return "guardians" }
