// Package domain contains the payment aggregate: money received against
// an invoice, in full or as a partial instalment.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Payment struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID `gorm:"not null;index" json:"organization_id"`
	InvoiceID  snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	GuardianID snowflake.ID `gorm:"not null;index" json:"guardian_id"`

	Amount float64 `gorm:"type:numeric(12,2);not null;default:0" json:"amount"`
	// Hours is the covered-hours figure the payer aligned to, when the
	// payment was entered hours-first. Nil for plain money payments.
	Hours *float64 `gorm:"type:numeric(12,3)" json:"hours,omitempty"`
	Fee   float64  `gorm:"type:numeric(12,2);not null;default:0" json:"fee"`

	Method    string     `gorm:"not null;default:''" json:"method,omitempty"`
	Reference string     `gorm:"not null;default:''" json:"reference,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
