// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	InvoiceStatusOpen  InvoiceStatus = "OPEN"
	InvoiceStatusPaid  InvoiceStatus = "PAID"
	InvoiceStatusVoid  InvoiceStatus = "VOID"
)

// Invoice is a bill addressed to a guardian for class time. Money and
// hours columns are nullable on purpose: the totals engine needs to
// tell "absent" apart from zero when walking its fallback chains.
type Invoice struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID  `gorm:"not null;index;uniqueIndex:uq_invoices_org_number,priority:1" json:"organization_id"`
	GuardianID snowflake.ID  `gorm:"not null;index" json:"guardian_id"`
	Number     string        `gorm:"not null;uniqueIndex:uq_invoices_org_number,priority:2" json:"number"`
	Status     InvoiceStatus `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	Currency   string        `gorm:"type:text;not null;default:'USD'" json:"currency"`

	IssueDate *time.Time `json:"issue_date,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`

	HourlyRate     *float64 `gorm:"type:numeric(12,2)" json:"hourly_rate,omitempty"`
	DeclaredHours  *float64 `gorm:"type:numeric(12,3)" json:"declared_hours,omitempty"`
	DeclaredAmount *float64 `gorm:"type:numeric(12,2)" json:"declared_amount,omitempty"`

	Subtotal      *float64 `gorm:"type:numeric(12,2)" json:"subtotal,omitempty"`
	Discount      *float64 `gorm:"type:numeric(12,2)" json:"discount,omitempty"`
	LateFee       *float64 `gorm:"type:numeric(12,2)" json:"late_fee,omitempty"`
	Tip           *float64 `gorm:"type:numeric(12,2)" json:"tip,omitempty"`
	AdjustedTotal *float64 `gorm:"type:numeric(12,2)" json:"adjusted_total,omitempty"`
	Total         *float64 `gorm:"type:numeric(12,2)" json:"total,omitempty"`
	Amount        *float64 `gorm:"type:numeric(12,2)" json:"amount,omitempty"`

	PaidAmount       *float64 `gorm:"type:numeric(12,2)" json:"paid_amount,omitempty"`
	RemainingBalance *float64 `gorm:"type:numeric(12,2)" json:"remaining_balance,omitempty"`
	HoursCovered     *float64 `gorm:"type:numeric(12,3)" json:"hours_covered,omitempty"`

	TransferFeeMode   string  `gorm:"not null;default:'fixed'" json:"transfer_fee_mode"`
	TransferFeeAmount float64 `gorm:"type:numeric(12,2);not null;default:0" json:"transfer_fee_amount"`
	TransferFeeWaived bool    `gorm:"not null;default:false" json:"transfer_fee_waived"`

	CoverageMaxHours         *float64   `gorm:"type:numeric(12,3)" json:"coverage_max_hours,omitempty"`
	CoverageEndDate          *time.Time `json:"coverage_end_date,omitempty"`
	CoverageWaiveTransferFee bool       `gorm:"not null;default:false" json:"coverage_waive_transfer_fee"`

	Notes     string            `gorm:"not null;default:''" json:"notes,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []InvoiceItem `gorm:"-" json:"items,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is one line on an invoice, usually a billed class. A nil
// LessonID marks a non-class line such as an hours refill.
type InvoiceItem struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	InvoiceID snowflake.ID  `gorm:"not null;index" json:"invoice_id"`
	LessonID  *snowflake.ID `gorm:"index" json:"lesson_id,omitempty"`

	LessonDate      *time.Time `json:"lesson_date,omitempty"`
	DurationMinutes int        `gorm:"not null;default:0" json:"duration_minutes"`
	Rate            *float64   `gorm:"type:numeric(12,2)" json:"rate,omitempty"`
	Amount          *float64   `gorm:"type:numeric(12,2)" json:"amount,omitempty"`
	Description     string     `gorm:"not null;default:''" json:"description,omitempty"`
	Position        int        `gorm:"not null;default:0" json:"position"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }
