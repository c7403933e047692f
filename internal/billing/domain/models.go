// Package domain contains the view models consumed by the invoice
// coverage and totals engine. These are read-only snapshots built from
// stored rows on every computation; nothing here is persisted.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ItemSource records which item list a resolution used.
type ItemSource string

const (
	SourceStatic  ItemSource = "static"
	SourceDynamic ItemSource = "dynamic"
)

// TransferFeeMode selects how the transfer fee is computed.
type TransferFeeMode string

const (
	FeeModeFixed   TransferFeeMode = "fixed"
	FeeModePercent TransferFeeMode = "percent"
)

// ClassLineItem is one billed class occurrence on an invoice. A zero
// LessonID means the line does not reference a lesson record, which is
// how refill/top-up lines are told apart from real classes.
type ClassLineItem struct {
	LessonID        snowflake.ID
	Date            *time.Time
	DurationMinutes int
	Rate            *float64
	Amount          *float64
	Description     string
}

// CoveragePolicy bounds which class lines count toward an invoice.
// MaxHours and EndDate are mutually exclusive modes: the end-date
// cutoff is only consulted when no hours cap is set.
type CoveragePolicy struct {
	MaxHours         *float64
	EndDate          *time.Time
	WaiveTransferFee bool
}

// TransferFeeSpec is the fee applied once per invoice. An unknown or
// empty mode is treated as fixed.
type TransferFeeSpec struct {
	Mode   TransferFeeMode
	Amount float64
	Waived bool
}

// GuardianFinancial carries the rate and fee settings attached either
// to the invoice or to the guardian profile.
type GuardianFinancial struct {
	HourlyRate  *float64
	TransferFee *TransferFeeSpec
}

// DynamicClasses is a fresher item list fetched independently of the
// stored invoice rows, with the totals the upstream fetch reported.
type DynamicClasses struct {
	Items        []ClassLineItem
	TotalMinutes *float64
	TotalHours   *float64
}

// InvoiceView is the aggregate the calculator consumes. Pointer fields
// distinguish "absent" from zero so the fallback chains can tell them
// apart.
type InvoiceView struct {
	Items          []ClassLineItem
	DynamicClasses *DynamicClasses
	Coverage       CoveragePolicy

	GuardianFinancial *GuardianFinancial
	GuardianProfile   *GuardianFinancial

	Discount         *float64
	LateFee          *float64
	Tip              *float64
	Subtotal         *float64
	AdjustedTotal    *float64
	Total            *float64
	Amount           *float64
	PaidAmount       *float64
	RemainingBalance *float64
	HoursCovered     *float64
}

// ResolvedEntries is the ordered in-scope subset of class lines plus
// their aggregate duration.
type ResolvedEntries struct {
	Items        []ClassLineItem
	TotalMinutes float64
	TotalHours   float64
	Source       ItemSource

	// UsedDeclaredTotals is set when local filtering produced nothing
	// and the dynamic list's own declared totals were used instead.
	UsedDeclaredTotals bool
}

// Totals is the derived money summary for an invoice. A nil Subtotal
// means recomputation was not possible and Total came from a stored
// fallback field.
type Totals struct {
	Subtotal    *float64
	TransferFee float64
	Total       float64
	Paid        float64
	Remaining   float64
	Hours       float64
}

// Boundary is the cumulative-hours point immediately after a class
// entry in chronological order.
type Boundary struct {
	Index           int
	CumulativeHours float64
	Date            *time.Time
}

// BoundaryHint is the advisory alignment suggestion for a candidate
// hours-paid value. It never blocks submission.
type BoundaryHint struct {
	Exact           bool
	Boundary        Boundary
	SuggestedHours  float64
	SuggestedAmount float64
	IncludesFee     bool
}
