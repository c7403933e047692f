package domain

import (
	"context"
	"errors"
	"time"

	billingdomain "github.com/smallbiznis/tutorledger/internal/billing/domain"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
)

type CreateInvoiceItemRequest struct {
	LessonID        string
	LessonDate      *time.Time
	DurationMinutes int
	Rate            *float64
	Amount          *float64
	Description     string
}

type CreateInvoiceRequest struct {
	GuardianID     string
	Currency       string
	IssueDate      *time.Time
	DueDate        *time.Time
	HourlyRate     *float64
	Discount       *float64
	LateFee        *float64
	Tip            *float64
	DeclaredHours  *float64
	DeclaredAmount *float64
	Notes          string
	Items          []CreateInvoiceItemRequest
}

type GetInvoiceRequest struct {
	ID string
}

type ListInvoiceRequest struct {
	PageToken  string
	PageSize   int32
	GuardianID string
	Status     string
}

type ListInvoiceFilter struct {
	GuardianID string
	Status     string
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

// UpdateCoverageRequest carries an autosaved coverage edit from the
// invoice screen. The debounce lives in the UI; this call is the
// explicit save it triggers.
type UpdateCoverageRequest struct {
	ID               string
	MaxHours         *float64
	ClearMaxHours    bool
	EndDate          *time.Time
	ClearEndDate     bool
	WaiveTransferFee *bool
}

// UpdateAmountsRequest is a partial edit of the invoice's stored money
// columns. Pointer fields set a value, names in Clear null one out;
// fields mentioned in neither are left alone.
type UpdateAmountsRequest struct {
	ID             string
	Discount       *float64
	LateFee        *float64
	Tip            *float64
	DeclaredHours  *float64
	DeclaredAmount *float64
	Subtotal       *float64
	AdjustedTotal  *float64
	Total          *float64
	Amount         *float64
	Clear          []string
}

type TotalsRequest struct {
	ID string
	// Source selects the item list: "static" uses the stored invoice
	// items, "dynamic" (default) refreshes from completed lessons.
	Source string
}

// InvoiceTotals is the canonical money summary plus the boundary series
// the payment form aligns against.
type InvoiceTotals struct {
	InvoiceID          string                   `json:"invoice_id"`
	Source             billingdomain.ItemSource `json:"source"`
	UsedDeclaredTotals bool                     `json:"used_declared_totals"`
	Subtotal           *float64                 `json:"subtotal"`
	TransferFee        float64                  `json:"transfer_fee"`
	Total              float64                  `json:"total"`
	Paid               float64                  `json:"paid"`
	Remaining          float64                  `json:"remaining"`
	Hours              float64                  `json:"hours"`
	HourlyRate         float64                  `json:"hourly_rate"`
	Boundaries         []billingdomain.Boundary `json:"boundaries"`
}

type Service interface {
	Create(context.Context, CreateInvoiceRequest) (Invoice, error)
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(context.Context, GetInvoiceRequest) (Invoice, error)
	UpdateCoverage(context.Context, UpdateCoverageRequest) (Invoice, error)
	UpdateAmounts(context.Context, UpdateAmountsRequest) (Invoice, error)
	Totals(context.Context, TotalsRequest) (InvoiceTotals, error)
	// BuildView assembles the engine's input for an invoice; the payment
	// quote endpoint shares it so both screens derive identical numbers.
	BuildView(ctx context.Context, invoice *Invoice, source string) (billingdomain.InvoiceView, billingdomain.ItemSource, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidGuardian     = errors.New("invalid_guardian")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidSource       = errors.New("invalid_source")
	ErrInvalidCoverage     = errors.New("invalid_coverage")
	ErrInvalidAmounts      = errors.New("invalid_amounts")
	ErrCoverageSaveBusy    = errors.New("coverage_save_busy")
	ErrNotFound            = errors.New("not_found")
)
