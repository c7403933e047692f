package domain

import (
	"context"
	"errors"
	"time"

	billingdomain "github.com/smallbiznis/tutorledger/internal/billing/domain"
)

type RecordPaymentRequest struct {
	InvoiceID string
	Amount    float64
	Hours     *float64
	Fee       float64
	Method    string
	Reference string
	PaidAt    *time.Time
}

// QuoteRequest converts between a money amount and covered hours for
// one invoice. Exactly one of Amount and Hours must be set; the other
// is derived.
type QuoteRequest struct {
	InvoiceID string
	Amount    *float64
	Hours     *float64
	// Source selects the invoice item list the quote prices against,
	// same values as the totals endpoint.
	Source string
}

const (
	DirectionHoursToAmount = "hours_to_amount"
	DirectionAmountToHours = "amount_to_hours"
)

type QuoteResponse struct {
	InvoiceID   string                      `json:"invoice_id"`
	Direction   string                      `json:"direction"`
	Amount      *float64                    `json:"amount"`
	Hours       *float64                    `json:"hours"`
	HourlyRate  float64                     `json:"hourly_rate"`
	TransferFee float64                     `json:"transfer_fee"`
	Hint        *billingdomain.BoundaryHint `json:"hint,omitempty"`
}

type ListPaymentRequest struct {
	InvoiceID string
}

type Service interface {
	// Record stores a payment and rolls the invoice's paid and remaining
	// figures forward, flipping the status to PAID at zero remaining.
	Record(context.Context, RecordPaymentRequest) (Payment, error)
	Quote(context.Context, QuoteRequest) (QuoteResponse, error)
	ListByInvoice(context.Context, ListPaymentRequest) ([]Payment, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidQuoteInput   = errors.New("invalid_quote_input")
	ErrNotFound            = errors.New("not_found")
)
