package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/tutorledger/internal/payment/domain"
)

type recordPaymentRequest struct {
	InvoiceID string   `json:"invoice_id"`
	Amount    float64  `json:"amount"`
	Hours     *float64 `json:"hours"`
	Fee       float64  `json:"fee"`
	Method    string   `json:"method"`
	Reference string   `json:"reference"`
	PaidAt    string   `json:"paid_at"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	paidAt, err := parseOptionalTime(req.PaidAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("paid_at", "invalid_paid_at", "invalid paid_at"))
		return
	}

	resp, err := s.paymentSvc.Record(c.Request.Context(), paymentdomain.RecordPaymentRequest{
		InvoiceID: strings.TrimSpace(req.InvoiceID),
		Amount:    req.Amount,
		Hours:     req.Hours,
		Fee:       req.Fee,
		Method:    strings.TrimSpace(req.Method),
		Reference: strings.TrimSpace(req.Reference),
		PaidAt:    paidAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPayments(c *gin.Context) {
	invoiceID := strings.TrimSpace(c.Query("invoice_id"))
	if invoiceID == "" {
		AbortWithError(c, newValidationError("invoice_id", "missing_invoice_id", "invoice_id is required"))
		return
	}

	resp, err := s.paymentSvc.ListByInvoice(c.Request.Context(), paymentdomain.ListPaymentRequest{
		InvoiceID: invoiceID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type quotePaymentRequest struct {
	InvoiceID string   `json:"invoice_id"`
	Amount    *float64 `json:"amount"`
	Hours     *float64 `json:"hours"`
	Source    string   `json:"source"`
}

func (s *Server) QuotePayment(c *gin.Context) {
	var req quotePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.Quote(c.Request.Context(), paymentdomain.QuoteRequest{
		InvoiceID: strings.TrimSpace(req.InvoiceID),
		Amount:    req.Amount,
		Hours:     req.Hours,
		Source:    strings.TrimSpace(req.Source),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
