package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	guardiandomain "github.com/smallbiznis/tutorledger/internal/guardian/domain"
	invoicedomain "github.com/smallbiznis/tutorledger/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/tutorledger/internal/payment/domain"
	"github.com/smallbiznis/tutorledger/internal/providers/pdf"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
)

type createInvoiceItemRequest struct {
	LessonID        string   `json:"lesson_id"`
	LessonDate      string   `json:"lesson_date"`
	DurationMinutes int      `json:"duration_minutes"`
	Rate            *float64 `json:"rate"`
	Amount          *float64 `json:"amount"`
	Description     string   `json:"description"`
}

type createInvoiceRequest struct {
	GuardianID     string                     `json:"guardian_id"`
	Currency       string                     `json:"currency"`
	IssueDate      string                     `json:"issue_date"`
	DueDate        string                     `json:"due_date"`
	HourlyRate     *float64                   `json:"hourly_rate"`
	Discount       *float64                   `json:"discount"`
	LateFee        *float64                   `json:"late_fee"`
	Tip            *float64                   `json:"tip"`
	DeclaredHours  *float64                   `json:"declared_hours"`
	DeclaredAmount *float64                   `json:"declared_amount"`
	Notes          string                     `json:"notes"`
	Items          []createInvoiceItemRequest `json:"items"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	issueDate, err := parseOptionalTime(req.IssueDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("issue_date", "invalid_issue_date", "invalid issue_date"))
		return
	}
	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	create := invoicedomain.CreateInvoiceRequest{
		GuardianID:     strings.TrimSpace(req.GuardianID),
		Currency:       strings.TrimSpace(req.Currency),
		IssueDate:      issueDate,
		DueDate:        dueDate,
		HourlyRate:     req.HourlyRate,
		Discount:       req.Discount,
		LateFee:        req.LateFee,
		Tip:            req.Tip,
		DeclaredHours:  req.DeclaredHours,
		DeclaredAmount: req.DeclaredAmount,
		Notes:          req.Notes,
	}
	for _, item := range req.Items {
		lessonDate, err := parseOptionalTime(item.LessonDate, false)
		if err != nil {
			AbortWithError(c, newValidationError("lesson_date", "invalid_lesson_date", "invalid lesson_date"))
			return
		}
		create.Items = append(create.Items, invoicedomain.CreateInvoiceItemRequest{
			LessonID:        strings.TrimSpace(item.LessonID),
			LessonDate:      lessonDate,
			DurationMinutes: item.DurationMinutes,
			Rate:            item.Rate,
			Amount:          item.Amount,
			Description:     item.Description,
		})
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		GuardianID string `form:"guardian_id"`
		Status     string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
		GuardianID: strings.TrimSpace(query.GuardianID),
		Status:     strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), invoicedomain.GetInvoiceRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceTotals(c *gin.Context) {
	resp, err := s.invoiceSvc.Totals(c.Request.Context(), invoicedomain.TotalsRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Source: strings.TrimSpace(c.Query("source")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateCoverageRequest struct {
	MaxHours         *float64 `json:"max_hours"`
	ClearMaxHours    bool     `json:"clear_max_hours"`
	EndDate          *string  `json:"end_date"`
	ClearEndDate     bool     `json:"clear_end_date"`
	WaiveTransferFee *bool    `json:"waive_transfer_fee"`
}

func (s *Server) UpdateInvoiceCoverage(c *gin.Context) {
	var req updateCoverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := invoicedomain.UpdateCoverageRequest{
		ID:               strings.TrimSpace(c.Param("id")),
		MaxHours:         req.MaxHours,
		ClearMaxHours:    req.ClearMaxHours,
		ClearEndDate:     req.ClearEndDate,
		WaiveTransferFee: req.WaiveTransferFee,
	}
	if req.EndDate != nil {
		endDate, err := parseOptionalTime(*req.EndDate, false)
		if err != nil {
			AbortWithError(c, newValidationError("end_date", "invalid_end_date", "invalid end_date"))
			return
		}
		update.EndDate = endDate
	}

	resp, err := s.invoiceSvc.UpdateCoverage(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateAmountsRequest struct {
	Discount       *float64 `json:"discount"`
	LateFee        *float64 `json:"late_fee"`
	Tip            *float64 `json:"tip"`
	DeclaredHours  *float64 `json:"declared_hours"`
	DeclaredAmount *float64 `json:"declared_amount"`
	Subtotal       *float64 `json:"subtotal"`
	AdjustedTotal  *float64 `json:"adjusted_total"`
	Total          *float64 `json:"total"`
	Amount         *float64 `json:"amount"`
	Clear          []string `json:"clear"`
}

func (s *Server) UpdateInvoiceAmounts(c *gin.Context) {
	var req updateAmountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.UpdateAmounts(c.Request.Context(), invoicedomain.UpdateAmountsRequest{
		ID:             strings.TrimSpace(c.Param("id")),
		Discount:       req.Discount,
		LateFee:        req.LateFee,
		Tip:            req.Tip,
		DeclaredHours:  req.DeclaredHours,
		DeclaredAmount: req.DeclaredAmount,
		Subtotal:       req.Subtotal,
		AdjustedTotal:  req.AdjustedTotal,
		Total:          req.Total,
		Amount:         req.Amount,
		Clear:          req.Clear,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoicePayments(c *gin.Context) {
	resp, err := s.paymentSvc.ListByInvoice(c.Request.Context(), paymentdomain.ListPaymentRequest{
		InvoiceID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceReceiptPDF(c *gin.Context) {
	ctx := c.Request.Context()
	id := strings.TrimSpace(c.Param("id"))

	invoice, err := s.invoiceSvc.GetByID(ctx, invoicedomain.GetInvoiceRequest{ID: id})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	totals, err := s.invoiceSvc.Totals(ctx, invoicedomain.TotalsRequest{ID: id, Source: "static"})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	payments, err := s.paymentSvc.ListByInvoice(ctx, paymentdomain.ListPaymentRequest{InvoiceID: id})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	guardian, err := s.guardianSvc.GetByID(ctx, guardiandomain.GetGuardianRequest{ID: invoice.GuardianID.String()})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data := pdf.ReceiptData{
		OrgName:       "TutorLedger",
		InvoiceNumber: invoice.Number,
		Status:        string(invoice.Status),
		Currency:      invoice.Currency,
		GuardianName:  guardian.Name,
		GuardianEmail: guardian.Email,
		Subtotal:      formatOptionalMoney(totals.Subtotal),
		TransferFee:   formatMoney(totals.TransferFee),
		Total:         formatMoney(totals.Total),
		Paid:          formatMoney(totals.Paid),
		Remaining:     formatMoney(totals.Remaining),
	}
	if invoice.IssueDate != nil {
		data.IssueDate = invoice.IssueDate.Format(dateOnlyLayout)
	}
	for _, item := range invoice.Items {
		line := pdf.ReceiptLine{
			Description: item.Description,
			Hours:       fmt.Sprintf("%.2f", float64(item.DurationMinutes)/60),
			Amount:      formatOptionalMoney(item.Amount),
		}
		if item.LessonDate != nil {
			line.Date = item.LessonDate.Format(dateOnlyLayout)
		}
		data.Lines = append(data.Lines, line)
	}
	for _, payment := range payments {
		entry := pdf.ReceiptPayment{
			Method:    payment.Method,
			Reference: payment.Reference,
			Amount:    formatMoney(payment.Amount),
		}
		if payment.PaidAt != nil {
			entry.PaidAt = payment.PaidAt.Format(dateOnlyLayout)
		} else {
			entry.PaidAt = payment.CreatedAt.Format(dateOnlyLayout)
		}
		data.Payments = append(data.Payments, entry)
	}

	reader, err := s.pdfRenderer.RenderReceipt(ctx, data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s-receipt.pdf", invoice.Number))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatOptionalMoney(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatMoney(*v)
}
