package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/tutorledger/internal/billing/domain"
	"github.com/smallbiznis/tutorledger/internal/config"
	feedbackdomain "github.com/smallbiznis/tutorledger/internal/feedback/domain"
	guardiandomain "github.com/smallbiznis/tutorledger/internal/guardian/domain"
	invoicedomain "github.com/smallbiznis/tutorledger/internal/invoice/domain"
	lessondomain "github.com/smallbiznis/tutorledger/internal/lesson/domain"
	paymentdomain "github.com/smallbiznis/tutorledger/internal/payment/domain"
	"github.com/smallbiznis/tutorledger/internal/providers/pdf"
	studentdomain "github.com/smallbiznis/tutorledger/internal/student/domain"
	"github.com/stretchr/testify/assert"
)

type fakeInvoiceService struct {
	totals       invoicedomain.InvoiceTotals
	totalsErr    error
	coverageErr  error
	lastCoverage invoicedomain.UpdateCoverageRequest
	amountsErr   error
	lastAmounts  invoicedomain.UpdateAmountsRequest
}

func (f *fakeInvoiceService) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	return invoicedomain.Invoice{}, nil
}

func (f *fakeInvoiceService) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	return invoicedomain.ListInvoiceResponse{}, nil
}

func (f *fakeInvoiceService) GetByID(ctx context.Context, req invoicedomain.GetInvoiceRequest) (invoicedomain.Invoice, error) {
	return invoicedomain.Invoice{}, nil
}

func (f *fakeInvoiceService) UpdateCoverage(ctx context.Context, req invoicedomain.UpdateCoverageRequest) (invoicedomain.Invoice, error) {
	f.lastCoverage = req
	if f.coverageErr != nil {
		return invoicedomain.Invoice{}, f.coverageErr
	}
	return invoicedomain.Invoice{}, nil
}

func (f *fakeInvoiceService) UpdateAmounts(ctx context.Context, req invoicedomain.UpdateAmountsRequest) (invoicedomain.Invoice, error) {
	f.lastAmounts = req
	if f.amountsErr != nil {
		return invoicedomain.Invoice{}, f.amountsErr
	}
	return invoicedomain.Invoice{}, nil
}

func (f *fakeInvoiceService) Totals(ctx context.Context, req invoicedomain.TotalsRequest) (invoicedomain.InvoiceTotals, error) {
	if f.totalsErr != nil {
		return invoicedomain.InvoiceTotals{}, f.totalsErr
	}
	return f.totals, nil
}

func (f *fakeInvoiceService) BuildView(ctx context.Context, invoice *invoicedomain.Invoice, source string) (billingdomain.InvoiceView, billingdomain.ItemSource, error) {
	return billingdomain.InvoiceView{}, billingdomain.SourceStatic, nil
}

type fakePaymentService struct {
	quote    paymentdomain.QuoteResponse
	quoteErr error
}

func (f *fakePaymentService) Record(ctx context.Context, req paymentdomain.RecordPaymentRequest) (paymentdomain.Payment, error) {
	return paymentdomain.Payment{}, nil
}

func (f *fakePaymentService) Quote(ctx context.Context, req paymentdomain.QuoteRequest) (paymentdomain.QuoteResponse, error) {
	if f.quoteErr != nil {
		return paymentdomain.QuoteResponse{}, f.quoteErr
	}
	return f.quote, nil
}

func (f *fakePaymentService) ListByInvoice(ctx context.Context, req paymentdomain.ListPaymentRequest) ([]paymentdomain.Payment, error) {
	return nil, nil
}

type fakeGuardianService struct{}

func (f *fakeGuardianService) Create(ctx context.Context, req guardiandomain.CreateGuardianRequest) (guardiandomain.Guardian, error) {
	return guardiandomain.Guardian{}, nil
}

func (f *fakeGuardianService) List(ctx context.Context, req guardiandomain.ListGuardianRequest) (guardiandomain.ListGuardianResponse, error) {
	return guardiandomain.ListGuardianResponse{}, nil
}

func (f *fakeGuardianService) GetByID(ctx context.Context, req guardiandomain.GetGuardianRequest) (guardiandomain.Guardian, error) {
	return guardiandomain.Guardian{}, nil
}

func (f *fakeGuardianService) Update(ctx context.Context, req guardiandomain.UpdateGuardianRequest) (guardiandomain.Guardian, error) {
	return guardiandomain.Guardian{}, nil
}

type fakeStudentService struct{}

func (f *fakeStudentService) Create(ctx context.Context, req studentdomain.CreateStudentRequest) (studentdomain.Student, error) {
	return studentdomain.Student{}, nil
}

func (f *fakeStudentService) List(ctx context.Context, req studentdomain.ListStudentRequest) (studentdomain.ListStudentResponse, error) {
	return studentdomain.ListStudentResponse{}, nil
}

func (f *fakeStudentService) GetByID(ctx context.Context, req studentdomain.GetStudentRequest) (studentdomain.Student, error) {
	return studentdomain.Student{}, nil
}

func (f *fakeStudentService) Update(ctx context.Context, req studentdomain.UpdateStudentRequest) (studentdomain.Student, error) {
	return studentdomain.Student{}, nil
}

type fakeLessonService struct{}

func (f *fakeLessonService) Create(ctx context.Context, req lessondomain.CreateLessonRequest) (lessondomain.Lesson, error) {
	return lessondomain.Lesson{}, nil
}

func (f *fakeLessonService) List(ctx context.Context, req lessondomain.ListLessonRequest) (lessondomain.ListLessonResponse, error) {
	return lessondomain.ListLessonResponse{}, nil
}

func (f *fakeLessonService) GetByID(ctx context.Context, req lessondomain.GetLessonRequest) (lessondomain.Lesson, error) {
	return lessondomain.Lesson{}, nil
}

func (f *fakeLessonService) Update(ctx context.Context, req lessondomain.UpdateLessonRequest) (lessondomain.Lesson, error) {
	return lessondomain.Lesson{}, nil
}

func (f *fakeLessonService) CompletedByGuardian(ctx context.Context, guardianID string) ([]lessondomain.Lesson, error) {
	return nil, nil
}

type fakeFeedbackService struct{}

func (f *fakeFeedbackService) Create(ctx context.Context, req feedbackdomain.CreateFeedbackRequest) (feedbackdomain.Feedback, error) {
	return feedbackdomain.Feedback{}, nil
}

func (f *fakeFeedbackService) List(ctx context.Context, req feedbackdomain.ListFeedbackRequest) ([]feedbackdomain.Feedback, error) {
	return nil, nil
}

type fakeBillingService struct{}

func (f *fakeBillingService) ResolveEntries(items []billingdomain.ClassLineItem, policy billingdomain.CoveragePolicy) billingdomain.ResolvedEntries {
	return billingdomain.ResolvedEntries{}
}

func (f *fakeBillingService) ResolveInvoiceEntries(inv billingdomain.InvoiceView) billingdomain.ResolvedEntries {
	return billingdomain.ResolvedEntries{}
}

func (f *fakeBillingService) ComputeTotals(inv billingdomain.InvoiceView) billingdomain.Totals {
	return billingdomain.Totals{}
}

func (f *fakeBillingService) ResolveHourlyRate(inv billingdomain.InvoiceView, entries billingdomain.ResolvedEntries) float64 {
	return 0
}

func (f *fakeBillingService) HoursToAmount(hours, hourlyRate, transferFee float64) *float64 {
	return nil
}

func (f *fakeBillingService) AmountToHours(amount, hourlyRate, transferFee float64) *float64 {
	return nil
}

func (f *fakeBillingService) Boundaries(entries billingdomain.ResolvedEntries) []billingdomain.Boundary {
	return nil
}

func (f *fakeBillingService) SuggestBoundary(hoursPaid, hourlyRate, transferFee float64, boundaries []billingdomain.Boundary) *billingdomain.BoundaryHint {
	return nil
}

type serverFixture struct {
	server     *Server
	invoiceSvc *fakeInvoiceService
	paymentSvc *fakePaymentService
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	invoiceSvc := &fakeInvoiceService{}
	paymentSvc := &fakePaymentService{}

	srv := NewServer(ServerParams{
		Gin:         engine,
		Cfg:         config.Config{DefaultOrgID: 1},
		GuardianSvc: &fakeGuardianService{},
		StudentSvc:  &fakeStudentService{},
		LessonSvc:   &fakeLessonService{},
		InvoiceSvc:  invoiceSvc,
		PaymentSvc:  paymentSvc,
		FeedbackSvc: &fakeFeedbackService{},
		BillingSvc:  &fakeBillingService{},
		PDFRenderer: pdf.New(),
	})

	return &serverFixture{server: srv, invoiceSvc: invoiceSvc, paymentSvc: paymentSvc}
}

func TestGetInvoiceTotals_ReturnsPayload(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.invoiceSvc.totals = invoicedomain.InvoiceTotals{
		InvoiceID: "42",
		Source:    billingdomain.SourceDynamic,
		Total:     105,
		Remaining: 105,
		Hours:     2,
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/invoices/42/totals?source=dynamic", nil)
	rec := httptest.NewRecorder()
	fixture.server.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data invoicedomain.InvoiceTotals `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 105.0, body.Data.Total)
	assert.Equal(t, 2.0, body.Data.Hours)
}

func TestGetInvoiceTotals_InvalidSourceIs400(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.invoiceSvc.totalsErr = invoicedomain.ErrInvalidSource

	req := httptest.NewRequest(http.MethodGet, "/admin/invoices/42/totals?source=csv", nil)
	rec := httptest.NewRecorder()
	fixture.server.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetInvoiceTotals_NotFoundIs404(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.invoiceSvc.totalsErr = invoicedomain.ErrNotFound

	req := httptest.NewRequest(http.MethodGet, "/admin/invoices/42/totals", nil)
	rec := httptest.NewRecorder()
	fixture.server.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateInvoiceCoverage_BusyIs409(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.invoiceSvc.coverageErr = invoicedomain.ErrCoverageSaveBusy

	payload := bytes.NewBufferString(`{"max_hours": 2}`)
	req := httptest.NewRequest(http.MethodPatch, "/admin/invoices/42/coverage", payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fixture.server.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateInvoiceCoverage_ForwardsClearFlags(t *testing.T) {
	fixture := newServerFixture(t)

	payload := bytes.NewBufferString(`{"clear_max_hours": true, "clear_end_date": true, "waive_transfer_fee": false}`)
	req := httptest.NewRequest(http.MethodPatch, "/admin/invoices/42/coverage", payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fixture.server.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, fixture.invoiceSvc.lastCoverage.ClearMaxHours)
	assert.True(t, fixture.invoiceSvc.lastCoverage.ClearEndDate)
	assert.NotNil(t, fixture.invoiceSvc.lastCoverage.WaiveTransferFee)
	assert.False(t, *fixture.invoiceSvc.lastCoverage.WaiveTransferFee)
}

func TestUpdateInvoiceAmounts_ForwardsSetsAndClears(t *testing.T) {
	fixture := newServerFixture(t)

	payload := bytes.NewBufferString(`{"discount": 10, "clear": ["tip", "late_fee"]}`)
	req := httptest.NewRequest(http.MethodPatch, "/admin/invoices/42/amounts", payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fixture.server.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", fixture.invoiceSvc.lastAmounts.ID)
	assert.NotNil(t, fixture.invoiceSvc.lastAmounts.Discount)
	assert.Equal(t, 10.0, *fixture.invoiceSvc.lastAmounts.Discount)
	assert.Equal(t, []string{"tip", "late_fee"}, fixture.invoiceSvc.lastAmounts.Clear)
}

func TestUpdateInvoiceAmounts_InvalidIs400(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.invoiceSvc.amountsErr = invoicedomain.ErrInvalidAmounts

	payload := bytes.NewBufferString(`{"discount": -3}`)
	req := httptest.NewRequest(http.MethodPatch, "/admin/invoices/42/amounts", payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fixture.server.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPayments_RequiresInvoiceID(t *testing.T) {
	fixture := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/payments", nil)
	rec := httptest.NewRecorder()
	fixture.server.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuotePayment_InvalidInputIs400(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.paymentSvc.quoteErr = paymentdomain.ErrInvalidQuoteInput

	payload := bytes.NewBufferString(`{"invoice_id": "42"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/payments/quote", payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fixture.server.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrgContext_InvalidHeaderIs400(t *testing.T) {
	fixture := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/invoices", nil)
	req.Header.Set("X-Org-Id", "not-a-snowflake")
	rec := httptest.NewRecorder()
	fixture.server.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
