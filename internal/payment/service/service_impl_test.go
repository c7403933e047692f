package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingservice "github.com/smallbiznis/tutorledger/internal/billing/service"
	"github.com/smallbiznis/tutorledger/internal/clock"
	"github.com/smallbiznis/tutorledger/internal/config"
	guardiandomain "github.com/smallbiznis/tutorledger/internal/guardian/domain"
	guardianrepository "github.com/smallbiznis/tutorledger/internal/guardian/repository"
	invoicedomain "github.com/smallbiznis/tutorledger/internal/invoice/domain"
	invoicerepository "github.com/smallbiznis/tutorledger/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/tutorledger/internal/invoice/service"
	lessondomain "github.com/smallbiznis/tutorledger/internal/lesson/domain"
	lessonrepository "github.com/smallbiznis/tutorledger/internal/lesson/repository"
	"github.com/smallbiznis/tutorledger/internal/orgcontext"
	"github.com/smallbiznis/tutorledger/internal/payment/domain"
	"github.com/smallbiznis/tutorledger/internal/payment/repository"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type paymentTestEnv struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	ctx   context.Context
	orgID snowflake.ID
}

func newPaymentTestEnv(t *testing.T) *paymentTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&guardiandomain.Guardian{},
		&lessondomain.Lesson{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&domain.Payment{},
	)
	assert.NoError(t, err)

	node, err := snowflake.NewNode(2)
	assert.NoError(t, err)

	log := zap.NewNop()
	billing := billingservice.NewService(billingservice.ServiceParam{
		Log:    log,
		Policy: config.NewStaticBillingPolicyHolder(config.DefaultBillingPolicy()),
	})
	clk := clock.NewFakeClock(time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC))
	invoiceRepo := invoicerepository.Provide()
	invoiceSvc := invoiceservice.New(invoiceservice.Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        clk,
		Repo:         invoiceRepo,
		GuardianRepo: guardianrepository.Provide(),
		LessonRepo:   lessonrepository.Provide(),
		Billing:      billing,
	})

	svc := New(Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       clk,
		Repo:        repository.Provide(),
		InvoiceRepo: invoiceRepo,
		InvoiceSvc:  invoiceSvc,
		Billing:     billing,
	})

	orgID := node.Generate()
	return &paymentTestEnv{
		svc:   svc,
		db:    db,
		node:  node,
		ctx:   orgcontext.WithOrgID(context.Background(), int64(orgID)),
		orgID: orgID,
	}
}

func f64(v float64) *float64 { return &v }

// seedInvoice stores a guardian plus an invoice with three one-hour
// classes at 50 each and a fixed 5 transfer fee, total 155.
func (e *paymentTestEnv) seedInvoice(t *testing.T) invoicedomain.Invoice {
	t.Helper()

	guardian := guardiandomain.Guardian{
		ID:                e.node.Generate(),
		OrgID:             e.orgID,
		Name:              "Sam Okafor",
		Email:             "sam@example.com",
		TransferFeeMode:   "fixed",
		TransferFeeAmount: 5,
	}
	assert.NoError(t, e.db.Create(&guardian).Error)

	day := time.Date(2026, 4, 6, 16, 0, 0, 0, time.UTC)
	invoice := invoicedomain.Invoice{
		ID:                e.node.Generate(),
		OrgID:             e.orgID,
		GuardianID:        guardian.ID,
		Number:            "INV-" + e.node.Generate().String(),
		Status:            invoicedomain.InvoiceStatusOpen,
		Currency:          "USD",
		TransferFeeMode:   "fixed",
		TransferFeeAmount: 5,
		CreatedAt:         day,
		UpdatedAt:         day,
	}
	assert.NoError(t, e.db.Create(&invoice).Error)

	for i := 0; i < 3; i++ {
		lessonDate := day.AddDate(0, 0, i)
		item := invoicedomain.InvoiceItem{
			ID:              e.node.Generate(),
			OrgID:           e.orgID,
			InvoiceID:       invoice.ID,
			LessonDate:      &lessonDate,
			DurationMinutes: 60,
			Amount:          f64(50),
			Position:        i,
		}
		lessonID := e.node.Generate()
		item.LessonID = &lessonID
		assert.NoError(t, e.db.Create(&item).Error)
	}

	return invoice
}

func TestRecordPayment_PartialThenFull(t *testing.T) {
	env := newPaymentTestEnv(t)
	invoice := env.seedInvoice(t)

	first, err := env.svc.Record(env.ctx, domain.RecordPaymentRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    100,
		Method:    "transfer",
	})
	assert.NoError(t, err)
	assert.Equal(t, 100.0, first.Amount)

	var stored invoicedomain.Invoice
	assert.NoError(t, env.db.Take(&stored, "id = ?", invoice.ID).Error)
	assert.Equal(t, invoicedomain.InvoiceStatusOpen, stored.Status)
	assert.NotNil(t, stored.PaidAmount)
	assert.Equal(t, 100.0, *stored.PaidAmount)
	assert.NotNil(t, stored.RemainingBalance)
	assert.Equal(t, 55.0, *stored.RemainingBalance)

	_, err = env.svc.Record(env.ctx, domain.RecordPaymentRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    55,
		Method:    "transfer",
	})
	assert.NoError(t, err)

	assert.NoError(t, env.db.Take(&stored, "id = ?", invoice.ID).Error)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, stored.Status)
	assert.Equal(t, 155.0, *stored.PaidAmount)
	assert.Equal(t, 0.0, *stored.RemainingBalance)

	payments, err := env.svc.ListByInvoice(env.ctx, domain.ListPaymentRequest{InvoiceID: invoice.ID.String()})
	assert.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestRecordPayment_OverpaymentClampsRemaining(t *testing.T) {
	env := newPaymentTestEnv(t)
	invoice := env.seedInvoice(t)

	_, err := env.svc.Record(env.ctx, domain.RecordPaymentRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    200,
	})
	assert.NoError(t, err)

	var stored invoicedomain.Invoice
	assert.NoError(t, env.db.Take(&stored, "id = ?", invoice.ID).Error)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, stored.Status)
	assert.Equal(t, 0.0, *stored.RemainingBalance)
}

func TestRecordPayment_RejectsNonPositiveAmount(t *testing.T) {
	env := newPaymentTestEnv(t)
	invoice := env.seedInvoice(t)

	_, err := env.svc.Record(env.ctx, domain.RecordPaymentRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestQuote_HoursToAmount(t *testing.T) {
	env := newPaymentTestEnv(t)
	invoice := env.seedInvoice(t)

	resp, err := env.svc.Quote(env.ctx, domain.QuoteRequest{
		InvoiceID: invoice.ID.String(),
		Hours:     f64(2),
		Source:    "static",
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.DirectionHoursToAmount, resp.Direction)
	assert.Equal(t, 50.0, resp.HourlyRate)
	assert.Equal(t, 5.0, resp.TransferFee)
	assert.NotNil(t, resp.Amount)
	assert.Equal(t, 105.0, *resp.Amount)
	assert.NotNil(t, resp.Hint)
	assert.True(t, resp.Hint.Exact)
	assert.Equal(t, 2.0, resp.Hint.Boundary.CumulativeHours)
}

func TestQuote_AmountToHours(t *testing.T) {
	env := newPaymentTestEnv(t)
	invoice := env.seedInvoice(t)

	resp, err := env.svc.Quote(env.ctx, domain.QuoteRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    f64(105),
		Source:    "static",
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.DirectionAmountToHours, resp.Direction)
	assert.NotNil(t, resp.Hours)
	assert.Equal(t, 2.0, *resp.Hours)
}

func TestQuote_AmountBelowFee(t *testing.T) {
	env := newPaymentTestEnv(t)
	invoice := env.seedInvoice(t)

	resp, err := env.svc.Quote(env.ctx, domain.QuoteRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    f64(3),
		Source:    "static",
	})
	assert.NoError(t, err)
	assert.NotNil(t, resp.Hours)
	assert.Equal(t, 0.0, *resp.Hours)
}

func TestQuote_RequiresExactlyOneInput(t *testing.T) {
	env := newPaymentTestEnv(t)
	invoice := env.seedInvoice(t)

	_, err := env.svc.Quote(env.ctx, domain.QuoteRequest{InvoiceID: invoice.ID.String()})
	assert.ErrorIs(t, err, domain.ErrInvalidQuoteInput)

	_, err = env.svc.Quote(env.ctx, domain.QuoteRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    f64(10),
		Hours:     f64(1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuoteInput)
}
