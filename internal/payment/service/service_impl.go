package service

import (
	"context"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/tutorledger/internal/billing/domain"
	"github.com/smallbiznis/tutorledger/internal/clock"
	invoicedomain "github.com/smallbiznis/tutorledger/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/tutorledger/internal/observability/metrics"
	"github.com/smallbiznis/tutorledger/internal/orgcontext"
	"github.com/smallbiznis/tutorledger/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	InvoiceRepo invoicedomain.Repository
	InvoiceSvc  invoicedomain.Service
	Billing     billingdomain.Service
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	invoiceRepo invoicedomain.Repository
	invoiceSvc  invoicedomain.Service
	billing     billingdomain.Service
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
		invoiceSvc:  p.InvoiceSvc,
		billing:     p.Billing,
		metrics:     p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordPaymentRequest) (domain.Payment, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Payment{}, domain.ErrInvalidOrganization
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil {
		return domain.Payment{}, domain.ErrInvalidID
	}
	if req.Amount <= 0 {
		return domain.Payment{}, domain.ErrInvalidAmount
	}
	if req.Hours != nil && *req.Hours < 0 {
		return domain.Payment{}, domain.ErrInvalidAmount
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return domain.Payment{}, err
	}
	if invoice == nil {
		return domain.Payment{}, domain.ErrNotFound
	}

	view, _, err := s.invoiceSvc.BuildView(ctx, invoice, "")
	if err != nil {
		return domain.Payment{}, err
	}
	totals := s.billing.ComputeTotals(view)

	now := s.clock.Now()
	payment := domain.Payment{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		InvoiceID:  invoiceID,
		GuardianID: invoice.GuardianID,
		Amount:     req.Amount,
		Hours:      req.Hours,
		Fee:        req.Fee,
		Method:     strings.TrimSpace(req.Method),
		Reference:  strings.TrimSpace(req.Reference),
		PaidAt:     req.PaidAt,
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			return err
		}

		paid, err := s.repo.SumByInvoice(ctx, tx, orgID, invoiceID)
		if err != nil {
			return err
		}
		remaining := math.Max(0, totals.Total-paid)

		invoice.PaidAmount = &paid
		invoice.RemainingBalance = &remaining
		invoice.UpdatedAt = now
		if remaining <= 0 && totals.Total > 0 {
			invoice.Status = invoicedomain.InvoiceStatusPaid
		} else if invoice.Status == invoicedomain.InvoiceStatusDraft {
			invoice.Status = invoicedomain.InvoiceStatusOpen
		}

		return s.invoiceRepo.UpdatePayment(ctx, tx, invoice)
	})
	if err != nil {
		return domain.Payment{}, err
	}

	return payment, nil
}

func (s *Service) Quote(ctx context.Context, req domain.QuoteRequest) (domain.QuoteResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.QuoteResponse{}, domain.ErrInvalidOrganization
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil {
		return domain.QuoteResponse{}, domain.ErrInvalidID
	}

	hasAmount := req.Amount != nil
	hasHours := req.Hours != nil
	if hasAmount == hasHours {
		return domain.QuoteResponse{}, domain.ErrInvalidQuoteInput
	}
	if hasAmount && *req.Amount < 0 {
		return domain.QuoteResponse{}, domain.ErrInvalidAmount
	}
	if hasHours && *req.Hours < 0 {
		return domain.QuoteResponse{}, domain.ErrInvalidAmount
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return domain.QuoteResponse{}, err
	}
	if invoice == nil {
		return domain.QuoteResponse{}, domain.ErrNotFound
	}

	view, _, err := s.invoiceSvc.BuildView(ctx, invoice, req.Source)
	if err != nil {
		return domain.QuoteResponse{}, err
	}

	entries := s.billing.ResolveInvoiceEntries(view)
	rate := s.billing.ResolveHourlyRate(view, entries)
	totals := s.billing.ComputeTotals(view)
	boundaries := s.billing.Boundaries(entries)
	fee := totals.TransferFee

	resp := domain.QuoteResponse{
		InvoiceID:   invoice.ID.String(),
		HourlyRate:  rate,
		TransferFee: fee,
	}

	if hasHours {
		resp.Direction = domain.DirectionHoursToAmount
		resp.Hours = req.Hours
		resp.Amount = s.billing.HoursToAmount(*req.Hours, rate, fee)
		resp.Hint = s.billing.SuggestBoundary(*req.Hours, rate, fee, boundaries)
	} else {
		resp.Direction = domain.DirectionAmountToHours
		resp.Amount = req.Amount
		resp.Hours = s.billing.AmountToHours(*req.Amount, rate, fee)
		if resp.Hours != nil {
			resp.Hint = s.billing.SuggestBoundary(*resp.Hours, rate, fee, boundaries)
		}
	}

	s.metrics.RecordPaymentQuote(ctx, resp.Direction)
	return resp, nil
}

func (s *Service) ListByInvoice(ctx context.Context, req domain.ListPaymentRequest) ([]domain.Payment, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	return s.repo.ListByInvoice(ctx, s.db, orgID, invoiceID)
}
