package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	billingdomain "github.com/smallbiznis/tutorledger/internal/billing/domain"
	"github.com/smallbiznis/tutorledger/internal/clock"
	guardiandomain "github.com/smallbiznis/tutorledger/internal/guardian/domain"
	"github.com/smallbiznis/tutorledger/internal/invoice/domain"
	lessondomain "github.com/smallbiznis/tutorledger/internal/lesson/domain"
	obsmetrics "github.com/smallbiznis/tutorledger/internal/observability/metrics"
	"github.com/smallbiznis/tutorledger/internal/orgcontext"
	"github.com/smallbiznis/tutorledger/internal/ratelimit"
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	GuardianRepo guardiandomain.Repository
	LessonRepo   lessondomain.Repository
	Billing      billingdomain.Service
	Limiter      *ratelimit.QuoteLimiter `optional:"true"`
	Metrics      *obsmetrics.Metrics     `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	guardianRepo guardiandomain.Repository
	lessonRepo   lessondomain.Repository
	billing      billingdomain.Service
	limiter      *ratelimit.QuoteLimiter
	metrics      *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("invoice.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		guardianRepo: p.GuardianRepo,
		lessonRepo:   p.LessonRepo,
		billing:      p.Billing,
		limiter:      p.Limiter,
		metrics:      p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}

	guardianID, err := snowflake.ParseString(strings.TrimSpace(req.GuardianID))
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidGuardian
	}
	guardian, err := s.guardianRepo.FindByID(ctx, s.db, orgID, guardianID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if guardian == nil {
		return domain.Invoice{}, domain.ErrInvalidGuardian
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	now := s.clock.Now()
	invoice := domain.Invoice{
		ID:             s.genID.Generate(),
		OrgID:          orgID,
		GuardianID:     guardianID,
		Number:         "INV-" + ulid.Make().String(),
		Status:         domain.InvoiceStatusDraft,
		Currency:       currency,
		IssueDate:      req.IssueDate,
		DueDate:        req.DueDate,
		HourlyRate:     req.HourlyRate,
		DeclaredHours:  req.DeclaredHours,
		DeclaredAmount: req.DeclaredAmount,
		Discount:       req.Discount,
		LateFee:        req.LateFee,
		Tip:            req.Tip,
		Notes:          strings.TrimSpace(req.Notes),
		Metadata:       datatypes.JSONMap{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// Guardian fee settings are copied onto the invoice at creation so
	// later profile edits do not silently reprice old invoices.
	invoice.TransferFeeMode = guardian.TransferFeeMode
	invoice.TransferFeeAmount = guardian.TransferFeeAmount
	invoice.TransferFeeWaived = guardian.TransferFeeWaived

	items := make([]domain.InvoiceItem, 0, len(req.Items))
	for i, itemReq := range req.Items {
		item := domain.InvoiceItem{
			ID:              s.genID.Generate(),
			OrgID:           orgID,
			InvoiceID:       invoice.ID,
			LessonDate:      itemReq.LessonDate,
			DurationMinutes: itemReq.DurationMinutes,
			Rate:            itemReq.Rate,
			Amount:          itemReq.Amount,
			Description:     strings.TrimSpace(itemReq.Description),
			Position:        i,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if item.DurationMinutes < 0 {
			item.DurationMinutes = 0
		}
		if lessonID := strings.TrimSpace(itemReq.LessonID); lessonID != "" {
			parsed, err := snowflake.ParseString(lessonID)
			if err != nil {
				return domain.Invoice{}, domain.ErrInvalidID
			}
			item.LessonID = &parsed
		}
		items = append(items, item)
	}

	if err := s.repo.Insert(ctx, s.db, &invoice, items); err != nil {
		return domain.Invoice{}, err
	}

	invoice.Items = items
	return invoice, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListInvoiceResponse{}, domain.ErrInvalidOrganization
	}

	filter := domain.ListInvoiceFilter{
		GuardianID: strings.TrimSpace(req.GuardianID),
		Status:     strings.ToUpper(strings.TrimSpace(req.Status)),
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(invoice *domain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        invoice.ID.String(),
			CreatedAt: invoice.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	resp := domain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetInvoiceRequest) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidID
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	items, err := s.repo.FindItems(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	invoice.Items = items
	return *invoice, nil
}

func (s *Service) UpdateCoverage(ctx context.Context, req domain.UpdateCoverageRequest) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidID
	}

	if req.MaxHours != nil && *req.MaxHours <= 0 {
		return domain.Invoice{}, domain.ErrInvalidCoverage
	}

	// Coverage autosave can fire from two open tabs at once; the lock
	// keeps the writes from interleaving.
	token, acquired, err := s.limiter.TryLockInvoiceCoverage(ctx, orgID.String(), id.String())
	if err != nil {
		s.log.Warn("coverage lock unavailable, proceeding without it", zap.Error(err))
	} else if !acquired {
		return domain.Invoice{}, domain.ErrCoverageSaveBusy
	} else {
		defer func() {
			if releaseErr := s.limiter.ReleaseInvoiceCoverage(context.WithoutCancel(ctx), orgID.String(), id.String(), token); releaseErr != nil {
				s.log.Warn("coverage lock release failed", zap.Error(releaseErr))
			}
		}()
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	if req.ClearMaxHours {
		invoice.CoverageMaxHours = nil
	} else if req.MaxHours != nil {
		invoice.CoverageMaxHours = req.MaxHours
	}
	if req.ClearEndDate {
		invoice.CoverageEndDate = nil
	} else if req.EndDate != nil {
		invoice.CoverageEndDate = req.EndDate
	}
	if req.WaiveTransferFee != nil {
		invoice.CoverageWaiveTransferFee = *req.WaiveTransferFee
	}

	invoice.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateCoverage(ctx, s.db, invoice); err != nil {
		return domain.Invoice{}, err
	}

	s.metrics.RecordCoverageSave(ctx)
	return *invoice, nil
}

// amountFields maps the editable money columns to their slot on the
// invoice row. Clear names are validated against it.
func amountFields(invoice *domain.Invoice) map[string]**float64 {
	return map[string]**float64{
		"discount":        &invoice.Discount,
		"late_fee":        &invoice.LateFee,
		"tip":             &invoice.Tip,
		"declared_hours":  &invoice.DeclaredHours,
		"declared_amount": &invoice.DeclaredAmount,
		"subtotal":        &invoice.Subtotal,
		"adjusted_total":  &invoice.AdjustedTotal,
		"total":           &invoice.Total,
		"amount":          &invoice.Amount,
	}
}

func (s *Service) UpdateAmounts(ctx context.Context, req domain.UpdateAmountsRequest) (domain.Invoice, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Invoice{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Invoice{}, domain.ErrInvalidID
	}

	sets := map[string]*float64{
		"discount":        req.Discount,
		"late_fee":        req.LateFee,
		"tip":             req.Tip,
		"declared_hours":  req.DeclaredHours,
		"declared_amount": req.DeclaredAmount,
		"subtotal":        req.Subtotal,
		"adjusted_total":  req.AdjustedTotal,
		"total":           req.Total,
		"amount":          req.Amount,
	}
	for _, value := range sets {
		if value != nil && *value < 0 {
			return domain.Invoice{}, domain.ErrInvalidAmounts
		}
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	fields := amountFields(invoice)
	for _, name := range req.Clear {
		slot, ok := fields[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return domain.Invoice{}, domain.ErrInvalidAmounts
		}
		*slot = nil
	}
	for name, value := range sets {
		if value != nil {
			*fields[name] = value
		}
	}

	invoice.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateAmounts(ctx, s.db, invoice); err != nil {
		return domain.Invoice{}, err
	}

	return *invoice, nil
}

func (s *Service) Totals(ctx context.Context, req domain.TotalsRequest) (domain.InvoiceTotals, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.InvoiceTotals{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.InvoiceTotals{}, domain.ErrInvalidID
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.InvoiceTotals{}, err
	}
	if invoice == nil {
		return domain.InvoiceTotals{}, domain.ErrNotFound
	}

	view, source, err := s.BuildView(ctx, invoice, req.Source)
	if err != nil {
		return domain.InvoiceTotals{}, err
	}

	totals := s.billing.ComputeTotals(view)
	entries := s.billing.ResolveInvoiceEntries(view)
	rate := s.billing.ResolveHourlyRate(view, entries)
	boundaries := s.billing.Boundaries(entries)

	s.metrics.RecordTotalsComputed(ctx, string(source))

	return domain.InvoiceTotals{
		InvoiceID:          invoice.ID.String(),
		Source:             entries.Source,
		UsedDeclaredTotals: entries.UsedDeclaredTotals,
		Subtotal:           totals.Subtotal,
		TransferFee:        totals.TransferFee,
		Total:              totals.Total,
		Paid:               totals.Paid,
		Remaining:          totals.Remaining,
		Hours:              totals.Hours,
		HourlyRate:         rate,
		Boundaries:         boundaries,
	}, nil
}

// BuildView assembles the totals engine input from the stored invoice,
// the guardian profile and, for the dynamic source, the guardian's
// completed lessons.
func (s *Service) BuildView(ctx context.Context, invoice *domain.Invoice, source string) (billingdomain.InvoiceView, billingdomain.ItemSource, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return billingdomain.InvoiceView{}, "", domain.ErrInvalidOrganization
	}

	resolvedSource := billingdomain.SourceDynamic
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "", string(billingdomain.SourceDynamic):
	case string(billingdomain.SourceStatic):
		resolvedSource = billingdomain.SourceStatic
	default:
		return billingdomain.InvoiceView{}, "", domain.ErrInvalidSource
	}

	items := invoice.Items
	if items == nil {
		fetched, err := s.repo.FindItems(ctx, s.db, orgID, invoice.ID)
		if err != nil {
			return billingdomain.InvoiceView{}, "", err
		}
		items = fetched
	}

	view := billingdomain.InvoiceView{
		Items: make([]billingdomain.ClassLineItem, 0, len(items)),
		Coverage: billingdomain.CoveragePolicy{
			MaxHours:         invoice.CoverageMaxHours,
			EndDate:          invoice.CoverageEndDate,
			WaiveTransferFee: invoice.CoverageWaiveTransferFee,
		},
		Discount:         invoice.Discount,
		LateFee:          invoice.LateFee,
		Tip:              invoice.Tip,
		Subtotal:         invoice.Subtotal,
		AdjustedTotal:    invoice.AdjustedTotal,
		Total:            invoice.Total,
		Amount:           invoice.Amount,
		PaidAmount:       invoice.PaidAmount,
		RemainingBalance: invoice.RemainingBalance,
		HoursCovered:     invoice.HoursCovered,
	}

	for _, item := range items {
		line := billingdomain.ClassLineItem{
			Date:            item.LessonDate,
			DurationMinutes: item.DurationMinutes,
			Rate:            item.Rate,
			Amount:          item.Amount,
			Description:     item.Description,
		}
		if item.LessonID != nil {
			line.LessonID = *item.LessonID
		}
		view.Items = append(view.Items, line)
	}

	view.GuardianFinancial = invoiceFinancial(invoice)

	guardian, err := s.guardianRepo.FindByID(ctx, s.db, orgID, invoice.GuardianID)
	if err != nil {
		return billingdomain.InvoiceView{}, "", err
	}
	if guardian != nil {
		view.GuardianProfile = guardianFinancial(guardian)
	}

	if resolvedSource == billingdomain.SourceDynamic {
		lessons, err := s.lessonRepo.ListCompletedByGuardian(ctx, s.db, orgID, invoice.GuardianID)
		if err != nil {
			return billingdomain.InvoiceView{}, "", err
		}
		dynamic := &billingdomain.DynamicClasses{
			Items:        make([]billingdomain.ClassLineItem, 0, len(lessons)),
			TotalMinutes: nil,
			TotalHours:   invoice.DeclaredHours,
		}
		for _, lesson := range lessons {
			if lesson == nil {
				continue
			}
			dynamic.Items = append(dynamic.Items, billingdomain.ClassLineItem{
				LessonID:        lesson.ID,
				Date:            lesson.StartsAt,
				DurationMinutes: lesson.DurationMinutes,
				Rate:            lesson.Rate,
				Amount:          lesson.Amount,
				Description:     lesson.Description,
			})
		}
		view.DynamicClasses = dynamic
	}

	return view, resolvedSource, nil
}

func invoiceFinancial(invoice *domain.Invoice) *billingdomain.GuardianFinancial {
	fin := &billingdomain.GuardianFinancial{HourlyRate: invoice.HourlyRate}
	if invoice.TransferFeeAmount > 0 || invoice.TransferFeeWaived {
		fin.TransferFee = &billingdomain.TransferFeeSpec{
			Mode:   billingdomain.TransferFeeMode(invoice.TransferFeeMode),
			Amount: invoice.TransferFeeAmount,
			Waived: invoice.TransferFeeWaived,
		}
	}
	if fin.HourlyRate == nil && fin.TransferFee == nil {
		return nil
	}
	return fin
}

func guardianFinancial(guardian *guardiandomain.Guardian) *billingdomain.GuardianFinancial {
	fin := &billingdomain.GuardianFinancial{HourlyRate: guardian.HourlyRate}
	if guardian.TransferFeeAmount > 0 || guardian.TransferFeeWaived {
		fin.TransferFee = &billingdomain.TransferFeeSpec{
			Mode:   billingdomain.TransferFeeMode(guardian.TransferFeeMode),
			Amount: guardian.TransferFeeAmount,
			Waived: guardian.TransferFeeWaived,
		}
	}
	return fin
}
