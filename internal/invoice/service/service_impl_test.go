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
	"github.com/smallbiznis/tutorledger/internal/invoice/domain"
	"github.com/smallbiznis/tutorledger/internal/invoice/repository"
	lessondomain "github.com/smallbiznis/tutorledger/internal/lesson/domain"
	lessonrepository "github.com/smallbiznis/tutorledger/internal/lesson/repository"
	"github.com/smallbiznis/tutorledger/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type invoiceTestEnv struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	clk   *clock.FakeClock
	ctx   context.Context
	orgID snowflake.ID
}

func newInvoiceTestEnv(t *testing.T) *invoiceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&guardiandomain.Guardian{},
		&lessondomain.Lesson{},
		&domain.Invoice{},
		&domain.InvoiceItem{},
	)
	assert.NoError(t, err)

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	billing := billingservice.NewService(billingservice.ServiceParam{
		Log:    zap.NewNop(),
		Policy: config.NewStaticBillingPolicyHolder(config.DefaultBillingPolicy()),
	})

	clk := clock.NewFakeClock(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clk,
		Repo:         repository.Provide(),
		GuardianRepo: guardianrepository.Provide(),
		LessonRepo:   lessonrepository.Provide(),
		Billing:      billing,
	})

	orgID := node.Generate()
	return &invoiceTestEnv{
		svc:   svc,
		db:    db,
		node:  node,
		clk:   clk,
		ctx:   orgcontext.WithOrgID(context.Background(), int64(orgID)),
		orgID: orgID,
	}
}

func (e *invoiceTestEnv) seedGuardian(t *testing.T, mutate func(*guardiandomain.Guardian)) guardiandomain.Guardian {
	t.Helper()
	guardian := guardiandomain.Guardian{
		ID:    e.node.Generate(),
		OrgID: e.orgID,
		Name:  "Dana Whitfield",
		Email: "dana@example.com",
	}
	if mutate != nil {
		mutate(&guardian)
	}
	assert.NoError(t, e.db.Create(&guardian).Error)
	return guardian
}

func (e *invoiceTestEnv) seedLesson(t *testing.T, guardianID snowflake.ID, startsAt time.Time, minutes int, amount *float64) lessondomain.Lesson {
	t.Helper()
	lesson := lessondomain.Lesson{
		ID:              e.node.Generate(),
		OrgID:           e.orgID,
		StudentID:       e.node.Generate(),
		GuardianID:      guardianID,
		Status:          lessondomain.StatusCompleted,
		StartsAt:        &startsAt,
		DurationMinutes: minutes,
		Amount:          amount,
	}
	assert.NoError(t, e.db.Create(&lesson).Error)
	return lesson
}

func f64(v float64) *float64 { return &v }

func TestCreateInvoice_PersistsItemsAndGuardianFee(t *testing.T) {
	env := newInvoiceTestEnv(t)
	guardian := env.seedGuardian(t, func(g *guardiandomain.Guardian) {
		g.TransferFeeMode = "fixed"
		g.TransferFeeAmount = 3.5
	})

	day := time.Date(2026, 4, 6, 16, 0, 0, 0, time.UTC)
	created, err := env.svc.Create(env.ctx, domain.CreateInvoiceRequest{
		GuardianID: guardian.ID.String(),
		Items: []domain.CreateInvoiceItemRequest{
			{LessonDate: &day, DurationMinutes: 60, Amount: f64(50), Description: "Algebra"},
			{DurationMinutes: 0, Amount: f64(200), Description: "Hours refill"},
		},
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, created.Number)
	assert.Equal(t, domain.InvoiceStatusDraft, created.Status)
	assert.Equal(t, "USD", created.Currency)
	assert.Equal(t, 3.5, created.TransferFeeAmount)
	assert.Len(t, created.Items, 2)
	assert.Equal(t, 0, created.Items[0].Position)
	assert.Equal(t, 1, created.Items[1].Position)

	fetched, err := env.svc.GetByID(env.ctx, domain.GetInvoiceRequest{ID: created.ID.String()})
	assert.NoError(t, err)
	assert.Len(t, fetched.Items, 2)
	assert.Equal(t, "Algebra", fetched.Items[0].Description)
}

func TestCreateInvoice_UnknownGuardian(t *testing.T) {
	env := newInvoiceTestEnv(t)

	_, err := env.svc.Create(env.ctx, domain.CreateInvoiceRequest{
		GuardianID: env.node.Generate().String(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidGuardian)
}

func TestCreateInvoice_MissingOrg(t *testing.T) {
	env := newInvoiceTestEnv(t)
	guardian := env.seedGuardian(t, nil)

	_, err := env.svc.Create(context.Background(), domain.CreateInvoiceRequest{
		GuardianID: guardian.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestTotals_StaticSourceExcludesRefill(t *testing.T) {
	env := newInvoiceTestEnv(t)
	guardian := env.seedGuardian(t, func(g *guardiandomain.Guardian) {
		g.TransferFeeMode = "fixed"
		g.TransferFeeAmount = 5
	})

	day := time.Date(2026, 4, 6, 16, 0, 0, 0, time.UTC)
	created, err := env.svc.Create(env.ctx, domain.CreateInvoiceRequest{
		GuardianID: guardian.ID.String(),
		Items: []domain.CreateInvoiceItemRequest{
			{LessonDate: &day, DurationMinutes: 60, Amount: f64(50), Description: "Algebra"},
			{LessonDate: &day, DurationMinutes: 60, Amount: f64(50), Description: "Geometry"},
			{DurationMinutes: 0, Amount: f64(500), Description: "Top-up 10 hours"},
		},
	})
	assert.NoError(t, err)

	totals, err := env.svc.Totals(env.ctx, domain.TotalsRequest{ID: created.ID.String(), Source: "static"})
	assert.NoError(t, err)
	assert.False(t, totals.UsedDeclaredTotals)
	assert.NotNil(t, totals.Subtotal)
	assert.Equal(t, 100.0, *totals.Subtotal)
	assert.Equal(t, 5.0, totals.TransferFee)
	assert.Equal(t, 105.0, totals.Total)
	assert.Equal(t, 2.0, totals.Hours)
	assert.Equal(t, 105.0, totals.Remaining)
	assert.Len(t, totals.Boundaries, 2)
	assert.Equal(t, 2.0, totals.Boundaries[1].CumulativeHours)
}

func TestTotals_DynamicSourcePrefersLessons(t *testing.T) {
	env := newInvoiceTestEnv(t)
	guardian := env.seedGuardian(t, nil)

	day := time.Date(2026, 4, 6, 16, 0, 0, 0, time.UTC)
	env.seedLesson(t, guardian.ID, day, 90, f64(75))
	env.seedLesson(t, guardian.ID, day.Add(48*time.Hour), 30, f64(25))

	created, err := env.svc.Create(env.ctx, domain.CreateInvoiceRequest{
		GuardianID: guardian.ID.String(),
		Items: []domain.CreateInvoiceItemRequest{
			{LessonDate: &day, DurationMinutes: 600, Amount: f64(999), Description: "Stale snapshot"},
		},
	})
	assert.NoError(t, err)

	totals, err := env.svc.Totals(env.ctx, domain.TotalsRequest{ID: created.ID.String()})
	assert.NoError(t, err)
	assert.EqualValues(t, "dynamic", totals.Source)
	assert.NotNil(t, totals.Subtotal)
	assert.Equal(t, 100.0, *totals.Subtotal)
	assert.Equal(t, 2.0, totals.Hours)
}

func TestTotals_DynamicFallsBackToDeclaredHours(t *testing.T) {
	env := newInvoiceTestEnv(t)
	guardian := env.seedGuardian(t, nil)

	created, err := env.svc.Create(env.ctx, domain.CreateInvoiceRequest{
		GuardianID:    guardian.ID.String(),
		HourlyRate:    f64(40),
		DeclaredHours: f64(3),
	})
	assert.NoError(t, err)

	totals, err := env.svc.Totals(env.ctx, domain.TotalsRequest{ID: created.ID.String(), Source: "dynamic"})
	assert.NoError(t, err)
	assert.True(t, totals.UsedDeclaredTotals)
	assert.Equal(t, 3.0, totals.Hours)
	assert.Equal(t, 40.0, totals.HourlyRate)
}

func TestTotals_InvalidSource(t *testing.T) {
	env := newInvoiceTestEnv(t)
	guardian := env.seedGuardian(t, nil)

	created, err := env.svc.Create(env.ctx, domain.CreateInvoiceRequest{GuardianID: guardian.ID.String()})
	assert.NoError(t, err)

	_, err = env.svc.Totals(env.ctx, domain.TotalsRequest{ID: created.ID.String(), Source: "csv"})
	assert.ErrorIs(t, err, domain.ErrInvalidSource)
}

func TestTotals_NotFound(t *testing.T) {
	env := newInvoiceTestEnv(t)

	_, err := env.svc.Totals(env.ctx, domain.TotalsRequest{ID: env.node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateCoverage_CapsBilledHours(t *testing.T) {
	env := newInvoiceTestEnv(t)
	guardian := env.seedGuardian(t, func(g *guardiandomain.Guardian) {
		g.TransferFeeMode = "fixed"
		g.TransferFeeAmount = 5
	})

	day := time.Date(2026, 4, 6, 16, 0, 0, 0, time.UTC)
	dayTwo := day.AddDate(0, 0, 1)
	dayThree := day.AddDate(0, 0, 2)
	created, err := env.svc.Create(env.ctx, domain.CreateInvoiceRequest{
		GuardianID: guardian.ID.String(),
		Items: []domain.CreateInvoiceItemRequest{
			{LessonDate: &day, DurationMinutes: 60, Amount: f64(50)},
			{LessonDate: &dayTwo, DurationMinutes: 60, Amount: f64(50)},
			{LessonDate: &dayThree, DurationMinutes: 60, Amount: f64(50)},
		},
	})
	assert.NoError(t, err)

	waive := true
	updated, err := env.svc.UpdateCoverage(env.ctx, domain.UpdateCoverageRequest{
		ID:               created.ID.String(),
		MaxHours:         f64(2),
		WaiveTransferFee: &waive,
	})
	assert.NoError(t, err)
	assert.NotNil(t, updated.CoverageMaxHours)
	assert.Equal(t, 2.0, *updated.CoverageMaxHours)
	assert.True(t, updated.CoverageWaiveTransferFee)

	totals, err := env.svc.Totals(env.ctx, domain.TotalsRequest{ID: created.ID.String(), Source: "static"})
	assert.NoError(t, err)
	assert.Equal(t, 2.0, totals.Hours)
	assert.Equal(t, 100.0, *totals.Subtotal)
	assert.Equal(t, 0.0, totals.TransferFee)
	assert.Equal(t, 100.0, totals.Total)
}

func TestUpdateCoverage_ClearFlags(t *testing.T) {
	env := newInvoiceTestEnv(t)
	guardian := env.seedGuardian(t, nil)

	endDate := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	created, err := env.svc.Create(env.ctx, domain.CreateInvoiceRequest{GuardianID: guardian.ID.String()})
	assert.NoError(t, err)

	_, err = env.svc.UpdateCoverage(env.ctx, domain.UpdateCoverageRequest{
		ID:       created.ID.String(),
		MaxHours: f64(4),
		EndDate:  &endDate,
	})
	assert.NoError(t, err)

	cleared, err := env.svc.UpdateCoverage(env.ctx, domain.UpdateCoverageRequest{
		ID:            created.ID.String(),
		ClearMaxHours: true,
		ClearEndDate:  true,
	})
	assert.NoError(t, err)
	assert.Nil(t, cleared.CoverageMaxHours)
	assert.Nil(t, cleared.CoverageEndDate)
}

func TestUpdateCoverage_RejectsNonPositiveMaxHours(t *testing.T) {
	env := newInvoiceTestEnv(t)
	guardian := env.seedGuardian(t, nil)

	created, err := env.svc.Create(env.ctx, domain.CreateInvoiceRequest{GuardianID: guardian.ID.String()})
	assert.NoError(t, err)

	_, err = env.svc.UpdateCoverage(env.ctx, domain.UpdateCoverageRequest{
		ID:       created.ID.String(),
		MaxHours: f64(0),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCoverage)
}

func TestCreateInvoice_TimestampsFromClock(t *testing.T) {
	env := newInvoiceTestEnv(t)
	guardian := env.seedGuardian(t, nil)

	created, err := env.svc.Create(env.ctx, domain.CreateInvoiceRequest{GuardianID: guardian.ID.String()})
	assert.NoError(t, err)
	assert.Equal(t, env.clk.Now(), created.CreatedAt)
	assert.Equal(t, env.clk.Now(), created.UpdatedAt)

	env.clk.Advance(time.Hour)
	updated, err := env.svc.UpdateCoverage(env.ctx, domain.UpdateCoverageRequest{
		ID:       created.ID.String(),
		MaxHours: f64(2),
	})
	assert.NoError(t, err)
	assert.Equal(t, created.CreatedAt.Add(time.Hour), updated.UpdatedAt)
}

func TestUpdateAmounts_SetsAndClears(t *testing.T) {
	env := newInvoiceTestEnv(t)
	guardian := env.seedGuardian(t, nil)

	created, err := env.svc.Create(env.ctx, domain.CreateInvoiceRequest{
		GuardianID: guardian.ID.String(),
		Tip:        f64(15),
		LateFee:    f64(20),
	})
	assert.NoError(t, err)

	updated, err := env.svc.UpdateAmounts(env.ctx, domain.UpdateAmountsRequest{
		ID:       created.ID.String(),
		Discount: f64(10),
		Subtotal: f64(90),
		Clear:    []string{"tip", "late_fee"},
	})
	assert.NoError(t, err)
	assert.Equal(t, 10.0, *updated.Discount)
	assert.Equal(t, 90.0, *updated.Subtotal)
	assert.Nil(t, updated.Tip)
	assert.Nil(t, updated.LateFee)

	stored, err := env.svc.GetByID(env.ctx, domain.GetInvoiceRequest{ID: created.ID.String()})
	assert.NoError(t, err)
	assert.Equal(t, 10.0, *stored.Discount)
	assert.Nil(t, stored.Tip)
}

func TestUpdateAmounts_RejectsNegativeAndUnknownField(t *testing.T) {
	env := newInvoiceTestEnv(t)
	guardian := env.seedGuardian(t, nil)

	created, err := env.svc.Create(env.ctx, domain.CreateInvoiceRequest{GuardianID: guardian.ID.String()})
	assert.NoError(t, err)

	_, err = env.svc.UpdateAmounts(env.ctx, domain.UpdateAmountsRequest{
		ID:       created.ID.String(),
		Discount: f64(-1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmounts)

	_, err = env.svc.UpdateAmounts(env.ctx, domain.UpdateAmountsRequest{
		ID:    created.ID.String(),
		Clear: []string{"paid_amount"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmounts)
}

func TestListInvoices_FiltersByGuardian(t *testing.T) {
	env := newInvoiceTestEnv(t)
	first := env.seedGuardian(t, nil)
	second := env.seedGuardian(t, func(g *guardiandomain.Guardian) { g.Name = "Priya Raman" })

	_, err := env.svc.Create(env.ctx, domain.CreateInvoiceRequest{GuardianID: first.ID.String()})
	assert.NoError(t, err)
	_, err = env.svc.Create(env.ctx, domain.CreateInvoiceRequest{GuardianID: second.ID.String()})
	assert.NoError(t, err)

	resp, err := env.svc.List(env.ctx, domain.ListInvoiceRequest{GuardianID: first.ID.String()})
	assert.NoError(t, err)
	assert.Len(t, resp.Invoices, 1)
	assert.Equal(t, first.ID, resp.Invoices[0].GuardianID)
}
