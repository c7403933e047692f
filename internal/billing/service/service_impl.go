package service

import (
	"math"
	"sort"
	"strings"
	"time"

	billingdomain "github.com/smallbiznis/tutorledger/internal/billing/domain"
	"github.com/smallbiznis/tutorledger/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log    *zap.Logger
	policy *config.BillingPolicyHolder
}

type ServiceParam struct {
	fx.In

	Log    *zap.Logger
	Policy *config.BillingPolicyHolder
}

func NewService(p ServiceParam) billingdomain.Service {
	return &Service{
		log:    p.Log.Named("billing.service"),
		policy: p.Policy,
	}
}

// ResolveEntries filters refill lines out, sorts chronologically and
// applies the coverage policy. The hours cap walks the sorted list and
// stops at the first entry that would exceed it; chronological billing
// must be contiguous, so later smaller entries are not considered.
func (s *Service) ResolveEntries(items []billingdomain.ClassLineItem, policy billingdomain.CoveragePolicy) billingdomain.ResolvedEntries {
	entries := make([]billingdomain.ClassLineItem, 0, len(items))
	for _, item := range items {
		if s.isRefillLine(item) {
			continue
		}
		if item.DurationMinutes < 0 {
			item.DurationMinutes = 0
		}
		entries = append(entries, item)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Date, entries[j].Date
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})

	if policy.EndDate != nil && policy.MaxHours == nil {
		cutoff := endOfDay(*policy.EndDate)
		kept := entries[:0]
		for _, entry := range entries {
			if entry.Date != nil && entry.Date.After(cutoff) {
				continue
			}
			kept = append(kept, entry)
		}
		entries = kept
	}

	if policy.MaxHours != nil && *policy.MaxHours > 0 {
		capped := make([]billingdomain.ClassLineItem, 0, len(entries))
		cumulative := 0.0
		for _, entry := range entries {
			hours := float64(entry.DurationMinutes) / 60
			if cumulative+hours > *policy.MaxHours+1e-9 {
				break
			}
			capped = append(capped, entry)
			cumulative += hours
		}
		// A cap smaller than the first class would otherwise leave an
		// empty scope; a payment must always map to at least one class.
		if len(capped) == 0 && len(entries) > 0 {
			capped = append(capped, entries[0])
		}
		entries = capped
	}

	totalMinutes := 0.0
	for _, entry := range entries {
		totalMinutes += float64(entry.DurationMinutes)
	}

	return billingdomain.ResolvedEntries{
		Items:        entries,
		TotalMinutes: totalMinutes,
		TotalHours:   totalMinutes / 60,
		Source:       billingdomain.SourceStatic,
	}
}

// ResolveInvoiceEntries prefers the dynamic list when it survives
// filtering, falls back to its declared totals when it does not, and
// uses the stored items otherwise.
func (s *Service) ResolveInvoiceEntries(inv billingdomain.InvoiceView) billingdomain.ResolvedEntries {
	if inv.DynamicClasses != nil {
		resolved := s.ResolveEntries(inv.DynamicClasses.Items, inv.Coverage)
		resolved.Source = billingdomain.SourceDynamic
		if len(resolved.Items) > 0 {
			return resolved
		}
		if inv.DynamicClasses.TotalHours != nil || inv.DynamicClasses.TotalMinutes != nil {
			return declaredTotals(inv.DynamicClasses)
		}
	}
	return s.ResolveEntries(inv.Items, inv.Coverage)
}

func declaredTotals(dyn *billingdomain.DynamicClasses) billingdomain.ResolvedEntries {
	resolved := billingdomain.ResolvedEntries{
		Source:             billingdomain.SourceDynamic,
		UsedDeclaredTotals: true,
	}
	switch {
	case dyn.TotalMinutes != nil && isFinite(*dyn.TotalMinutes):
		resolved.TotalMinutes = math.Max(0, *dyn.TotalMinutes)
		resolved.TotalHours = resolved.TotalMinutes / 60
	case dyn.TotalHours != nil && isFinite(*dyn.TotalHours):
		resolved.TotalHours = math.Max(0, *dyn.TotalHours)
		resolved.TotalMinutes = resolved.TotalHours * 60
	}
	return resolved
}

// ComputeTotals derives the canonical totals for an invoice. Rounding
// happens at every intermediate currency step; deferring it to the end
// is what made the old per-screen reimplementations drift apart.
func (s *Service) ComputeTotals(inv billingdomain.InvoiceView) billingdomain.Totals {
	entries := s.ResolveInvoiceEntries(inv)
	rate := s.ResolveHourlyRate(inv, entries)

	var subtotal *float64
	if len(entries.Items) > 0 {
		sum := 0.0
		for _, entry := range entries.Items {
			sum += round2(lineAmount(entry, rate))
		}
		sum = round2(sum)
		subtotal = &sum
	} else if inv.Subtotal != nil && isFinite(*inv.Subtotal) {
		stored := round2(math.Max(0, *inv.Subtotal))
		subtotal = &stored
	}

	fee := s.transferFee(inv, subtotal)

	var total float64
	if subtotal != nil {
		total = *subtotal - clampMoney(inv.Discount) + clampMoney(inv.LateFee) + clampMoney(inv.Tip) + fee
		total = round2(math.Max(0, total))
	} else {
		total = round2(firstFiniteNonNegative(inv.AdjustedTotal, inv.Total, inv.Amount))
	}

	hours := s.coveredHours(inv, entries)
	paid := round2(clampMoney(inv.PaidAmount))

	var remaining float64
	if inv.RemainingBalance != nil && isFinite(*inv.RemainingBalance) {
		remaining = round2(math.Max(0, *inv.RemainingBalance))
	} else {
		remaining = round2(math.Max(0, total-paid))
	}

	if subtotal == nil {
		s.log.Debug("invoice subtotal indeterminate, using stored total fallback",
			zap.Float64("total", total))
	}

	return billingdomain.Totals{
		Subtotal:    subtotal,
		TransferFee: fee,
		Total:       total,
		Paid:        paid,
		Remaining:   remaining,
		Hours:       hours,
	}
}

// ResolveHourlyRate walks the rate fallback chain: invoice-level
// guardian settings, guardian profile, first line with an explicit
// positive rate, amounts divided by hours, configured default.
func (s *Service) ResolveHourlyRate(inv billingdomain.InvoiceView, entries billingdomain.ResolvedEntries) float64 {
	if rate := financialRate(inv.GuardianFinancial); rate > 0 {
		return rate
	}
	if rate := financialRate(inv.GuardianProfile); rate > 0 {
		return rate
	}
	for _, entry := range entries.Items {
		if entry.Rate != nil && isFinite(*entry.Rate) && *entry.Rate > 0 {
			return *entry.Rate
		}
	}

	sumAmounts := 0.0
	for _, entry := range entries.Items {
		if entry.Amount != nil && isFinite(*entry.Amount) && *entry.Amount > 0 {
			sumAmounts += *entry.Amount
		}
	}
	if sumAmounts > 0 && entries.TotalHours > 0 {
		return sumAmounts / entries.TotalHours
	}

	return s.policy.Get().DefaultHourlyRate
}

// HoursToAmount converts hours to a payment amount at the given rate,
// adding the transfer fee after the base is rounded to cents.
func (s *Service) HoursToAmount(hours, hourlyRate, transferFee float64) *float64 {
	if hours <= 0 || hourlyRate <= 0 || !isFinite(hours) || !isFinite(hourlyRate) {
		return nil
	}
	amount := round2(round2(hours*hourlyRate) + math.Max(0, transferFee))
	return &amount
}

// AmountToHours converts a payment amount back to covered hours. An
// amount that does not cover the fee yields zero hours, a distinct
// state from invalid input.
func (s *Service) AmountToHours(amount, hourlyRate, transferFee float64) *float64 {
	if amount <= 0 || hourlyRate <= 0 || !isFinite(amount) || !isFinite(hourlyRate) {
		return nil
	}
	base := amount - math.Max(0, transferFee)
	if base <= 0 {
		zero := 0.0
		return &zero
	}
	hours := round3(base / hourlyRate)
	return &hours
}

// Boundaries returns the cumulative-hours point after each resolved
// entry in order.
func (s *Service) Boundaries(entries billingdomain.ResolvedEntries) []billingdomain.Boundary {
	boundaries := make([]billingdomain.Boundary, 0, len(entries.Items))
	cumulative := 0.0
	for i, entry := range entries.Items {
		cumulative += float64(entry.DurationMinutes) / 60
		boundaries = append(boundaries, billingdomain.Boundary{
			Index:           i,
			CumulativeHours: round3(cumulative),
			Date:            entry.Date,
		})
	}
	return boundaries
}

// SuggestBoundary matches a candidate hours-paid value against the
// class boundaries. The transfer fee is only included in the suggested
// amount when the suggestion is the final boundary, since the fee is
// owed once per invoice when paying it off completely.
func (s *Service) SuggestBoundary(hoursPaid, hourlyRate, transferFee float64, boundaries []billingdomain.Boundary) *billingdomain.BoundaryHint {
	if len(boundaries) == 0 || hourlyRate <= 0 {
		return nil
	}

	tolerance := s.policy.Get().BoundaryToleranceHours
	last := boundaries[len(boundaries)-1]

	for _, boundary := range boundaries {
		if math.Abs(boundary.CumulativeHours-hoursPaid) <= tolerance {
			return s.hint(boundary, boundary.Index == last.Index, hourlyRate, transferFee, true)
		}
	}

	suggestion := last
	for _, boundary := range boundaries {
		if boundary.CumulativeHours >= hoursPaid {
			suggestion = boundary
			break
		}
	}
	return s.hint(suggestion, suggestion.Index == last.Index, hourlyRate, transferFee, false)
}

func (s *Service) hint(boundary billingdomain.Boundary, isFinal bool, hourlyRate, transferFee float64, exact bool) *billingdomain.BoundaryHint {
	fee := 0.0
	if isFinal {
		fee = math.Max(0, transferFee)
	}
	amount := round2(round2(boundary.CumulativeHours*hourlyRate) + fee)
	return &billingdomain.BoundaryHint{
		Exact:           exact,
		Boundary:        boundary,
		SuggestedHours:  boundary.CumulativeHours,
		SuggestedAmount: amount,
		IncludesFee:     isFinal && fee > 0,
	}
}

func (s *Service) isRefillLine(item billingdomain.ClassLineItem) bool {
	if item.LessonID != 0 {
		return false
	}
	description := strings.ToLower(item.Description)
	for _, keyword := range s.policy.Get().RefillKeywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(description, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func (s *Service) transferFee(inv billingdomain.InvoiceView, subtotal *float64) float64 {
	spec := resolveFeeSpec(inv)
	if spec == nil {
		return 0
	}
	if spec.Waived || inv.Coverage.WaiveTransferFee {
		return 0
	}
	if !isFinite(spec.Amount) || spec.Amount <= 0 {
		return 0
	}

	if spec.Mode == billingdomain.FeeModePercent {
		base := 0.0
		if subtotal != nil {
			base = *subtotal
		}
		return round2(math.Max(0, base*spec.Amount/100))
	}
	// Unrecognized modes are charged as fixed.
	return round2(spec.Amount)
}

func (s *Service) coveredHours(inv billingdomain.InvoiceView, entries billingdomain.ResolvedEntries) float64 {
	if len(entries.Items) > 0 || entries.UsedDeclaredTotals {
		return round3(entries.TotalHours)
	}

	minutes := 0.0
	for _, item := range inv.Items {
		if item.DurationMinutes > 0 {
			minutes += float64(item.DurationMinutes)
		}
	}
	if minutes > 0 {
		return round3(minutes / 60)
	}

	if inv.HoursCovered != nil && isFinite(*inv.HoursCovered) {
		return round3(math.Max(0, *inv.HoursCovered))
	}
	return 0
}

func resolveFeeSpec(inv billingdomain.InvoiceView) *billingdomain.TransferFeeSpec {
	if inv.GuardianFinancial != nil && inv.GuardianFinancial.TransferFee != nil {
		return inv.GuardianFinancial.TransferFee
	}
	if inv.GuardianProfile != nil && inv.GuardianProfile.TransferFee != nil {
		return inv.GuardianProfile.TransferFee
	}
	return nil
}

func financialRate(fin *billingdomain.GuardianFinancial) float64 {
	if fin == nil || fin.HourlyRate == nil || !isFinite(*fin.HourlyRate) {
		return 0
	}
	return *fin.HourlyRate
}

func lineAmount(entry billingdomain.ClassLineItem, rate float64) float64 {
	if entry.Amount != nil && isFinite(*entry.Amount) && *entry.Amount >= 0 {
		return *entry.Amount
	}
	return rate * float64(entry.DurationMinutes) / 60
}

func clampMoney(value *float64) float64 {
	if value == nil || !isFinite(*value) || *value < 0 {
		return 0
	}
	return round2(*value)
}

func firstFiniteNonNegative(values ...*float64) float64 {
	for _, value := range values {
		if value != nil && isFinite(*value) && *value >= 0 {
			return *value
		}
	}
	return 0
}

func endOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, time.UTC)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// math.Round implements round-half-away-from-zero, which is the house
// rule for currency.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
