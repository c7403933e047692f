package domain

// Service is the invoice coverage and totals engine. All methods are
// pure over their inputs and never fail on malformed data; fallback
// chains terminate in safe defaults instead.
type Service interface {
	// ResolveEntries filters and bounds an item list per the coverage
	// policy, returning the in-scope chronological prefix.
	ResolveEntries(items []ClassLineItem, policy CoveragePolicy) ResolvedEntries

	// ResolveInvoiceEntries picks between the invoice's static items
	// and its dynamic override list, then resolves the winner.
	ResolveInvoiceEntries(inv InvoiceView) ResolvedEntries

	// ComputeTotals derives the canonical money summary for an invoice.
	ComputeTotals(inv InvoiceView) Totals

	// ResolveHourlyRate walks the rate fallback chain for an invoice.
	ResolveHourlyRate(inv InvoiceView, entries ResolvedEntries) float64

	// HoursToAmount converts covered hours to a payment amount. Nil
	// means the inputs were not convertible.
	HoursToAmount(hours, hourlyRate, transferFee float64) *float64

	// AmountToHours converts a payment amount to covered hours. A zero
	// result (not nil) means the amount does not even cover the fee.
	AmountToHours(amount, hourlyRate, transferFee float64) *float64

	// Boundaries lists the cumulative-hour point after each resolved
	// entry.
	Boundaries(entries ResolvedEntries) []Boundary

	// SuggestBoundary matches a candidate hours value against the
	// boundaries and returns an advisory alignment hint. Nil when there
	// are no boundaries to match against.
	SuggestBoundary(hoursPaid, hourlyRate, transferFee float64, boundaries []Boundary) *BoundaryHint
}
