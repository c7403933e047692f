package service

import (
	"math"
	"testing"
	"time"

	billingdomain "github.com/smallbiznis/tutorledger/internal/billing/domain"
	"github.com/stretchr/testify/assert"
)

func TestHoursToAmount(t *testing.T) {
	svc := newTestService()

	amount := svc.HoursToAmount(1.5, 10, 5)
	assert.NotNil(t, amount)
	assert.Equal(t, 20.0, *amount)

	assert.Nil(t, svc.HoursToAmount(0, 10, 5))
	assert.Nil(t, svc.HoursToAmount(-1, 10, 5))
	assert.Nil(t, svc.HoursToAmount(1, 0, 5))
	assert.Nil(t, svc.HoursToAmount(1, -10, 5))
}

func TestAmountToHours(t *testing.T) {
	svc := newTestService()

	hours := svc.AmountToHours(20, 10, 5)
	assert.NotNil(t, hours)
	assert.Equal(t, 1.5, *hours)

	assert.Nil(t, svc.AmountToHours(0, 10, 5))
	assert.Nil(t, svc.AmountToHours(-5, 10, 5))
	assert.Nil(t, svc.AmountToHours(20, 0, 5))

	// Covering only the fee is zero hours, not invalid input.
	hours = svc.AmountToHours(4, 10, 5)
	assert.NotNil(t, hours)
	assert.Equal(t, 0.0, *hours)
}

func TestConverter_Invertibility(t *testing.T) {
	svc := newTestService()

	hoursGrid := []float64{0.25, 0.5, 1, 1.5, 2.75, 3.333, 8, 12.125}
	rates := []float64{10, 25, 37.5, 59.99, 120}
	fees := []float64{0, 2.5, 5, 7.77}

	for _, hours := range hoursGrid {
		for _, rate := range rates {
			for _, fee := range fees {
				amount := svc.HoursToAmount(hours, rate, fee)
				assert.NotNil(t, amount)

				roundtrip := svc.AmountToHours(*amount, rate, fee)
				assert.NotNil(t, roundtrip)
				assert.InDelta(t, hours, *roundtrip, 0.001,
					"hours=%v rate=%v fee=%v", hours, rate, fee)
			}
		}
	}
}

func TestBoundaries(t *testing.T) {
	svc := newTestService()
	day := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	entries := svc.ResolveEntries([]billingdomain.ClassLineItem{
		{LessonID: 1, Date: datePtr(day), DurationMinutes: 60},
		{LessonID: 2, Date: datePtr(day.Add(time.Hour)), DurationMinutes: 90},
		{LessonID: 3, Date: datePtr(day.Add(2 * time.Hour)), DurationMinutes: 30},
	}, billingdomain.CoveragePolicy{})

	boundaries := svc.Boundaries(entries)

	assert.Len(t, boundaries, 3)
	assert.Equal(t, 1.0, boundaries[0].CumulativeHours)
	assert.Equal(t, 2.5, boundaries[1].CumulativeHours)
	assert.Equal(t, 3.0, boundaries[2].CumulativeHours)
}

func TestSuggestBoundary_ExactMatch(t *testing.T) {
	svc := newTestService()
	boundaries := []billingdomain.Boundary{
		{Index: 0, CumulativeHours: 1},
		{Index: 1, CumulativeHours: 2.5},
		{Index: 2, CumulativeHours: 3},
	}

	hint := svc.SuggestBoundary(2.503, 40, 5, boundaries)

	assert.NotNil(t, hint)
	assert.True(t, hint.Exact)
	assert.Equal(t, 2.5, hint.SuggestedHours)
	assert.False(t, hint.IncludesFee)
	assert.Equal(t, 100.0, hint.SuggestedAmount)
}

func TestSuggestBoundary_AlignsUpward(t *testing.T) {
	svc := newTestService()
	boundaries := []billingdomain.Boundary{
		{Index: 0, CumulativeHours: 1},
		{Index: 1, CumulativeHours: 2.5},
		{Index: 2, CumulativeHours: 3},
	}

	hint := svc.SuggestBoundary(1.2, 40, 5, boundaries)

	assert.NotNil(t, hint)
	assert.False(t, hint.Exact)
	assert.Equal(t, 2.5, hint.SuggestedHours)
	assert.False(t, hint.IncludesFee)
	assert.Equal(t, 100.0, hint.SuggestedAmount)
}

func TestSuggestBoundary_FinalBoundaryIncludesFee(t *testing.T) {
	svc := newTestService()
	boundaries := []billingdomain.Boundary{
		{Index: 0, CumulativeHours: 1},
		{Index: 1, CumulativeHours: 3},
	}

	// Beyond the last boundary the suggestion snaps back to it, and
	// paying off the whole invoice includes the transfer fee.
	hint := svc.SuggestBoundary(5, 40, 5, boundaries)

	assert.NotNil(t, hint)
	assert.False(t, hint.Exact)
	assert.Equal(t, 3.0, hint.SuggestedHours)
	assert.True(t, hint.IncludesFee)
	assert.Equal(t, 125.0, hint.SuggestedAmount)

	exact := svc.SuggestBoundary(3, 40, 5, boundaries)
	assert.NotNil(t, exact)
	assert.True(t, exact.Exact)
	assert.True(t, exact.IncludesFee)
	assert.Equal(t, 125.0, exact.SuggestedAmount)
}

func TestSuggestBoundary_NoBoundaries(t *testing.T) {
	svc := newTestService()

	assert.Nil(t, svc.SuggestBoundary(1, 40, 5, nil))
	assert.Nil(t, svc.SuggestBoundary(1, 0, 5, []billingdomain.Boundary{{CumulativeHours: 1}}))
}

func TestRoundingHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 0.13, round2(0.125))
	assert.Equal(t, -0.13, round2(-0.125))
	assert.Equal(t, 1.235, round3(1.23456))
	assert.Equal(t, 0.0, math.Abs(round2(0.004)))
}
