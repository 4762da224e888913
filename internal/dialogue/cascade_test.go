package dialogue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourchat/internal/common/config"
	"tourchat/internal/models"
)

func newCascade() *Cascade {
	return NewCascade(
		config.DialogueConfig{EscalationPartySize: 6},
		config.SearchConfig{HorizonDays: 365},
	)
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestNext_AsksEarliestUnfilledSlot(t *testing.T) {
	c := newCascade()
	params := &models.SearchParams{}

	d := c.Next(params, models.IntentParametricSearch)
	assert.Equal(t, ActionAsk, d.Action)
	assert.Equal(t, SlotCountry, d.Slot)

	params.Country = "Турция"
	d = c.Next(params, models.IntentParametricSearch)
	assert.Equal(t, SlotDeparture, d.Slot)

	params.DepartureCity = "Москва"
	d = c.Next(params, models.IntentParametricSearch)
	assert.Equal(t, SlotDates, d.Slot)

	from := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	params.DateFrom = &from
	params.DateTo = &to
	d = c.Next(params, models.IntentParametricSearch)
	assert.Equal(t, SlotAdults, d.Slot)

	params.Adults = 2
	d = c.Next(params, models.IntentParametricSearch)
	assert.Equal(t, SlotNights, d.Slot)

	params.Nights = 7
	d = c.Next(params, models.IntentParametricSearch)
	assert.Equal(t, ActionProceed, d.Action)
	assert.Equal(t, models.ModeBroad, d.Mode)
}

func TestNext_NeverSkipsAheadOfMissingSlot(t *testing.T) {
	c := newCascade()
	// Everything except dates is filled; the question must be dates,
	// not anything later in the order.
	params := &models.SearchParams{
		Country:       "Турция",
		DepartureCity: "Москва",
		Adults:        2,
		Nights:        7,
	}

	d := c.Next(params, models.IntentParametricSearch)
	assert.Equal(t, ActionAsk, d.Action)
	assert.Equal(t, SlotDates, d.Slot)
}

func TestNext_ChildAgesBeforeProceed(t *testing.T) {
	c := newCascade()
	from := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	params := &models.SearchParams{
		Country:       "Турция",
		DepartureCity: "Москва",
		DateFrom:      &from,
		DateTo:        &to,
		Nights:        7,
		Adults:        2,
		ChildCount:    2,
		ChildAges:     []int{5},
	}

	d := c.Next(params, models.IntentParametricSearch)
	require.Equal(t, ActionAsk, d.Action)
	assert.Equal(t, SlotChildAge, d.Slot)
	assert.Contains(t, d.Question, "второму")

	params.ChildAges = append(params.ChildAges, 8)
	d = c.Next(params, models.IntentParametricSearch)
	assert.Equal(t, ActionProceed, d.Action)
}

func TestNext_StrictModeWhenHotelNamed(t *testing.T) {
	c := newCascade()
	from := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	params := &models.SearchParams{
		Country:       "Турция",
		DepartureCity: "Москва",
		DateFrom:      &from,
		DateTo:        &to,
		Nights:        7,
		Adults:        2,
		HotelName:     "Rixos Premium",
	}

	d := c.Next(params, models.IntentSpecificHotel)
	assert.Equal(t, ActionProceed, d.Action)
	assert.Equal(t, models.ModeStrict, d.Mode)
}

func TestNext_HotToursBypassesDatesAndQuality(t *testing.T) {
	c := newCascade()
	params := &models.SearchParams{}

	d := c.Next(params, models.IntentHotTours)
	assert.Equal(t, ActionAsk, d.Action)
	assert.Equal(t, SlotDeparture, d.Slot)

	params.DepartureCity = "Москва"
	d = c.Next(params, models.IntentHotTours)
	assert.Equal(t, ActionProceed, d.Action)
	assert.Equal(t, models.ModeHot, d.Mode)
}

func TestNext_NonSellableDestination(t *testing.T) {
	c := newCascade()
	params := &models.SearchParams{Country: "Сочи"}

	d := c.Next(params, models.IntentParametricSearch)
	assert.Equal(t, ActionInvalidCountry, d.Action)
}

func TestNext_LargeGroupEscalates(t *testing.T) {
	c := newCascade()
	params := &models.SearchParams{
		Country: "Турция",
		Adults:  5,
		ChildCount: 3,
	}

	d := c.Next(params, models.IntentParametricSearch)
	assert.Equal(t, ActionEscalate, d.Action)
}

func TestNext_DefaultDeparturePolicy(t *testing.T) {
	c := NewCascade(
		config.DialogueConfig{DefaultDeparture: "Москва", EscalationPartySize: 6},
		config.SearchConfig{HorizonDays: 365},
	)
	params := &models.SearchParams{Country: "Турция"}

	d := c.Next(params, models.IntentParametricSearch)
	assert.Equal(t, SlotDates, d.Slot, "policy injects the departure instead of asking")
	assert.Equal(t, "Москва", params.DepartureCity)
}

func TestMerge_OneShotMessage(t *testing.T) {
	// "Турция, Москва, 15.06, 7 ночей, 2 взрослых" in a single message
	c := newCascade()
	params := &models.SearchParams{}
	ref := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	err := c.Merge(params, &models.SlotDelta{
		Country:       strPtr("Турция"),
		DepartureCity: strPtr("Москва"),
		DateText:      strPtr("15.06"),
		Nights:        intPtr(7),
		Adults:        intPtr(2),
	}, ref)
	require.NoError(t, err)

	d := c.Next(params, models.IntentParametricSearch)
	assert.Equal(t, ActionProceed, d.Action, "no further questions for a complete message")
	assert.Equal(t, 7, params.Nights)
	assert.Equal(t, 2, params.Adults)
	require.NotNil(t, params.DateFrom)
	assert.Equal(t, 15, params.DateFrom.Day())
}

func TestMerge_RangeDerivesNights(t *testing.T) {
	c := newCascade()
	params := &models.SearchParams{}
	ref := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	err := c.Merge(params, &models.SlotDelta{DateText: strPtr("05.06-12.06")}, ref)
	require.NoError(t, err)
	assert.Equal(t, 7, params.Nights)
	assert.True(t, params.DatesConfirmed)
}

func TestMerge_ExplicitNightsBeatDerived(t *testing.T) {
	c := newCascade()
	params := &models.SearchParams{}
	ref := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	err := c.Merge(params, &models.SlotDelta{
		DateText: strPtr("05.06-12.06"),
		Nights:   intPtr(10),
	}, ref)
	require.NoError(t, err)
	assert.Equal(t, 10, params.Nights, "stated night count wins over the range")
}

func TestMerge_SingleDateDoesNotDeriveNights(t *testing.T) {
	c := newCascade()
	params := &models.SearchParams{}
	ref := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	err := c.Merge(params, &models.SlotDelta{DateText: strPtr("15.06")}, ref)
	require.NoError(t, err)
	assert.Equal(t, 0, params.Nights)
}

func TestMerge_HotelNameSkipsQualityCheck(t *testing.T) {
	c := newCascade()
	params := &models.SearchParams{}

	err := c.Merge(params, &models.SlotDelta{HotelName: strPtr("Rixos Premium")}, time.Now())
	require.NoError(t, err)
	assert.True(t, params.SkipQualityCheck)
}

func TestMerge_InvalidDatePropagates(t *testing.T) {
	c := newCascade()
	params := &models.SearchParams{}

	err := c.Merge(params, &models.SlotDelta{DateText: strPtr("как-нибудь")}, time.Now())
	require.Error(t, err)
}

func TestMerge_RestatedChildrenAreIdempotent(t *testing.T) {
	c := newCascade()
	params := &models.SearchParams{}

	// The extractor re-emits the full children block on every turn that
	// mentions them; repeating it must not inflate the party.
	delta := &models.SlotDelta{ChildCount: intPtr(2), ChildAges: []int{5, 7}}
	require.NoError(t, c.Merge(params, delta, time.Now()))
	require.NoError(t, c.Merge(params, delta, time.Now()))

	assert.Equal(t, 2, params.ChildCount)
	assert.Equal(t, []int{5, 7}, params.ChildAges)
}

func TestMerge_AgeOnlyAnswersAccumulate(t *testing.T) {
	c := newCascade()
	params := &models.SearchParams{ChildCount: 2, ChildAges: []int{5}}

	// A bare age is the answer to the per-child question, not a restatement
	err := c.Merge(params, &models.SlotDelta{ChildAges: []int{7}}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []int{5, 7}, params.ChildAges)
	assert.Equal(t, 2, params.ChildCount)
}

func TestMerge_ReducedChildCountTruncatesAges(t *testing.T) {
	c := newCascade()
	params := &models.SearchParams{ChildCount: 2, ChildAges: []int{5, 8}}

	err := c.Merge(params, &models.SlotDelta{ChildCount: intPtr(1)}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []int{5}, params.ChildAges)
}
