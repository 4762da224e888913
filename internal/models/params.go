package models

import "time"

// SearchParams is the mutable slot record accumulated across turns.
//
// Zero values mean "not provided"; the cascade never invents defaults.
// Invariant: len(ChildAges) == ChildCount before a search is dispatchable;
// a child declared without an age is an unresolved slot, not age zero.
// HotelIDs is populated only for strict hotel search and is mutually
// exclusive with the broad no-hotel mode.
type SearchParams struct {
	Country        string     `json:"country,omitempty"`
	DepartureCity  string     `json:"departure_city,omitempty"`
	DateFrom       *time.Time `json:"date_from,omitempty"`
	DateTo         *time.Time `json:"date_to,omitempty"`
	Nights         int        `json:"nights,omitempty"`
	Adults         int        `json:"adults,omitempty"`
	ChildCount     int        `json:"child_count,omitempty"`
	ChildAges      []int      `json:"child_ages,omitempty"`
	HotelName      string     `json:"hotel_name,omitempty"`
	HotelIDs       []int      `json:"hotel_ids,omitempty"`
	StarsFrom      int        `json:"stars_from,omitempty"`
	StarsTo        int        `json:"stars_to,omitempty"`
	Meal           string     `json:"meal,omitempty"`
	MaxBudget      int        `json:"max_budget,omitempty"`
	SkipQualityCheck bool     `json:"skip_quality_check,omitempty"`

	// DatesConfirmed marks dates the user stated explicitly, as opposed
	// to a canonical sub-range derived from a month name that still
	// needs narrowing.
	DatesConfirmed bool `json:"dates_confirmed,omitempty"`
}

// TotalPax returns the full party size, children included.
func (p *SearchParams) TotalPax() int {
	return p.Adults + p.ChildCount
}

// MissingChildAges reports how many declared children still have no age.
func (p *SearchParams) MissingChildAges() int {
	n := p.ChildCount - len(p.ChildAges)
	if n < 0 {
		return 0
	}
	return n
}

// SlotDelta carries the partial slot values extracted from one user turn.
// Nil fields were not mentioned; the cascade merges non-nil fields into
// the accumulated SearchParams immediately, even when volunteered out of
// the question order.
type SlotDelta struct {
	Country       *string    `json:"country,omitempty"`
	DepartureCity *string    `json:"departure_city,omitempty"`
	DateFrom      *time.Time `json:"date_from,omitempty"`
	DateTo        *time.Time `json:"date_to,omitempty"`
	DateText      *string    `json:"date_text,omitempty"`
	Nights        *int       `json:"nights,omitempty"`
	Adults        *int       `json:"adults,omitempty"`
	ChildCount    *int       `json:"child_count,omitempty"`
	ChildAges     []int      `json:"child_ages,omitempty"`
	HotelName     *string    `json:"hotel_name,omitempty"`
	StarsFrom     *int       `json:"stars_from,omitempty"`
	Meal          *string    `json:"meal,omitempty"`
	MaxBudget     *int       `json:"max_budget,omitempty"`
	SkipQuality   *bool      `json:"skip_quality,omitempty"`
}

// AffectsSearch reports whether applying the delta would change any
// search-affecting slot. The orchestrator uses this to decide whether an
// in-flight request must be abandoned.
func (d *SlotDelta) AffectsSearch() bool {
	return d.Country != nil || d.DepartureCity != nil ||
		d.DateFrom != nil || d.DateTo != nil || d.DateText != nil ||
		d.Nights != nil || d.Adults != nil ||
		d.ChildCount != nil || len(d.ChildAges) > 0 ||
		d.HotelName != nil || d.StarsFrom != nil ||
		d.Meal != nil || d.MaxBudget != nil
}

// RequestState is the lifecycle of one asynchronous search request.
type RequestState string

const (
	RequestPending   RequestState = "pending"
	RequestReady     RequestState = "ready"
	RequestFailed    RequestState = "failed"
	RequestAbandoned RequestState = "abandoned"
)

// SearchRequest tracks an in-flight asynchronous search. Owned exclusively
// by the orchestrator; superseded requests are abandoned, never delivered.
type SearchRequest struct {
	RequestID    string       `json:"request_id"`
	SubmittedAt  time.Time    `json:"submitted_at"`
	PollAttempts int          `json:"poll_attempts"`
	Progress     int          `json:"progress"`
	State        RequestState `json:"state"`

	// Page is the last result page fetched, for "show more" pagination.
	Page int `json:"page,omitempty"`
}
