// Package dialogue implements the slot-filling cascade that decides, for
// each turn, the single next question or that the search is dispatchable.
package dialogue

import (
	"strings"
	"time"

	"tourchat/internal/common/config"
	"tourchat/internal/models"
)

// Action is the cascade's verdict for one turn.
type Action string

const (
	ActionAsk            Action = "ask"
	ActionProceed        Action = "proceed"
	ActionInvalidCountry Action = "invalid_country"
	ActionEscalate       Action = "escalate"
)

// Decision is the cascade output. Exactly one of Question or Mode is
// meaningful depending on Action.
type Decision struct {
	Action   Action
	Slot     Slot
	Question string
	Mode     models.SearchMode
}

// Destinations the agency does not sell. Checked before any dictionary
// lookup so the refusal works even when the inventory API is down.
var nonSellable = map[string]bool{
	"россия":             true,
	"сочи":               true,
	"крым":               true,
	"анапа":              true,
	"геленджик":          true,
	"калининград":        true,
	"краснодарский край": true,
}

// Cascade enforces the fixed question order: country, departure city,
// dates, party size, child ages. Volunteered slots are merged immediately
// regardless of order; the next question is always the earliest unfilled
// slot.
type Cascade struct {
	horizonDays         int
	escalationPartySize int
	defaultDeparture    string
}

func NewCascade(dialogueCfg config.DialogueConfig, searchCfg config.SearchConfig) *Cascade {
	return &Cascade{
		horizonDays:         searchCfg.HorizonDays,
		escalationPartySize: dialogueCfg.EscalationPartySize,
		defaultDeparture:    dialogueCfg.DefaultDeparture,
	}
}

// Merge applies one turn's extracted slots onto the accumulated params.
// Explicit night counts always win over range-derived ones; a derived
// count is only computed from a user-stated "from X to Y" pair.
func (c *Cascade) Merge(params *models.SearchParams, delta *models.SlotDelta, ref time.Time) error {
	if delta == nil {
		return nil
	}

	if delta.Country != nil {
		params.Country = strings.TrimSpace(*delta.Country)
	}
	if delta.DepartureCity != nil {
		params.DepartureCity = strings.TrimSpace(*delta.DepartureCity)
	}

	if delta.DateText != nil {
		r, err := ParseDateText(*delta.DateText, ref, c.horizonDays)
		if err != nil {
			return err
		}
		params.DateFrom = &r.From
		params.DateTo = &r.To
		params.DatesConfirmed = r.Confirmed
		if delta.Nights == nil && r.ExplicitPair {
			params.Nights = r.Nights()
		}
	}
	if delta.DateFrom != nil {
		params.DateFrom = delta.DateFrom
		params.DatesConfirmed = true
	}
	if delta.DateTo != nil {
		params.DateTo = delta.DateTo
		if delta.Nights == nil && params.DateFrom != nil {
			params.Nights = int(delta.DateTo.Sub(*params.DateFrom).Hours() / 24)
		}
	}

	if delta.Nights != nil {
		params.Nights = *delta.Nights
	}
	if delta.Adults != nil {
		params.Adults = *delta.Adults
	}
	if delta.ChildCount != nil {
		params.ChildCount = *delta.ChildCount
		if len(delta.ChildAges) > 0 {
			// Count and ages together are a full restatement, not an
			// incremental answer; replace so repeating it is a no-op.
			params.ChildAges = append([]int(nil), delta.ChildAges...)
		} else if params.ChildCount < len(params.ChildAges) {
			params.ChildAges = params.ChildAges[:params.ChildCount]
		}
	} else if len(delta.ChildAges) > 0 {
		params.ChildAges = append(params.ChildAges, delta.ChildAges...)
	}
	if len(params.ChildAges) > params.ChildCount {
		params.ChildCount = len(params.ChildAges)
	}

	if delta.HotelName != nil {
		params.HotelName = strings.TrimSpace(*delta.HotelName)
		// A named hotel is its own quality statement
		params.SkipQualityCheck = true
	}
	if delta.StarsFrom != nil {
		params.StarsFrom = *delta.StarsFrom
	}
	if delta.Meal != nil {
		params.Meal = strings.ToUpper(strings.TrimSpace(*delta.Meal))
	}
	if delta.MaxBudget != nil {
		params.MaxBudget = *delta.MaxBudget
	}
	if delta.SkipQuality != nil {
		params.SkipQualityCheck = *delta.SkipQuality
	}

	return nil
}

// Next returns the single next action for the current slot state.
func (c *Cascade) Next(params *models.SearchParams, intent models.Intent) Decision {
	if params.Country != "" && nonSellable[normalizeName(params.Country)] {
		return Decision{Action: ActionInvalidCountry}
	}
	if intent == models.IntentInvalidCountry {
		return Decision{Action: ActionInvalidCountry}
	}

	if c.escalationPartySize > 0 && params.TotalPax() > c.escalationPartySize {
		return Decision{Action: ActionEscalate}
	}

	// Hot-tours intent bypasses dates and quality entirely
	if intent == models.IntentHotTours {
		if params.DepartureCity == "" {
			if c.defaultDeparture != "" {
				params.DepartureCity = c.defaultDeparture
			} else {
				return c.ask(SlotDeparture)
			}
		}
		return Decision{Action: ActionProceed, Mode: models.ModeHot}
	}

	if params.Country == "" {
		return c.ask(SlotCountry)
	}

	if params.DepartureCity == "" {
		if c.defaultDeparture != "" {
			params.DepartureCity = c.defaultDeparture
		} else {
			return c.ask(SlotDeparture)
		}
	}

	if params.DateFrom == nil {
		return c.ask(SlotDates)
	}

	if params.Adults == 0 {
		return c.ask(SlotAdults)
	}

	if params.Nights == 0 {
		return c.ask(SlotNights)
	}

	if missing := params.MissingChildAges(); missing > 0 {
		next := len(params.ChildAges) + 1
		return Decision{
			Action:   ActionAsk,
			Slot:     SlotChildAge,
			Question: ChildAgeQuestion(next, params.ChildCount),
		}
	}

	mode := models.ModeBroad
	if params.HotelName != "" || len(params.HotelIDs) > 0 {
		mode = models.ModeStrict
	}
	return Decision{Action: ActionProceed, Mode: mode}
}

func (c *Cascade) ask(slot Slot) Decision {
	return Decision{Action: ActionAsk, Slot: slot, Question: QuestionFor(slot)}
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "ё", "е")
}
