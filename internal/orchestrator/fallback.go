package orchestrator

import (
	"fmt"

	"tourchat/internal/common/config"
	"tourchat/internal/models"
)

// Fallback step positions recorded on the conversation.
const (
	fallbackNone        = 0
	fallbackWidenDates  = 1
	fallbackAlterCity   = 2
	fallbackAlterRegion = 3
)

// FallbackProposal is one user-visible alternative offered after an empty
// result. The engine never applies a proposal silently; the user must
// agree on the next turn.
type FallbackProposal struct {
	Step int
	Text string
}

// NextFallback picks the next proposal in the fixed priority order: wider
// dates, then an alternate departure city, then a similar destination.
// Returns nil when every step was already offered.
func NextFallback(conv *models.Conversation, cfg config.SearchConfig) *FallbackProposal {
	step := conv.FallbackStep

	if step < fallbackWidenDates {
		return &FallbackProposal{
			Step: fallbackWidenDates,
			Text: fmt.Sprintf(
				"По вашим датам ничего не нашлось. Посмотреть варианты с вылетом ±%d дня от выбранной даты?",
				cfg.FallbackWidenDays),
		}
	}

	if step < fallbackAlterCity {
		if alt, ok := cfg.AlternateDepartures[conv.Params.DepartureCity]; ok && alt != "" {
			return &FallbackProposal{
				Step: fallbackAlterCity,
				Text: fmt.Sprintf(
					"С вылетом из %s вариантов нет. Рассмотрите вылет из %s?",
					conv.Params.DepartureCity, alt),
			}
		}
		// No alternate city configured, fall through to destination
		conv.FallbackStep = fallbackAlterCity
		step = fallbackAlterCity
	}

	if step < fallbackAlterRegion {
		if alt, ok := cfg.AlternateDestinations[conv.Params.Country]; ok && alt != "" {
			return &FallbackProposal{
				Step: fallbackAlterRegion,
				Text: fmt.Sprintf(
					"По направлению %s сейчас пусто. Посмотреть похожее направление, например %s?",
					conv.Params.Country, alt),
			}
		}
	}

	return nil
}

// ApplyFallback mutates the search params according to the proposal the
// user just accepted. Explicit hotel and date constraints are replaced
// only here, after visible consent.
func ApplyFallback(conv *models.Conversation, cfg config.SearchConfig) bool {
	switch conv.FallbackStep {
	case fallbackWidenDates:
		if conv.Params.DateFrom == nil {
			return false
		}
		// The window stays centered on the original date. Marking the
		// dates unconfirmed makes the submission use it as-is instead of
		// re-centering the standard widening on the shifted start.
		widened := conv.Params.DateFrom.AddDate(0, 0, -cfg.FallbackWidenDays)
		widenedTo := conv.Params.DateFrom.AddDate(0, 0, cfg.FallbackWidenDays)
		conv.Params.DateFrom = &widened
		conv.Params.DateTo = &widenedTo
		conv.Params.DatesConfirmed = false
		return true
	case fallbackAlterCity:
		alt, ok := cfg.AlternateDepartures[conv.Params.DepartureCity]
		if !ok || alt == "" {
			return false
		}
		conv.Params.DepartureCity = alt
		return true
	case fallbackAlterRegion:
		alt, ok := cfg.AlternateDestinations[conv.Params.Country]
		if !ok || alt == "" {
			return false
		}
		conv.Params.Country = alt
		return true
	default:
		return false
	}
}
