package orchestrator

import (
	"sort"

	"tourchat/internal/common/config"
	"tourchat/internal/models"
)

// ApplyFilters produces the filtered, price-sorted top-N offers.
//
// The quality gate drops offers below the minimum star rating unless the
// params carry skip_quality_check (strict hotel search): a user who named
// a hotel gets that hotel whatever its rating. Explicit star, meal and
// budget constraints are honored in both modes.
func ApplyFilters(offers []models.Offer, params *models.SearchParams, cfg config.SearchConfig) []models.Offer {
	filtered := make([]models.Offer, 0, len(offers))

	for _, o := range offers {
		if params.StarsFrom > 0 && o.Stars < params.StarsFrom {
			continue
		}
		if params.StarsTo > 0 && o.Stars > params.StarsTo {
			continue
		}
		if params.Meal != "" && o.Meal != params.Meal {
			continue
		}
		if params.MaxBudget > 0 && o.Price > params.MaxBudget {
			continue
		}
		if !params.SkipQualityCheck && cfg.QualityMinStars > 0 && o.Stars > 0 && o.Stars < cfg.QualityMinStars {
			continue
		}
		filtered = append(filtered, o)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Price < filtered[j].Price
	})

	// One offer per hotel keeps the top-N varied
	seen := make(map[int]bool, len(filtered))
	deduped := filtered[:0]
	for _, o := range filtered {
		if o.HotelID != 0 && seen[o.HotelID] {
			continue
		}
		seen[o.HotelID] = true
		deduped = append(deduped, o)
	}

	if cfg.MaxOffers > 0 && len(deduped) > cfg.MaxOffers {
		deduped = deduped[:cfg.MaxOffers]
	}
	return deduped
}
