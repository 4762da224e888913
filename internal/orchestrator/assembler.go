package orchestrator

import (
	"strings"
	"time"

	"tourchat/internal/models"
	"tourchat/internal/tourvisor"
)

// mealLabels maps board-basis codes to the Russian display label.
var mealLabels = map[string]string{
	"RO":  "без питания",
	"BB":  "завтраки",
	"HB":  "завтрак и ужин",
	"FB":  "полный пансион",
	"AI":  "всё включено",
	"UAI": "ультра всё включено",
}

// MealLabel returns the display label for a meal code, or the code itself
// when unknown.
func MealLabel(meal string) string {
	if label, ok := mealLabels[strings.ToUpper(strings.TrimSpace(meal))]; ok {
		return label
	}
	return meal
}

// StarGlyphs renders a star rating as glyphs, empty for unrated hotels.
func StarGlyphs(stars int) string {
	if stars < 1 {
		return ""
	}
	if stars > 5 {
		stars = 5
	}
	return strings.Repeat("★", stars)
}

// AssembleOffers flattens the nested hotel/tour result shape into the
// stable Offer records. Pure: same input always yields the same output.
func AssembleOffers(hotels []tourvisor.RawHotel, strict bool) []models.Offer {
	var offers []models.Offer

	for _, h := range hotels {
		location := h.Region
		if location == "" {
			location = h.Country
		}

		for _, t := range h.Tours.Tour {
			dateFrom, err := time.Parse("02.01.2006", t.FlyDate)
			if err != nil {
				continue
			}
			nights := t.Nights.Int()

			pax := t.Adults.Int() + t.Children.Int()
			price := t.Price.Int() + t.FuelCharge.Int()

			offer := models.Offer{
				TourID:       t.TourID.String(),
				HotelID:      h.HotelID.Int(),
				HotelName:    h.Name,
				Stars:        h.Stars.Int(),
				StarsDisplay: StarGlyphs(h.Stars.Int()),
				Location:     location,
				Price:        price,
				Meal:         strings.ToUpper(t.Meal),
				MealLabel:    MealLabel(t.Meal),
				RoomType:     t.Room,
				DateFrom:     dateFrom,
				DateTo:       dateFrom.AddDate(0, 0, nights),
				Nights:       nights,
				StrictMatch:  strict,
			}
			if pax > 0 {
				offer.PricePerPerson = price / pax
			}
			offers = append(offers, offer)
		}
	}

	return offers
}

// AssembleHotOffers normalizes the flat hot-tours records.
func AssembleHotOffers(tours []tourvisor.RawHotTour) []models.Offer {
	offers := make([]models.Offer, 0, len(tours))

	for _, t := range tours {
		dateFrom, err := time.Parse("02.01.2006", t.FlyDate)
		if err != nil {
			continue
		}
		nights := t.Nights.Int()

		location := t.RegionName
		if location == "" {
			location = t.CountryName
		}

		offers = append(offers, models.Offer{
			TourID:       t.TourID.String(),
			HotelID:      t.HotelID.Int(),
			HotelName:    t.HotelName,
			Stars:        t.HotelStars.Int(),
			StarsDisplay: StarGlyphs(t.HotelStars.Int()),
			Location:     location,
			Price:        t.Price.Int(),
			// Hot-tour prices are quoted for a double room
			PricePerPerson: t.Price.Int() / 2,
			Meal:           strings.ToUpper(t.Meal),
			MealLabel:      MealLabel(t.Meal),
			DateFrom:       dateFrom,
			DateTo:         dateFrom.AddDate(0, 0, nights),
			Nights:         nights,
			StrictMatch:    false,
		})
	}

	return offers
}
