package models

import "time"

// HotelMatch is one candidate returned by the hotel lookup.
type HotelMatch struct {
	HotelID int    `json:"hotel_id"`
	Name    string `json:"name"`
	Stars   int    `json:"stars"`
	Region  string `json:"region,omitempty"`
}

// Offer is the normalized tour record. Read-only once produced; display
// fields are precomputed so the transport layer performs no business logic.
type Offer struct {
	TourID         string    `json:"tour_id"`
	HotelID        int       `json:"hotel_id"`
	HotelName      string    `json:"hotel_name"`
	Stars          int       `json:"stars"`
	StarsDisplay   string    `json:"stars_display"`
	Location       string    `json:"location"`
	Price          int       `json:"price"`
	PricePerPerson int       `json:"price_per_person"`
	Meal           string    `json:"meal"`
	MealLabel      string    `json:"meal_label"`
	RoomType       string    `json:"room_type,omitempty"`
	DateFrom       time.Time `json:"date_from"`
	DateTo         time.Time `json:"date_to"`
	Nights         int       `json:"nights"`
	StrictMatch    bool      `json:"strict_match"`
}
