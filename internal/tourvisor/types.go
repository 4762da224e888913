// Package tourvisor implements the client for the operator inventory API.
//
// The API is form-encoded HTTP GET with JSON responses. Parametric search
// is asynchronous: search.php returns a request ID, result.php?type=status
// reports progress, result.php?type=result returns pages of offers. Hot
// tours are synchronous via hottours.php.
package tourvisor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// flexID tolerates the API returning numeric IDs either as numbers or as
// quoted strings, which varies between endpoints.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	*f = flexID(s)
	return nil
}

func (f flexID) String() string { return string(f) }

func (f flexID) Int() int {
	n, _ := strconv.Atoi(string(f))
	return n
}

// flexInt tolerates numbers arriving as strings ("70") or numbers (70).
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Star ratings sometimes arrive as "4.5"
		fl, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("cannot parse %q as number", s)
		}
		n = int(fl)
	}
	*f = flexInt(n)
	return nil
}

func (f flexInt) Int() int { return int(f) }

// ==========================
// Wire responses
// ==========================

type submitResponse struct {
	Result struct {
		RequestID flexID `json:"requestid"`
	} `json:"result"`
	Error string `json:"error,omitempty"`
}

type statusResponse struct {
	Data struct {
		Status struct {
			State       string  `json:"state"`
			Progress    flexInt `json:"progress"`
			HotelsFound flexInt `json:"hotelsfound"`
			ToursFound  flexInt `json:"toursfound"`
			MinPrice    flexInt `json:"minprice"`
		} `json:"status"`
	} `json:"data"`
}

type resultResponse struct {
	Data struct {
		Result struct {
			Hotel rawHotelList `json:"hotel"`
		} `json:"result"`
	} `json:"data"`
}

// RawHotel is one hotel block from result.php with its nested tours.
type RawHotel struct {
	HotelID     flexID       `json:"hotelcode"`
	Name        string       `json:"hotelname"`
	Stars       flexInt      `json:"hotelstars"`
	Rating      string       `json:"hotelrating"`
	Region      string       `json:"regionname"`
	Country     string       `json:"countryname"`
	Description string       `json:"hoteldescription"`
	Picture     string       `json:"picturelink"`
	Price       flexInt      `json:"price"`
	Tours       rawTourBlock `json:"tours"`
}

type rawTourBlock struct {
	Tour rawTourList `json:"tour"`
}

// RawTour is one concrete tour option inside a hotel block.
type RawTour struct {
	TourID       flexID  `json:"tourid"`
	OperatorName string  `json:"operatorname"`
	FlyDate      string  `json:"flydate"` // d.m.Y
	Nights       flexInt `json:"nights"`
	Price        flexInt `json:"price"`
	FuelCharge   flexInt `json:"fuelcharge"`
	Meal         string  `json:"meal"`
	Room         string  `json:"room"`
	Adults       flexInt `json:"adults"`
	Children     flexInt `json:"child"`
}

// rawHotelList accepts both a single hotel object and an array. The API
// drops the array wrapper when exactly one hotel matches.
type rawHotelList []RawHotel

func (l *rawHotelList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var arr []RawHotel
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		*l = arr
		return nil
	}
	var single RawHotel
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = rawHotelList{single}
	return nil
}

type rawTourList []RawTour

func (l *rawTourList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var arr []RawTour
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		*l = arr
		return nil
	}
	var single RawTour
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = rawTourList{single}
	return nil
}

type hotToursResponse struct {
	HotTours struct {
		HotCount flexInt    `json:"hotcount"`
		Tour     rawHotList `json:"tour"`
	} `json:"hottours"`
}

// RawHotTour is one synchronous hot-tours entry. Flat, no nesting.
type RawHotTour struct {
	TourID        flexID  `json:"tourid"`
	HotelID       flexID  `json:"hotelcode"`
	HotelName     string  `json:"hotelname"`
	HotelStars    flexInt `json:"hotelstars"`
	CountryName   string  `json:"countryname"`
	RegionName    string  `json:"hotelregionname"`
	DepartureName string  `json:"departurename"`
	FlyDate       string  `json:"flydate"`
	Nights        flexInt `json:"nights"`
	Meal          string  `json:"meal"`
	Price         flexInt `json:"price"`
	PriceOld      flexInt `json:"priceold"`
}

type rawHotList []RawHotTour

func (l *rawHotList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var arr []RawHotTour
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		*l = arr
		return nil
	}
	var single RawHotTour
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = rawHotList{single}
	return nil
}

// ==========================
// Dictionaries
// ==========================

type listResponse struct {
	Lists struct {
		Countries struct {
			Country []DictEntry `json:"country"`
		} `json:"countries"`
		Departures struct {
			Departure []DictEntry `json:"departure"`
		} `json:"departures"`
	} `json:"lists"`
}

// DictEntry is one country or departure-city dictionary row.
type DictEntry struct {
	ID       flexID `json:"id"`
	Name     string `json:"name"`
	NameFrom string `json:"namefrom,omitempty"` // "из Москвы" genitive form
}

type hotelListResponse struct {
	Lists struct {
		Hotels struct {
			Hotel []HotelEntry `json:"hotel"`
		} `json:"hotels"`
	} `json:"lists"`
}

// HotelEntry is one row of the per-country hotel dictionary.
type HotelEntry struct {
	ID         flexID  `json:"id"`
	Name       string  `json:"name"`
	Stars      flexInt `json:"stars"`
	RegionName string  `json:"regionname"`
}

// ==========================
// Details endpoints
// ==========================

// Actualization is the live re-check of one tour's price and availability.
type Actualization struct {
	Price     int  `json:"price"`
	Available bool `json:"available"`
}

type actualizeResponse struct {
	Data struct {
		Tour struct {
			Price       flexInt `json:"price"`
			PriceOld    flexInt `json:"priceold"`
			Placement   string  `json:"placement"`
			TourAllowed flexInt `json:"touralowed"`
		} `json:"tour"`
	} `json:"data"`
}

// FlightInfo describes the outbound flight of an actualized tour.
type FlightInfo struct {
	Airline       string `json:"airline"`
	FlightNumber  string `json:"flight_number"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
}

type flightDetailResponse struct {
	Flights []struct {
		Forward []struct {
			Company struct {
				Name string `json:"name"`
			} `json:"company"`
			Number    string `json:"number"`
			Departure struct {
				Time string `json:"time"`
			} `json:"departure"`
			Arrival struct {
				Time string `json:"time"`
			} `json:"arrival"`
		} `json:"forward"`
	} `json:"flights"`
}

// HotelDetails is the descriptive hotel card from hotel.php.
type HotelDetails struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PhotoURLs   []string `json:"photo_urls"`
}

type hotelDetailResponse struct {
	Data struct {
		Hotel struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Images      struct {
				Image []string `json:"image"`
			} `json:"images"`
		} `json:"hotel"`
	} `json:"data"`
}
