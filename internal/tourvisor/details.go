package tourvisor

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Actualize re-checks the live price and availability of one tour.
func (c *Client) Actualize(ctx context.Context, tourID string) (*Actualization, error) {
	params := url.Values{"tourid": {tourID}}

	var resp actualizeResponse
	if err := c.getJSON(ctx, "actualize.php", params, &resp); err != nil {
		return nil, err
	}

	return &Actualization{
		Price:     resp.Data.Tour.Price.Int(),
		Available: resp.Data.Tour.TourAllowed.Int() != 0,
	}, nil
}

// FlightDetails returns the outbound flight of an actualized tour.
func (c *Client) FlightDetails(ctx context.Context, tourID string) (*FlightInfo, error) {
	params := url.Values{"tourid": {tourID}}

	var resp flightDetailResponse
	if err := c.getJSON(ctx, "actdetail.php", params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Flights) == 0 || len(resp.Flights[0].Forward) == 0 {
		return nil, fmt.Errorf("no flight details for tour %s", tourID)
	}

	leg := resp.Flights[0].Forward[0]
	return &FlightInfo{
		Airline:       leg.Company.Name,
		FlightNumber:  leg.Number,
		DepartureTime: leg.Departure.Time,
		ArrivalTime:   leg.Arrival.Time,
	}, nil
}

// GetHotelDetails returns the descriptive card for one hotel.
func (c *Client) GetHotelDetails(ctx context.Context, hotelID int) (*HotelDetails, error) {
	params := url.Values{"hotelcode": {strconv.Itoa(hotelID)}}

	var resp hotelDetailResponse
	if err := c.getJSON(ctx, "hotel.php", params, &resp); err != nil {
		return nil, err
	}

	return &HotelDetails{
		Name:        resp.Data.Hotel.Name,
		Description: resp.Data.Hotel.Description,
		PhotoURLs:   resp.Data.Hotel.Images.Image,
	}, nil
}
