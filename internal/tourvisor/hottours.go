package tourvisor

import (
	"context"
	"net/url"
	"sort"
	"strconv"
)

// HotTours fetches current last-minute offers synchronously. countryID of
// zero means any destination. Results come back sorted by price ascending.
func (c *Client) HotTours(ctx context.Context, departureID, countryID, maxItems int) ([]RawHotTour, error) {
	if maxItems < 1 {
		maxItems = 10
	}

	params := url.Values{
		"city":  {strconv.Itoa(departureID)},
		"items": {strconv.Itoa(maxItems)},
	}
	if countryID > 0 {
		params.Set("countries", strconv.Itoa(countryID))
	}

	var resp hotToursResponse
	if err := c.getJSON(ctx, "hottours.php", params, &resp); err != nil {
		return nil, err
	}

	tours := []RawHotTour(resp.HotTours.Tour)
	sort.SliceStable(tours, func(i, j int) bool {
		return tours[i].Price.Int() < tours[j].Price.Int()
	})

	if len(tours) > maxItems {
		tours = tours[:maxItems]
	}
	return tours, nil
}
