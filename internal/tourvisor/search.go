package tourvisor

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const wireDateFormat = "02.01.2006"

// Meal codes of the inventory API. Keys are the board-basis abbreviations
// users actually type.
var mealCodes = map[string]int{
	"RO":  2, // room only
	"BB":  3, // bed and breakfast
	"HB":  4, // half board
	"FB":  5, // full board
	"AI":  7, // all inclusive
	"UAI": 9, // ultra all inclusive
}

// MealCode maps a board-basis abbreviation to its wire code, 0 if unknown.
func MealCode(meal string) int {
	return mealCodes[strings.ToUpper(strings.TrimSpace(meal))]
}

// SearchQuery is the fully resolved parameter set for one submission.
// IDs are dictionary IDs, never free text.
type SearchQuery struct {
	DepartureID int
	CountryID   int
	DateFrom    time.Time
	DateTo      time.Time
	NightsFrom  int
	NightsTo    int
	Adults      int
	ChildAges   []int
	HotelIDs    []int
	StarsFrom   int
	StarsTo     int
	Meal        string
}

// SearchStatus is one status poll snapshot.
type SearchStatus struct {
	State       string // "searching" or "finished"
	Progress    int
	HotelsFound int
	ToursFound  int
	MinPrice    int
}

// Finished reports whether the remote job completed.
func (s SearchStatus) Finished() bool {
	return s.State == "finished"
}

// SubmitSearch starts an asynchronous search and returns its request ID.
func (c *Client) SubmitSearch(ctx context.Context, q SearchQuery) (string, error) {
	params := url.Values{
		"departure":  {strconv.Itoa(q.DepartureID)},
		"country":    {strconv.Itoa(q.CountryID)},
		"datefrom":   {q.DateFrom.Format(wireDateFormat)},
		"dateto":     {q.DateTo.Format(wireDateFormat)},
		"nightsfrom": {strconv.Itoa(q.NightsFrom)},
		"nightsto":   {strconv.Itoa(q.NightsTo)},
		"adults":     {strconv.Itoa(q.Adults)},
	}

	if len(q.ChildAges) > 0 {
		params.Set("child", strconv.Itoa(len(q.ChildAges)))
		for i, age := range q.ChildAges {
			if i >= 3 {
				break // API caps at three child age slots
			}
			params.Set(fmt.Sprintf("childage%d", i+1), strconv.Itoa(age))
		}
	}

	if len(q.HotelIDs) > 0 {
		ids := make([]string, len(q.HotelIDs))
		for i, id := range q.HotelIDs {
			ids[i] = strconv.Itoa(id)
		}
		params.Set("hotels", strings.Join(ids, ","))
	}

	if q.StarsFrom > 0 {
		params.Set("stars", strconv.Itoa(q.StarsFrom))
		params.Set("starsbetter", "1")
	}
	if code := MealCode(q.Meal); code > 0 {
		params.Set("meal", strconv.Itoa(code))
		params.Set("mealbetter", "1")
	}

	var resp submitResponse
	if err := c.getJSON(ctx, "search.php", params, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("search submission rejected: %s", resp.Error)
	}
	if resp.Result.RequestID.String() == "" {
		return "", fmt.Errorf("search submission returned no request id")
	}

	c.logger.Info("Search submitted", map[string]interface{}{
		"request_id": resp.Result.RequestID.String(),
		"country":    q.CountryID,
		"departure":  q.DepartureID,
		"hotels":     len(q.HotelIDs),
	})

	return resp.Result.RequestID.String(), nil
}

// PollStatus reports the progress of an asynchronous search.
func (c *Client) PollStatus(ctx context.Context, requestID string) (SearchStatus, error) {
	params := url.Values{
		"requestid": {requestID},
		"type":      {"status"},
	}

	var resp statusResponse
	if err := c.getJSON(ctx, "result.php", params, &resp); err != nil {
		return SearchStatus{}, err
	}

	return SearchStatus{
		State:       resp.Data.Status.State,
		Progress:    resp.Data.Status.Progress.Int(),
		HotelsFound: resp.Data.Status.HotelsFound.Int(),
		ToursFound:  resp.Data.Status.ToursFound.Int(),
		MinPrice:    resp.Data.Status.MinPrice.Int(),
	}, nil
}

// FetchResults retrieves one page of search results. Pages are 1-based.
func (c *Client) FetchResults(ctx context.Context, requestID string, page, onPage int) ([]RawHotel, error) {
	if page < 1 {
		page = 1
	}
	if onPage < 1 {
		onPage = 25
	}

	params := url.Values{
		"requestid": {requestID},
		"type":      {"result"},
		"page":      {strconv.Itoa(page)},
		"onpage":    {strconv.Itoa(onPage)},
	}

	var resp resultResponse
	if err := c.getJSON(ctx, "result.php", params, &resp); err != nil {
		return nil, err
	}

	return resp.Data.Result.Hotel, nil
}
