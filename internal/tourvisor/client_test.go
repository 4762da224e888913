package tourvisor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourchat/internal/common/config"
	commonerrors "tourchat/internal/common/errors"
	"tourchat/internal/common/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.TourvisorConfig{
		BaseURL:    server.URL,
		AuthLogin:  "login",
		AuthPass:   "pass",
		Timeout:    2000,
		MaxRetries: 2,
	}, logger.NewNoOpLogger())

	return client, server
}

func TestSubmitSearch_BuildsQuery(t *testing.T) {
	var gotQuery map[string]string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`{"result":{"requestid":"12345"}}`))
	})

	dateFrom := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	requestID, err := client.SubmitSearch(context.Background(), SearchQuery{
		DepartureID: 1,
		CountryID:   4,
		DateFrom:    dateFrom,
		DateTo:      dateFrom.AddDate(0, 0, 4),
		NightsFrom:  7,
		NightsTo:    8,
		Adults:      2,
		ChildAges:   []int{5, 12},
		Meal:        "AI",
		StarsFrom:   4,
	})

	require.NoError(t, err)
	assert.Equal(t, "12345", requestID)

	assert.Equal(t, "login", gotQuery["authlogin"])
	assert.Equal(t, "json", gotQuery["format"])
	assert.Equal(t, "15.06.2026", gotQuery["datefrom"])
	assert.Equal(t, "19.06.2026", gotQuery["dateto"])
	assert.Equal(t, "7", gotQuery["nightsfrom"])
	assert.Equal(t, "8", gotQuery["nightsto"])
	assert.Equal(t, "2", gotQuery["adults"])
	assert.Equal(t, "2", gotQuery["child"])
	assert.Equal(t, "5", gotQuery["childage1"])
	assert.Equal(t, "12", gotQuery["childage2"])
	assert.Equal(t, "7", gotQuery["meal"]) // AI
	assert.Equal(t, "4", gotQuery["stars"])
}

func TestSubmitSearch_HotelList(t *testing.T) {
	var hotels string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hotels = r.URL.Query().Get("hotels")
		w.Write([]byte(`{"result":{"requestid":777}}`))
	})

	requestID, err := client.SubmitSearch(context.Background(), SearchQuery{
		DepartureID: 1,
		CountryID:   4,
		DateFrom:    time.Now(),
		DateTo:      time.Now(),
		NightsFrom:  7,
		NightsTo:    8,
		Adults:      2,
		HotelIDs:    []int{101, 202},
	})

	require.NoError(t, err)
	assert.Equal(t, "777", requestID, "numeric requestid must parse")
	assert.Equal(t, "101,202", hotels)
}

func TestPollStatus_StringNumbers(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"status":{"state":"searching","progress":"70","hotelsfound":"12","toursfound":"340","minprice":"54000"}}}`))
	})

	status, err := client.PollStatus(context.Background(), "12345")
	require.NoError(t, err)

	assert.Equal(t, "searching", status.State)
	assert.Equal(t, 70, status.Progress)
	assert.Equal(t, 12, status.HotelsFound)
	assert.False(t, status.Finished())
}

func TestFetchResults_SingleHotelObject(t *testing.T) {
	// The API drops the array wrapper when exactly one hotel matches
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"result":{"hotel":{"hotelcode":"9001","hotelname":"Rixos Premium","hotelstars":"5","regionname":"Белек","price":"185000","tours":{"tour":{"tourid":"t-1","flydate":"15.06.2026","nights":"7","price":"185000","meal":"UAI","adults":"2"}}}}}}`))
	})

	hotels, err := client.FetchResults(context.Background(), "12345", 1, 25)
	require.NoError(t, err)
	require.Len(t, hotels, 1)

	h := hotels[0]
	assert.Equal(t, 9001, h.HotelID.Int())
	assert.Equal(t, "Rixos Premium", h.Name)
	assert.Equal(t, 5, h.Stars.Int())
	require.Len(t, h.Tours.Tour, 1)
	assert.Equal(t, "t-1", h.Tours.Tour[0].TourID.String())
	assert.Equal(t, 7, h.Tours.Tour[0].Nights.Int())
}

func TestGetJSON_StripsBOM(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"result":{"requestid":"1"}}`)...))
	})

	requestID, err := client.SubmitSearch(context.Background(), SearchQuery{
		DepartureID: 1, CountryID: 4,
		DateFrom: time.Now(), DateTo: time.Now(),
		NightsFrom: 7, NightsTo: 8, Adults: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "1", requestID)
}

func TestGetJSON_RetriesServerError(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"data":{"status":{"state":"finished","progress":100}}}`))
	})

	status, err := client.PollStatus(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, status.Finished())
}

func TestGetJSON_UpstreamUnavailableAfterRetries(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.PollStatus(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeUpstreamUnavailable, commonerrors.CodeOf(err))
}

func TestHotTours_SingleTourAndSorting(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hottours":{"hotcount":"2","tour":[{"tourid":"h2","hotelname":"B","price":"90000"},{"tourid":"h1","hotelname":"A","price":"45000"}]}}`))
	})

	tours, err := client.HotTours(context.Background(), 1, 0, 10)
	require.NoError(t, err)
	require.Len(t, tours, 2)
	assert.Equal(t, "h1", tours[0].TourID.String(), "cheapest first")
	assert.Equal(t, "h2", tours[1].TourID.String())
}

func TestHotTours_SingleObjectPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hottours":{"hotcount":"1","tour":{"tourid":"only","hotelname":"Solo","price":"50000"}}}`))
	})

	tours, err := client.HotTours(context.Background(), 1, 0, 10)
	require.NoError(t, err)
	require.Len(t, tours, 1)
	assert.Equal(t, "only", tours[0].TourID.String())
}

func TestFindCountry_ExactAndInflected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lists":{"countries":{"country":[{"id":"4","name":"Турция"},{"id":"1","name":"Египет"}]}}}`))
	})

	entry, err := client.FindCountry(context.Background(), "турция")
	require.NoError(t, err)
	assert.Equal(t, 4, entry.ID.Int())

	// Genitive form from "тур в Турцию"
	entry, err = client.FindCountry(context.Background(), "Турцию")
	require.NoError(t, err)
	assert.Equal(t, 4, entry.ID.Int())
}

func TestFindCountry_Unsellable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lists":{"countries":{"country":[{"id":"4","name":"Турция"}]}}}`))
	})

	_, err := client.FindCountry(context.Background(), "Монако")
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidCountry, commonerrors.CodeOf(err))
}

func TestFindDeparture_Unknown(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lists":{"departures":{"departure":[{"id":"1","name":"Москва"}]}}}`))
	})

	entry, err := client.FindDeparture(context.Background(), "Москвы")
	require.NoError(t, err)
	assert.Equal(t, 1, entry.ID.Int())

	_, err = client.FindDeparture(context.Background(), "Урюпинск")
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeUnknownDeparture, commonerrors.CodeOf(err))
}

func TestMealCode(t *testing.T) {
	assert.Equal(t, 7, MealCode("AI"))
	assert.Equal(t, 7, MealCode("ai"))
	assert.Equal(t, 9, MealCode("UAI"))
	assert.Equal(t, 2, MealCode("RO"))
	assert.Equal(t, 0, MealCode("unknown"))
}
