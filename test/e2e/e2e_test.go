// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourchat/internal/common/config"
	"tourchat/internal/common/logger"
	"tourchat/internal/dialogue"
	"tourchat/internal/notify"
	"tourchat/internal/orchestrator"
	"tourchat/internal/resolver"
	"tourchat/internal/server"
	"tourchat/internal/session"
	"tourchat/internal/tourvisor"
)

// fakeInventory emulates the operator API end to end: dictionaries, the
// async search protocol and the detail endpoints. Responses carry the
// UTF-8 BOM the real API sends.
type fakeInventory struct {
	searchQueries []map[string]string
	statusCalls   int
}

func (f *fakeInventory) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flyDate := time.Now().AddDate(0, 0, 30).Format("02.01.2006")

		switch r.URL.Path {
		case "/list.php":
			switch r.URL.Query().Get("type") {
			case "country":
				f.writeBOM(w, `{"lists":{"countries":{"country":[{"id":"4","name":"Турция"},{"id":"1","name":"Египет"}]}}}`)
			case "departure":
				f.writeBOM(w, `{"lists":{"departures":{"departure":[{"id":"1","name":"Москва"},{"id":"5","name":"Екатеринбург"}]}}}`)
			case "hotel":
				f.writeBOM(w, `{"lists":{"hotels":{"hotel":[{"id":"9001","name":"Rixos Premium Belek","stars":"5","regionname":"Белек"}]}}}`)
			}

		case "/search.php":
			q := map[string]string{}
			for k := range r.URL.Query() {
				q[k] = r.URL.Query().Get(k)
			}
			f.searchQueries = append(f.searchQueries, q)
			f.writeBOM(w, `{"result":{"requestid":"42"}}`)

		case "/result.php":
			if r.URL.Query().Get("type") == "status" {
				f.statusCalls++
				if f.statusCalls == 1 {
					f.writeBOM(w, `{"data":{"status":{"state":"searching","progress":"40"}}}`)
					return
				}
				f.writeBOM(w, `{"data":{"status":{"state":"finished","progress":"100","hotelsfound":"1"}}}`)
				return
			}
			if r.URL.Query().Get("page") != "1" {
				f.writeBOM(w, `{"data":{"result":{"hotel":[]}}}`)
				return
			}
			// Single object instead of an array, the API quirk
			f.writeBOM(w, fmt.Sprintf(`{"data":{"result":{"hotel":{
				"hotelcode":"9001","hotelname":"Rixos Premium Belek","hotelstars":"5","regionname":"Белек","price":"180000",
				"tours":{"tour":{"tourid":"t-1","flydate":"%s","nights":"7","price":"180000","fuelcharge":"4000","meal":"AI","adults":"2"}}
			}}}}`, flyDate))

		case "/hottours.php":
			f.writeBOM(w, fmt.Sprintf(`{"hottours":{"hotcount":"1","tour":{
				"tourid":"hot-1","hotelcode":"7007","hotelname":"Sunrise Resort","hotelstars":"4",
				"countryname":"Египет","hotelregionname":"Хургада","flydate":"%s","nights":"10","meal":"AI","price":"95000","priceold":"120000"
			}}}`, flyDate))

		case "/actualize.php":
			f.writeBOM(w, `{"data":{"tour":{"price":"182500","touralowed":"1"}}}`)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func (f *fakeInventory) writeBOM(w http.ResponseWriter, body string) {
	w.Write(append([]byte{0xEF, 0xBB, 0xBF}, []byte(body)...))
}

func newStack(t *testing.T) (*server.Server, *fakeInventory) {
	t.Helper()

	inv := &fakeInventory{}
	upstream := httptest.NewServer(inv.handler())
	t.Cleanup(upstream.Close)

	tvCfg := config.TourvisorConfig{
		BaseURL:            upstream.URL,
		AuthLogin:          "login",
		AuthPass:           "pass",
		Timeout:            2000,
		PollInterval:       1,
		MaxPollAttempts:    10,
		MinProgressToFetch: 70,
		MaxRetries:         2,
	}
	searchCfg := config.SearchConfig{
		DateWidenDays:   2,
		MaxOffers:       5,
		MinOffers:       3,
		QualityMinStars: 3,
		HorizonDays:     365,
		HotTourItems:    10,
	}

	log := logger.NewNoOpLogger()
	client := tourvisor.NewClient(tvCfg, log)

	store := session.NewMemoryStore(30 * time.Minute)
	t.Cleanup(func() { store.Close() })

	engine := orchestrator.NewEngine(
		store, client,
		dialogue.NewCascade(config.DialogueConfig{EscalationPartySize: 6}, searchCfg),
		resolver.New(client, log),
		notify.NoOpNotifier{},
		tvCfg, searchCfg, log,
	)

	return server.New(engine, client, config.ServerConfig{}, log), inv
}

func postTurn(t *testing.T, s *server.Server, payload map[string]interface{}) orchestrator.Reply {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(payload))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reply orchestrator.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	return reply
}

// TestFullConversationFlow walks a complete slot-filling dialogue through
// the real HTTP surface, client and async search protocol.
func TestFullConversationFlow(t *testing.T) {
	s, inv := newStack(t)
	convID := "e2e-parametric"

	// 1. Greeting opens the dialogue with a question
	reply := postTurn(t, s, map[string]interface{}{
		"conversation_id": convID,
		"message":         "привет",
		"intent":          "greeting",
	})
	assert.True(t, reply.Question)
	assert.NotEmpty(t, reply.Text)

	// 2. Country alone is not enough to search
	reply = postTurn(t, s, map[string]interface{}{
		"conversation_id": convID,
		"message":         "хочу в Турцию",
		"intent":          "parametric_search",
		"slots":           map[string]interface{}{"country": "Турцию"},
	})
	assert.True(t, reply.Question)
	assert.Empty(t, reply.Offers)

	// 3. Departure city, still collecting
	reply = postTurn(t, s, map[string]interface{}{
		"conversation_id": convID,
		"message":         "из Москвы",
		"slots":           map[string]interface{}{"departure_city": "Москвы"},
	})
	assert.True(t, reply.Question)

	// 4. Dates, nights and party size complete the cascade
	from := time.Now().AddDate(0, 0, 28).Format(time.RFC3339)
	reply = postTurn(t, s, map[string]interface{}{
		"conversation_id": convID,
		"message":         "через месяц, на неделю, вдвоём",
		"slots": map[string]interface{}{
			"date_from": from,
			"nights":    7,
			"adults":    2,
		},
	})
	require.NotEmpty(t, reply.Offers, "completed cascade must run the search: %s", reply.Text)
	assert.Equal(t, "Rixos Premium Belek", reply.Offers[0].HotelName)
	assert.False(t, reply.Question)

	// The submitted query must carry the resolved dictionary IDs
	require.NotEmpty(t, inv.searchQueries)
	q := inv.searchQueries[0]
	assert.Equal(t, "1", q["departure"])
	assert.Equal(t, "4", q["country"])
	assert.Equal(t, "7", q["nightsfrom"])
	assert.Equal(t, "2", q["adults"])
	assert.GreaterOrEqual(t, inv.statusCalls, 2, "must poll until the search finishes")

	// 5. Next page is empty, the bot says so instead of going silent
	reply = postTurn(t, s, map[string]interface{}{
		"conversation_id": convID,
		"message":         "ещё варианты",
		"fetch_more":      true,
	})
	assert.Empty(t, reply.Offers)
	assert.NotEmpty(t, reply.Text)
}

// TestHotToursFlow needs only the departure city before it searches.
func TestHotToursFlow(t *testing.T) {
	s, _ := newStack(t)

	reply := postTurn(t, s, map[string]interface{}{
		"conversation_id": "e2e-hot",
		"message":         "покажи горящие туры из Москвы",
		"intent":          "hot_tours",
		"slots":           map[string]interface{}{"departure_city": "Москва"},
	})

	require.NotEmpty(t, reply.Offers, "hot tours bypass the full cascade: %s", reply.Text)
	assert.Equal(t, "Sunrise Resort", reply.Offers[0].HotelName)
}

// TestActualizeFlow checks the detail endpoint against the live upstream stub.
func TestActualizeFlow(t *testing.T) {
	s, _ := newStack(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours/t-1/actualize", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var act tourvisor.Actualization
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &act))
	assert.Equal(t, 182500, act.Price)
	assert.True(t, act.Available)
}
