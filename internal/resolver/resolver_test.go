package resolver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourchat/internal/common/logger"
	"tourchat/internal/models"
	"tourchat/internal/tourvisor"
)

type stubDirectory struct {
	entries []tourvisor.HotelEntry
	err     error
}

func (s *stubDirectory) Hotels(ctx context.Context, countryID int) ([]tourvisor.HotelEntry, error) {
	return s.entries, s.err
}

// hotelEntries builds dictionary rows from wire-shaped JSON so the flexible
// ID/number decoding is exercised the same way production does it.
func hotelEntries(t *testing.T, rows ...string) []tourvisor.HotelEntry {
	t.Helper()
	entries := make([]tourvisor.HotelEntry, len(rows))
	for i, row := range rows {
		require.NoError(t, json.Unmarshal([]byte(row), &entries[i]))
	}
	return entries
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "rixos premium", Normalize("Rixos Premium"))
	assert.Equal(t, "rixos premium", Normalize("отель Риксос Премиум"))
	assert.Equal(t, "rixos premium", Normalize("Rixos Premium Hotel"))
	assert.Equal(t, "rixos", Normalize("Рикос"), "alias corrects the misspelling")
	assert.Equal(t, "titanik delyuks", Normalize("Титаник Делюкс"))
	assert.Equal(t, "", Normalize("   "))
}

func TestResolve_SingleMatch(t *testing.T) {
	dir := &stubDirectory{entries: hotelEntries(t,
		`{"id":"9001","name":"Rixos Premium Belek","stars":"5","regionname":"Белек"}`,
		`{"id":"9002","name":"Titanic Beach Lara","stars":"5","regionname":"Лара"}`,
	)}
	r := New(dir, logger.NewNoOpLogger())

	result, err := r.Resolve(context.Background(), "риксос премиум белек", 4)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSingle, result.Outcome)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, 9001, result.Matches[0].HotelID)
	assert.Equal(t, 5, result.Matches[0].Stars)
}

func TestResolve_PartialMatchSingle(t *testing.T) {
	dir := &stubDirectory{entries: hotelEntries(t,
		`{"id":"9001","name":"Rixos Premium Belek","stars":"5"}`,
		`{"id":"9002","name":"Titanic Beach Lara","stars":"5"}`,
	)}
	r := New(dir, logger.NewNoOpLogger())

	result, err := r.Resolve(context.Background(), "титаник", 4)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSingle, result.Outcome)
	assert.Equal(t, 9002, result.Matches[0].HotelID)
}

func TestResolve_Ambiguous(t *testing.T) {
	dir := &stubDirectory{entries: hotelEntries(t,
		`{"id":"9001","name":"Rixos Premium Belek","stars":"5"}`,
		`{"id":"9003","name":"Rixos Sungate","stars":"5"}`,
		`{"id":"9004","name":"Rixos Downtown","stars":"4"}`,
	)}
	r := New(dir, logger.NewNoOpLogger())

	result, err := r.Resolve(context.Background(), "Rixos", 4)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAmbiguous, result.Outcome)
	assert.Len(t, result.Matches, 3)
}

func TestResolve_ExactBeatsPartial(t *testing.T) {
	dir := &stubDirectory{entries: hotelEntries(t,
		`{"id":"9005","name":"Delphin","stars":"5"}`,
		`{"id":"9006","name":"Delphin Imperial","stars":"5"}`,
	)}
	r := New(dir, logger.NewNoOpLogger())

	result, err := r.Resolve(context.Background(), "Delphin", 4)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSingle, result.Outcome)
	assert.Equal(t, 9005, result.Matches[0].HotelID)
}

func TestResolve_NotFound(t *testing.T) {
	dir := &stubDirectory{entries: hotelEntries(t,
		`{"id":"9001","name":"Rixos Premium Belek","stars":"5"}`,
	)}
	r := New(dir, logger.NewNoOpLogger())

	result, err := r.Resolve(context.Background(), "Несуществующий", 4)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, result.Outcome)
	assert.Empty(t, result.Matches)
}

func TestSelectCandidate(t *testing.T) {
	candidates := []models.HotelMatch{
		{HotelID: 1, Name: "Rixos Premium Belek"},
		{HotelID: 2, Name: "Rixos Sungate"},
	}

	got := SelectCandidate(candidates, "", 2)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.HotelID)

	got = SelectCandidate(candidates, "sungate", 0)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.HotelID)

	assert.Nil(t, SelectCandidate(candidates, "что-то другое", 0))
	assert.Nil(t, SelectCandidate(candidates, "", 99))
}
