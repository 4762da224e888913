package tourvisor

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	commonerrors "tourchat/internal/common/errors"
)

// Dictionary rows change rarely; one refresh per process-day is plenty.
const dictionaryTTL = 24 * time.Hour

type dictionaryCache struct {
	mu           sync.RWMutex
	countries    []DictEntry
	departures   []DictEntry
	countriesAt  time.Time
	departuresAt time.Time
	hotels       map[int][]HotelEntry
	hotelsAt     map[int]time.Time
}

func newDictionaryCache() *dictionaryCache {
	return &dictionaryCache{
		hotels:   make(map[int][]HotelEntry),
		hotelsAt: make(map[int]time.Time),
	}
}

// Countries returns the sellable-destination dictionary, cached.
func (c *Client) Countries(ctx context.Context) ([]DictEntry, error) {
	c.dicts.mu.RLock()
	if len(c.dicts.countries) > 0 && time.Since(c.dicts.countriesAt) < dictionaryTTL {
		entries := c.dicts.countries
		c.dicts.mu.RUnlock()
		return entries, nil
	}
	c.dicts.mu.RUnlock()

	var resp listResponse
	params := url.Values{"type": {"country"}}
	if err := c.getJSON(ctx, "list.php", params, &resp); err != nil {
		return nil, err
	}

	c.dicts.mu.Lock()
	c.dicts.countries = resp.Lists.Countries.Country
	c.dicts.countriesAt = time.Now()
	c.dicts.mu.Unlock()

	return resp.Lists.Countries.Country, nil
}

// Departures returns the departure-city dictionary, cached.
func (c *Client) Departures(ctx context.Context) ([]DictEntry, error) {
	c.dicts.mu.RLock()
	if len(c.dicts.departures) > 0 && time.Since(c.dicts.departuresAt) < dictionaryTTL {
		entries := c.dicts.departures
		c.dicts.mu.RUnlock()
		return entries, nil
	}
	c.dicts.mu.RUnlock()

	var resp listResponse
	params := url.Values{"type": {"departure"}}
	if err := c.getJSON(ctx, "list.php", params, &resp); err != nil {
		return nil, err
	}

	c.dicts.mu.Lock()
	c.dicts.departures = resp.Lists.Departures.Departure
	c.dicts.departuresAt = time.Now()
	c.dicts.mu.Unlock()

	return resp.Lists.Departures.Departure, nil
}

// Hotels returns the hotel dictionary for a country, cached per country.
func (c *Client) Hotels(ctx context.Context, countryID int) ([]HotelEntry, error) {
	c.dicts.mu.RLock()
	if entries, ok := c.dicts.hotels[countryID]; ok && time.Since(c.dicts.hotelsAt[countryID]) < dictionaryTTL {
		c.dicts.mu.RUnlock()
		return entries, nil
	}
	c.dicts.mu.RUnlock()

	var resp hotelListResponse
	params := url.Values{
		"type":       {"hotel"},
		"hotcountry": {strconv.Itoa(countryID)},
	}
	if err := c.getJSON(ctx, "list.php", params, &resp); err != nil {
		return nil, err
	}

	c.dicts.mu.Lock()
	c.dicts.hotels[countryID] = resp.Lists.Hotels.Hotel
	c.dicts.hotelsAt[countryID] = time.Now()
	c.dicts.mu.Unlock()

	return resp.Lists.Hotels.Hotel, nil
}

// FindCountry resolves a user-typed country name to a dictionary entry.
// Matching is case-insensitive: exact first, then prefix.
func (c *Client) FindCountry(ctx context.Context, name string) (*DictEntry, error) {
	entries, err := c.Countries(ctx)
	if err != nil {
		return nil, err
	}

	if match := matchEntry(entries, name); match != nil {
		return match, nil
	}
	return nil, commonerrors.NewInvalidCountryError(name)
}

// FindDeparture resolves a user-typed departure city to a dictionary entry.
func (c *Client) FindDeparture(ctx context.Context, city string) (*DictEntry, error) {
	entries, err := c.Departures(ctx)
	if err != nil {
		return nil, err
	}

	if match := matchEntry(entries, city); match != nil {
		return match, nil
	}
	return nil, commonerrors.NewUnknownDepartureError(city)
}

func matchEntry(entries []DictEntry, query string) *DictEntry {
	q := normalizeName(query)
	if q == "" {
		return nil
	}

	for i := range entries {
		if normalizeName(entries[i].Name) == q {
			return &entries[i]
		}
	}

	// Prefix handles inflected forms: "Турции" matches "Турция" on the
	// shared stem once the last letter differs.
	for i := range entries {
		name := normalizeName(entries[i].Name)
		if strings.HasPrefix(name, trimLastRune(q)) && len(q) >= 4 {
			return &entries[i]
		}
		if strings.HasPrefix(q, trimLastRune(name)) && len(name) >= 4 {
			return &entries[i]
		}
	}

	return nil
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "ё", "е")
	return s
}

func trimLastRune(s string) string {
	runes := []rune(s)
	if len(runes) <= 1 {
		return s
	}
	return string(runes[:len(runes)-1])
}

