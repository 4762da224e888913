// Package resolver maps free-text hotel names onto operator hotel IDs.
package resolver

import (
	"context"
	"sort"
	"strings"

	commonerrors "tourchat/internal/common/errors"
	"tourchat/internal/common/logger"
	"tourchat/internal/models"
	"tourchat/internal/tourvisor"
)

// maxCandidates caps the disambiguation list shown to the user.
const maxCandidates = 5

// HotelDirectory is the dictionary dependency; satisfied by the inventory
// API client.
type HotelDirectory interface {
	Hotels(ctx context.Context, countryID int) ([]tourvisor.HotelEntry, error)
}

// Outcome classifies one resolution attempt.
type Outcome string

const (
	OutcomeSingle    Outcome = "single"
	OutcomeAmbiguous Outcome = "ambiguous"
	OutcomeNotFound  Outcome = "not_found"
)

// Result is the resolver verdict. Matches is populated for Single (one
// entry) and Ambiguous (two or more, capped).
type Result struct {
	Outcome Outcome
	Matches []models.HotelMatch
}

type Resolver struct {
	directory HotelDirectory
	logger    logger.Logger
}

func New(directory HotelDirectory, log logger.Logger) *Resolver {
	return &Resolver{directory: directory, logger: log}
}

// Resolve matches a user-typed hotel name against the country's hotel
// dictionary. Exact normalized match wins outright even when substring
// matches exist; otherwise all substring matches are returned for
// disambiguation. The resolver never guesses between candidates.
func (r *Resolver) Resolve(ctx context.Context, query string, countryID int) (*Result, error) {
	entries, err := r.directory.Hotels(ctx, countryID)
	if err != nil {
		return nil, err
	}

	normQuery := Normalize(query)
	if normQuery == "" {
		return nil, commonerrors.NewHotelNotFoundError(query)
	}

	var exact []models.HotelMatch
	var partial []models.HotelMatch

	for _, e := range entries {
		normName := Normalize(e.Name)
		match := models.HotelMatch{
			HotelID: e.ID.Int(),
			Name:    e.Name,
			Stars:   e.Stars.Int(),
			Region:  e.RegionName,
		}

		switch {
		case normName == normQuery:
			exact = append(exact, match)
		case strings.Contains(normName, normQuery) || strings.Contains(normQuery, normName):
			partial = append(partial, match)
		}
	}

	matches := exact
	if len(matches) == 0 {
		matches = partial
	}

	switch {
	case len(matches) == 0:
		r.logger.Info("Hotel not found", map[string]interface{}{
			"query":   query,
			"country": countryID,
		})
		return &Result{Outcome: OutcomeNotFound}, nil
	case len(matches) == 1:
		return &Result{Outcome: OutcomeSingle, Matches: matches}, nil
	default:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Stars > matches[j].Stars
		})
		if len(matches) > maxCandidates {
			matches = matches[:maxCandidates]
		}
		return &Result{Outcome: OutcomeAmbiguous, Matches: matches}, nil
	}
}

// SelectCandidate matches a follow-up user reply against a previously
// returned disambiguation set, by 1-based index or by name fragment.
func SelectCandidate(candidates []models.HotelMatch, reply string, index int) *models.HotelMatch {
	if index >= 1 && index <= len(candidates) {
		return &candidates[index-1]
	}

	normReply := Normalize(reply)
	if normReply == "" {
		return nil
	}
	for i := range candidates {
		if strings.Contains(Normalize(candidates[i].Name), normReply) {
			return &candidates[i]
		}
	}
	return nil
}
