package orchestrator

import (
	"context"
	"time"

	"tourchat/internal/common/config"
	commonerrors "tourchat/internal/common/errors"
	"tourchat/internal/common/metrics"
	"tourchat/internal/models"
	"tourchat/internal/tourvisor"
)

// SearchAPI is the inventory client surface the engine depends on.
type SearchAPI interface {
	SubmitSearch(ctx context.Context, q tourvisor.SearchQuery) (string, error)
	PollStatus(ctx context.Context, requestID string) (tourvisor.SearchStatus, error)
	FetchResults(ctx context.Context, requestID string, page, onPage int) ([]tourvisor.RawHotel, error)
	HotTours(ctx context.Context, departureID, countryID, maxItems int) ([]tourvisor.RawHotTour, error)
	FindCountry(ctx context.Context, name string) (*tourvisor.DictEntry, error)
	FindDeparture(ctx context.Context, city string) (*tourvisor.DictEntry, error)
	Hotels(ctx context.Context, countryID int) ([]tourvisor.HotelEntry, error)
}

// buildQuery converts accumulated slots plus resolved dictionary IDs into
// one submission. Confirmed single dates get the standard ±N day window;
// a month or holiday window is submitted as-is.
func buildQuery(params *models.SearchParams, departureID, countryID int, cfg config.SearchConfig, now time.Time) tourvisor.SearchQuery {
	q := tourvisor.SearchQuery{
		DepartureID: departureID,
		CountryID:   countryID,
		NightsFrom:  params.Nights,
		NightsTo:    params.Nights + 1,
		Adults:      params.Adults,
		ChildAges:   params.ChildAges,
		HotelIDs:    params.HotelIDs,
		StarsFrom:   params.StarsFrom,
		StarsTo:     params.StarsTo,
		Meal:        params.Meal,
	}

	if params.DateFrom != nil {
		from := *params.DateFrom
		to := from
		if params.DateTo != nil {
			to = *params.DateTo
		}

		if params.DatesConfirmed {
			from = from.AddDate(0, 0, -cfg.DateWidenDays)
			to = params.DateFrom.AddDate(0, 0, cfg.DateWidenDays)
		}
		if from.Before(now) {
			from = now
		}
		if to.Before(from) {
			to = from
		}
		q.DateFrom = from
		q.DateTo = to
	}

	return q
}

// runSearch executes the full asynchronous protocol for one submission:
// submit, poll at the configured interval, fetch once the job finishes or
// progress crosses the usable threshold after the minimum wait. The
// attempt ceiling converts a stuck job into SEARCH_TIMEOUT instead of a
// raw timeout. Cancellation via ctx aborts between polls.
func (e *Engine) runSearch(ctx context.Context, conv *models.Conversation, q tourvisor.SearchQuery) ([]tourvisor.RawHotel, error) {
	requestID, err := e.api.SubmitSearch(ctx, q)
	if err != nil {
		return nil, err
	}

	submittedAt := time.Now()
	conv.Pending = &models.SearchRequest{
		RequestID:   requestID,
		SubmittedAt: submittedAt,
		State:       models.RequestPending,
	}

	pollInterval := config.GetDuration(e.tvCfg.PollInterval)
	minWait := config.GetDuration(e.tvCfg.MinWaitBeforeFetch)

	for attempt := 1; attempt <= e.tvCfg.MaxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			conv.Pending.State = models.RequestAbandoned
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}

		status, err := e.api.PollStatus(ctx, requestID)
		if err != nil {
			// Poll hiccups are absorbed by the attempt ceiling
			e.logger.Warn("Status poll failed", map[string]interface{}{
				"request_id": requestID,
				"attempt":    attempt,
				"error":      err.Error(),
			})
			conv.Pending.PollAttempts = attempt
			continue
		}

		conv.Pending.PollAttempts = attempt
		conv.Pending.Progress = status.Progress

		waited := time.Since(submittedAt)
		usable := status.Finished() ||
			(status.Progress >= e.tvCfg.MinProgressToFetch && waited >= minWait)
		if !usable {
			continue
		}

		hotels, err := e.api.FetchResults(ctx, requestID, 1, 25)
		if err != nil {
			conv.Pending.State = models.RequestFailed
			return nil, commonerrors.NewSearchFailedError(err)
		}

		conv.Pending.State = models.RequestReady
		metrics.PollAttempts.Observe(float64(attempt))
		return hotels, nil
	}

	conv.Pending.State = models.RequestFailed
	return nil, commonerrors.NewSearchTimeoutError(requestID)
}

// searchWithRetry wraps runSearch with the one automatic re-submission
// allowed for SEARCH_TIMEOUT and SEARCH_FAILED.
func (e *Engine) searchWithRetry(ctx context.Context, conv *models.Conversation, q tourvisor.SearchQuery) ([]tourvisor.RawHotel, error) {
	hotels, err := e.runSearch(ctx, conv, q)
	if err == nil {
		return hotels, nil
	}

	code := commonerrors.CodeOf(err)
	if commonerrors.GetRetryCount(code) < 1 {
		return nil, err
	}

	metrics.SearchesFailed.WithLabelValues(string(code)).Inc()
	e.logger.Info("Re-submitting failed search", map[string]interface{}{
		"conversation_id": conv.ID,
		"code":            string(code),
	})

	return e.runSearch(ctx, conv, q)
}
