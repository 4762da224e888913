// Package orchestrator drives one conversation turn end to end: slot
// merge, cascade decision, hotel resolution, search execution, filtering
// and fallback planning.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tourchat/internal/common/config"
	commonerrors "tourchat/internal/common/errors"
	"tourchat/internal/common/logger"
	"tourchat/internal/common/metrics"
	"tourchat/internal/common/observability"
	"tourchat/internal/dialogue"
	"tourchat/internal/models"
	"tourchat/internal/notify"
	"tourchat/internal/resolver"
	"tourchat/internal/session"
)

// TurnInput is one inbound user turn with its extracted slots. The
// extractor runs upstream; the engine never parses free text except
// dates and disambiguation replies.
type TurnInput struct {
	ConversationID string
	Text           string
	Intent         models.Intent
	Delta          *models.SlotDelta

	// Confirm accepts the fallback proposal made on the previous turn.
	Confirm bool

	// SelectedOption picks from a pending disambiguation list, 1-based.
	SelectedOption int

	// FetchMore requests the next page of the last completed search.
	FetchMore bool
}

// Reply is the engine's answer for one turn. Offers is non-empty only
// for presenting turns; ErrorCode is set for hard upstream failures.
type Reply struct {
	Text      string         `json:"text"`
	Offers    []models.Offer `json:"offers,omitempty"`
	Question  bool           `json:"question,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`

	// mode records which search path produced this reply, for the turn
	// history. Empty when no search ran this turn.
	mode models.SearchMode
}

type Engine struct {
	store     session.Store
	api       SearchAPI
	cascade   *dialogue.Cascade
	resolver  *resolver.Resolver
	notifier  notify.Notifier
	tvCfg     config.TourvisorConfig
	searchCfg config.SearchConfig
	logger    logger.Logger
	obs       *observability.Observability
}

// SetObservability attaches the otel recorder. Nil leaves only the
// prometheus collectors active.
func (e *Engine) SetObservability(obs *observability.Observability) {
	e.obs = obs
}

func NewEngine(
	store session.Store,
	api SearchAPI,
	cascade *dialogue.Cascade,
	res *resolver.Resolver,
	notifier notify.Notifier,
	tvCfg config.TourvisorConfig,
	searchCfg config.SearchConfig,
	log logger.Logger,
) *Engine {
	return &Engine{
		store:     store,
		api:       api,
		cascade:   cascade,
		resolver:  res,
		notifier:  notifier,
		tvCfg:     tvCfg,
		searchCfg: searchCfg,
		logger:    log,
	}
}

// HandleTurn processes one user turn fully before returning. Turns of the
// same conversation are serialized by the store lock; unrelated
// conversations proceed in parallel.
func (e *Engine) HandleTurn(ctx context.Context, in TurnInput) (*Reply, error) {
	unlock := e.store.Lock(in.ConversationID)
	defer unlock()

	now := time.Now()

	conv, err := e.store.Get(ctx, in.ConversationID)
	if err == session.ErrNotFound {
		conv = models.NewConversation(in.ConversationID, now)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	reply, procErr := e.process(ctx, conv, in)
	if reply == nil {
		reply = &Reply{}
	}

	conv.Record(models.Turn{
		Number:        conv.NextTurnNumber(),
		UserText:      in.Text,
		Intent:        in.Intent,
		Deltas:        in.Delta,
		AssistantText: reply.Text,
		SearchMode:    reply.mode,
		Timestamp:     now,
	})

	if saveErr := e.store.Save(ctx, conv); saveErr != nil {
		e.logger.Error("Failed to save conversation", map[string]interface{}{
			"conversation_id": conv.ID,
			"error":           saveErr.Error(),
		})
	}

	outcome := "answered"
	if reply.ErrorCode != "" {
		outcome = "failed"
	} else if len(reply.Offers) > 0 {
		outcome = "offers"
	} else if reply.Question {
		outcome = "question"
	}
	metrics.TurnsProcessed.WithLabelValues(outcome).Inc()
	if e.obs != nil {
		e.obs.RecordTurnProcessed(ctx, outcome)
		e.obs.RecordTurnDuration(ctx, time.Since(now), outcome)
	}

	return reply, procErr
}

// process holds the per-turn decision chain. It always returns a reply;
// the error is non-nil only for hard upstream failures that the caller
// should also see.
func (e *Engine) process(ctx context.Context, conv *models.Conversation, in TurnInput) (*Reply, error) {
	// First contact gets a greeting unless the message already carries
	// search slots.
	if !conv.Greeted {
		conv.Greeted = true
		if in.Intent == models.IntentGreeting && (in.Delta == nil || !in.Delta.AffectsSearch()) {
			return &Reply{Text: dialogue.MsgGreeting, Question: true}, nil
		}
	}

	if in.Intent == models.IntentFAQ {
		return &Reply{Text: dialogue.MsgFAQ}, nil
	}

	if in.FetchMore {
		return e.fetchMore(ctx, conv)
	}

	// A pending disambiguation list must be resolved before anything else;
	// the engine never guesses between candidates.
	if len(conv.HotelCandidates) > 0 {
		if reply := e.resolveCandidate(conv, in); reply != nil {
			return reply, nil
		}
	}

	// A newer turn that changes any search-affecting slot invalidates the
	// in-flight request; its eventual result must never be shown.
	if in.Delta != nil && in.Delta.AffectsSearch() &&
		conv.Pending != nil && conv.Pending.State == models.RequestPending {
		conv.Pending.State = models.RequestAbandoned
		conv.Pending = nil
		metrics.SearchesAbandoned.Inc()
	}

	// Fallback proposals require explicit consent
	if conv.FallbackStep > 0 {
		if in.Confirm {
			if ApplyFallback(conv, e.searchCfg) {
				return e.executeSearch(ctx, conv, e.modeFor(conv))
			}
		}
		if in.Delta == nil || !in.Delta.AffectsSearch() {
			if !in.Confirm {
				// Declined: move to the next proposal in order
				if p := NextFallback(conv, e.searchCfg); p != nil {
					conv.FallbackStep = p.Step
					return &Reply{Text: p.Text, Question: true}, nil
				}
				conv.FallbackStep = 0
				return &Reply{Text: dialogue.MsgNothingFound}, nil
			}
		}
		conv.FallbackStep = 0
	}

	if in.Delta != nil {
		if err := e.cascade.Merge(&conv.Params, in.Delta, conv.ReferenceDate); err != nil {
			if commonerrors.CodeOf(err) == commonerrors.ErrCodeInvalidDate {
				return &Reply{Text: dialogue.MsgDateReask, Question: true}, nil
			}
			return nil, err
		}
	}

	decision := e.cascade.Next(&conv.Params, in.Intent)
	switch decision.Action {
	case dialogue.ActionAsk:
		conv.Stage = models.StageCollecting
		return &Reply{Text: decision.Question, Question: true}, nil

	case dialogue.ActionInvalidCountry:
		return &Reply{Text: dialogue.MsgInvalidCountry}, nil

	case dialogue.ActionEscalate:
		if err := e.notifier.EscalateGroup(ctx, conv); err != nil {
			e.logger.Error("Escalation delivery failed", map[string]interface{}{
				"conversation_id": conv.ID,
				"error":           err.Error(),
			})
		}
		return &Reply{Text: dialogue.MsgEscalation}, nil

	case dialogue.ActionProceed:
		conv.Stage = models.StageReadyToSearch
		return e.executeSearch(ctx, conv, decision.Mode)

	default:
		return nil, fmt.Errorf("unknown cascade action %q", decision.Action)
	}
}

func (e *Engine) modeFor(conv *models.Conversation) models.SearchMode {
	if len(conv.Params.HotelIDs) > 0 || conv.Params.HotelName != "" {
		return models.ModeStrict
	}
	return models.ModeBroad
}

// resolveCandidate matches the user's reply against the pending
// disambiguation list. Returns nil when resolution succeeded and the
// turn should continue into the cascade.
func (e *Engine) resolveCandidate(conv *models.Conversation, in TurnInput) *Reply {
	match := resolver.SelectCandidate(conv.HotelCandidates, in.Text, in.SelectedOption)
	if match == nil {
		return &Reply{Text: candidateListText(conv.HotelCandidates), Question: true}
	}

	conv.Params.HotelIDs = []int{match.HotelID}
	conv.Params.HotelName = match.Name
	conv.Params.SkipQualityCheck = true
	conv.HotelCandidates = nil
	return nil
}

func (e *Engine) executeSearch(ctx context.Context, conv *models.Conversation, mode models.SearchMode) (*Reply, error) {
	if mode == models.ModeHot {
		return e.executeHotSearch(ctx, conv)
	}

	country, err := e.api.FindCountry(ctx, conv.Params.Country)
	if err != nil {
		return e.searchErrorReply(err)
	}
	departure, err := e.api.FindDeparture(ctx, conv.Params.DepartureCity)
	if err != nil {
		if commonerrors.CodeOf(err) == commonerrors.ErrCodeUnknownDeparture {
			conv.Params.DepartureCity = ""
			return &Reply{Text: dialogue.QuestionFor(dialogue.SlotDeparture), Question: true}, nil
		}
		return e.searchErrorReply(err)
	}

	// A named but unresolved hotel goes through the resolver first
	if mode == models.ModeStrict && len(conv.Params.HotelIDs) == 0 {
		reply, err := e.resolveHotel(ctx, conv, country.ID.Int())
		if err != nil || reply != nil {
			return reply, err
		}
	}

	conv.Stage = models.StageSearching
	metrics.SearchesSubmitted.WithLabelValues(string(mode)).Inc()

	q := buildQuery(&conv.Params, departure.ID.Int(), country.ID.Int(), e.searchCfg, time.Now())
	hotels, err := e.searchWithRetry(ctx, conv, q)
	if err != nil {
		reply, rerr := e.searchErrorReply(err)
		reply.mode = mode
		return reply, rerr
	}
	if conv.Pending != nil {
		conv.Pending.Page = 1
	}

	offers := AssembleOffers(hotels, mode == models.ModeStrict)
	filtered := ApplyFilters(offers, &conv.Params, e.searchCfg)

	if len(filtered) == 0 {
		reply := e.emptyResultReply(conv)
		reply.mode = mode
		return reply, nil
	}

	conv.Stage = models.StagePresentingResults
	conv.FallbackStep = 0
	metrics.OffersReturned.Observe(float64(len(filtered)))

	return &Reply{
		Text:   offerSummary(len(filtered)),
		Offers: filtered,
		mode:   mode,
	}, nil
}

func (e *Engine) executeHotSearch(ctx context.Context, conv *models.Conversation) (*Reply, error) {
	departure, err := e.api.FindDeparture(ctx, conv.Params.DepartureCity)
	if err != nil {
		if commonerrors.CodeOf(err) == commonerrors.ErrCodeUnknownDeparture {
			conv.Params.DepartureCity = ""
			return &Reply{Text: dialogue.QuestionFor(dialogue.SlotDeparture), Question: true}, nil
		}
		return e.searchErrorReply(err)
	}

	countryID := 0
	if conv.Params.Country != "" {
		country, err := e.api.FindCountry(ctx, conv.Params.Country)
		if err != nil {
			return e.searchErrorReply(err)
		}
		countryID = country.ID.Int()
	}

	metrics.SearchesSubmitted.WithLabelValues(string(models.ModeHot)).Inc()

	tours, err := e.api.HotTours(ctx, departure.ID.Int(), countryID, e.searchCfg.HotTourItems)
	if err != nil {
		reply, rerr := e.searchErrorReply(err)
		reply.mode = models.ModeHot
		return reply, rerr
	}

	// Hot tours are quality-exempt; only volunteered filters apply
	hotParams := conv.Params
	hotParams.SkipQualityCheck = true
	filtered := ApplyFilters(AssembleHotOffers(tours), &hotParams, e.searchCfg)

	if len(filtered) == 0 {
		reply := e.emptyResultReply(conv)
		reply.mode = models.ModeHot
		return reply, nil
	}

	conv.Stage = models.StagePresentingResults
	metrics.OffersReturned.Observe(float64(len(filtered)))

	return &Reply{
		Text:   "Вот самые выгодные туры прямо сейчас:",
		Offers: filtered,
		mode:   models.ModeHot,
	}, nil
}

// resolveHotel runs the name lookup. A nil, nil return means a single
// match was found and the search should continue.
func (e *Engine) resolveHotel(ctx context.Context, conv *models.Conversation, countryID int) (*Reply, error) {
	result, err := e.resolver.Resolve(ctx, conv.Params.HotelName, countryID)
	if err != nil {
		return e.searchErrorReply(err)
	}

	switch result.Outcome {
	case resolver.OutcomeSingle:
		match := result.Matches[0]
		conv.Params.HotelIDs = []int{match.HotelID}
		conv.Params.HotelName = match.Name
		conv.Params.SkipQualityCheck = true
		return nil, nil

	case resolver.OutcomeAmbiguous:
		conv.HotelCandidates = result.Matches
		conv.Stage = models.StageAwaitingSelection
		return &Reply{Text: candidateListText(result.Matches), Question: true}, nil

	default:
		return &Reply{Text: dialogue.MsgHotelNotFound, Question: true}, nil
	}
}

// fetchMore pages through an already completed search.
func (e *Engine) fetchMore(ctx context.Context, conv *models.Conversation) (*Reply, error) {
	if conv.Pending == nil || conv.Pending.State != models.RequestReady {
		return &Reply{Text: dialogue.MsgNoMoreOffers}, nil
	}

	page := conv.Pending.Page + 1
	hotels, err := e.api.FetchResults(ctx, conv.Pending.RequestID, page, 25)
	if err != nil {
		return e.searchErrorReply(err)
	}
	conv.Pending.Page = page

	mode := models.ModeBroad
	strict := len(conv.Params.HotelIDs) > 0
	if strict {
		mode = models.ModeStrict
	}
	filtered := ApplyFilters(AssembleOffers(hotels, strict), &conv.Params, e.searchCfg)
	if len(filtered) == 0 {
		return &Reply{Text: dialogue.MsgNoMoreOffers, mode: mode}, nil
	}

	metrics.OffersReturned.Observe(float64(len(filtered)))
	return &Reply{Text: "Ещё варианты:", Offers: filtered, mode: mode}, nil
}

// emptyResultReply advances the fallback plan by exactly one proposal.
func (e *Engine) emptyResultReply(conv *models.Conversation) *Reply {
	if p := NextFallback(conv, e.searchCfg); p != nil {
		conv.FallbackStep = p.Step
		return &Reply{Text: p.Text, Question: true}
	}
	conv.FallbackStep = 0
	return &Reply{Text: dialogue.MsgNothingFound}
}

// searchErrorReply converts the error taxonomy into user-visible text.
// Every terminal error produces a message; nothing silently aborts.
func (e *Engine) searchErrorReply(err error) (*Reply, error) {
	code := commonerrors.CodeOf(err)
	metrics.SearchesFailed.WithLabelValues(string(code)).Inc()

	switch code {
	case commonerrors.ErrCodeInvalidCountry:
		return &Reply{Text: dialogue.MsgInvalidCountry}, nil
	case commonerrors.ErrCodeSearchTimeout, commonerrors.ErrCodeSearchFailed:
		return &Reply{Text: dialogue.MsgSearchApology}, nil
	case commonerrors.ErrCodeUpstreamUnavailable:
		// The only error surfaced to the caller as a hard failure
		return &Reply{Text: dialogue.MsgUpstreamDown, ErrorCode: string(code)}, err
	default:
		e.logger.Error("Unclassified search error", map[string]interface{}{
			"error": err.Error(),
		})
		return &Reply{Text: dialogue.MsgSearchApology, ErrorCode: string(code)}, nil
	}
}

func candidateListText(candidates []models.HotelMatch) string {
	var b strings.Builder
	b.WriteString("Нашлось несколько отелей, уточните какой:\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s %s", i+1, c.Name, StarGlyphs(c.Stars))
		if c.Region != "" {
			fmt.Fprintf(&b, " (%s)", c.Region)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func offerSummary(n int) string {
	return fmt.Sprintf("Нашёл для вас %d %s по лучшей цене:", n, offersWord(n))
}

func offersWord(n int) string {
	switch {
	case n%10 == 1 && n%100 != 11:
		return "вариант"
	case n%10 >= 2 && n%10 <= 4 && (n%100 < 10 || n%100 >= 20):
		return "варианта"
	default:
		return "вариантов"
	}
}
