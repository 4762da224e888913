package models

// Intent is the tagged label produced by the external slot/intent extractor.
// The extractor never drives business rules; it only feeds the cascade.
type Intent string

const (
	IntentGreeting         Intent = "greeting"
	IntentParametricSearch Intent = "parametric_search"
	IntentSpecificHotel    Intent = "specific_hotel"
	IntentHotTours         Intent = "hot_tours"
	IntentFAQ              Intent = "faq"
	IntentInvalidCountry   Intent = "invalid_country"
)

// SearchMode selects how the orchestrator executes a dispatchable search.
type SearchMode string

const (
	ModeBroad  SearchMode = "broad"  // asynchronous parametric search
	ModeStrict SearchMode = "strict" // asynchronous search pinned to resolved hotel ids
	ModeHot    SearchMode = "hot"    // synchronous hot-tours call
)

// DialogueStage is the per-conversation phase. Transitions only move
// forward except on new disqualifying user input, which resets the
// affected slot back to collecting.
type DialogueStage string

const (
	StageCollecting        DialogueStage = "collecting"
	StageReadyToSearch     DialogueStage = "ready_to_search"
	StageSearching         DialogueStage = "searching"
	StagePresentingResults DialogueStage = "presenting_results"
	StageAwaitingSelection DialogueStage = "awaiting_selection"
)
