package models

import "time"

// Turn is one completed exchange. Immutable once recorded.
type Turn struct {
	Number        int        `json:"number"`
	UserText      string     `json:"user_text"`
	Intent        Intent     `json:"intent,omitempty"`
	Deltas        *SlotDelta `json:"deltas,omitempty"`
	AssistantText string     `json:"assistant_text"`
	SearchMode    SearchMode `json:"search_mode,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Conversation is the per-conversation context object. Every component
// receives it explicitly; there is no ambient shared dialogue state.
type Conversation struct {
	ID     string        `json:"id"`
	Turns  []Turn        `json:"turns"`
	Params SearchParams  `json:"params"`
	Stage  DialogueStage `json:"stage"`

	Greeted bool `json:"greeted"`

	// ReferenceDate anchors relative date phrases ("in N days"). Set on
	// conversation creation.
	ReferenceDate time.Time `json:"reference_date"`

	// HotelCandidates holds an unresolved disambiguation set; while
	// non-empty the engine must re-ask, never guess.
	HotelCandidates []HotelMatch `json:"hotel_candidates,omitempty"`

	// FallbackStep tracks which fallback proposals were already offered
	// (0 = none, 1 = date widen, 2 = alternate city, 3 = alternate country).
	FallbackStep int `json:"fallback_step"`

	// Pending is the in-flight async search request, if any.
	Pending *SearchRequest `json:"pending,omitempty"`

	LastActive time.Time `json:"last_active"`
}

// NewConversation creates an empty conversation anchored at now.
func NewConversation(id string, now time.Time) *Conversation {
	return &Conversation{
		ID:            id,
		Stage:         StageCollecting,
		ReferenceDate: now,
		LastActive:    now,
	}
}

// NextTurnNumber returns the monotonic number for the turn being processed.
func (c *Conversation) NextTurnNumber() int {
	return len(c.Turns) + 1
}

// Record appends a completed turn and bumps activity.
func (c *Conversation) Record(t Turn) {
	c.Turns = append(c.Turns, t)
	c.LastActive = t.Timestamp
}
