package model

// StatusChange is the outcome of a suggestion status update.
type StatusChange struct {
	// Suggestion is the record after the update.
	Suggestion Suggestion `json:"suggestion"`

	// From is the status before the update.
	From SuggestionStatus `json:"from"`

	// Changed is false when the requested status was already set.
	Changed bool `json:"changed"`

	// Collection is the target collection after an accepted suggestion was
	// copied into it. It is nil when nothing was propagated.
	Collection *Collection `json:"collection,omitempty"`

	// PropagationError explains why an accepted suggestion did not reach
	// its collection. The suggestion stays accepted regardless.
	PropagationError string `json:"propagation_error,omitempty"`
}
