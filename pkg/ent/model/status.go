package model

import (
	"encoding/json"
	"fmt"
)

// SuggestionStatus is the state of a Suggestion.
type SuggestionStatus string

const (
	StatusPending     SuggestionStatus = "pending"
	StatusAccepted    SuggestionStatus = "accepted"
	StatusRejected    SuggestionStatus = "rejected"
	StatusUnderReview SuggestionStatus = "under_review"
)

// transitions lists the allowed moves out of each non-terminal state.
// under_review may still end in either terminal state.
var transitions = map[SuggestionStatus][]SuggestionStatus{
	StatusPending:     {StatusAccepted, StatusRejected, StatusUnderReview},
	StatusUnderReview: {StatusAccepted, StatusRejected},
}

// NewSuggestionStatus parses a status, returns an error for unknown
// values.
func NewSuggestionStatus(s string) (SuggestionStatus, error) {
	st := SuggestionStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown suggestion status %q", s)
	}
	return st, nil
}

// Valid is true for the four defined statuses.
func (s SuggestionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusUnderReview:
		return true
	}
	return false
}

// IsTerminal is true for accepted and rejected.
func (s SuggestionStatus) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// CanTransition reports whether a suggestion may move from s to next.
// Staying in the same state is not a transition and returns false.
func (s SuggestionStatus) CanTransition(next SuggestionStatus) bool {
	for _, v := range transitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

// UnmarshalJSON rejects unknown statuses, so a stored suggestion can only
// hold one of the defined values.
func (s *SuggestionStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	st, err := NewSuggestionStatus(str)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
