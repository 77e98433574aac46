// Package workflow declares store capabilities reserved for the suggestion
// workflow. They are kept off the public store contracts so that status
// changes and their propagation cannot diverge.
package workflow

import (
	"github.com/gnames/gncoleta/pkg/ent/envelope"
	"github.com/gnames/gncoleta/pkg/ent/model"
	"github.com/gnames/gncoleta/pkg/ent/store"
)

// CollectionWriter adds acceptance propagation to a collection store.
type CollectionWriter interface {
	store.Collections

	// ApplyAcceptedSuggestion merges a suggested triple and common name
	// into a collection. Unset levels mean "no change" unless a higher
	// level invalidates them. Identified is set only when the species is
	// suggested. Applying the same suggestion twice has no further effect.
	ApplyAcceptedSuggestion(
		collectionID int,
		proposed model.Triple,
		commonName string,
	) envelope.Envelope[model.Collection]
}

// SuggestionWriter adds status transitions to a suggestion store.
type SuggestionWriter interface {
	store.Suggestions

	// SetStatus moves a suggestion to a new status following the state
	// machine. Requesting the current status changes nothing.
	SetStatus(id int, status model.SuggestionStatus) envelope.Envelope[model.StatusChange]
}
