package gncoleta

import (
	"context"

	"github.com/gnames/gncoleta/internal/ent/loader"
	"github.com/gnames/gncoleta/pkg/config"
	"github.com/gnames/gncoleta/pkg/ent/envelope"
	"github.com/gnames/gncoleta/pkg/ent/model"
	"github.com/gnames/gncoleta/pkg/ent/store"
)

// GNcoleta keeps the taxonomy, field collections and identification
// suggestions of one session, and runs the suggestion workflow over them.
type GNcoleta interface {
	// Families returns the store of families.
	Families() store.Families

	// Genera returns the store of genera.
	Genera() store.Genera

	// Species returns the store of species.
	Species() store.SpeciesSet

	// Collections returns the store of collections. Accepted suggestions
	// reach collections only through UpdateSuggestionStatus.
	Collections() store.Collections

	// Suggestions returns the store of suggestions. Status changes go
	// through UpdateSuggestionStatus.
	Suggestions() store.Suggestions

	// Resolve applies a selection of a taxon at the given level to the
	// current triple and returns the consistent result. Id zero clears the
	// level and the levels below it.
	Resolve(cur model.Triple, level model.Level, id int) envelope.Envelope[model.Triple]

	// Identify sets the species of a collection together with its genus
	// and family.
	Identify(collectionID, speciesID int) envelope.Envelope[model.Collection]

	// SubmitSuggestion stores a new pending suggestion and notifies the
	// collector.
	SubmitSuggestion(model.Suggestion) envelope.Envelope[model.Suggestion]

	// UpdateSuggestionStatus moves a suggestion to a new status. When the
	// suggestion becomes accepted, its taxon is copied into the target
	// collection. If the copy fails the suggestion stays accepted, the
	// result carries the failure status and the StatusChange payload
	// explains what happened.
	UpdateSuggestionStatus(
		id int,
		status model.SuggestionStatus,
	) envelope.Envelope[model.StatusChange]

	// Load imports data with the given loader.
	Load(context.Context, loader.Loader) (loader.Report, error)

	// Config returns the configuration of the instance.
	Config() config.Config
}
