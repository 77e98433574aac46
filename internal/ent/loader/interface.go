// Package loader imports taxonomy, collections and suggestions from CSV
// files into the stores.
package loader

import (
	"context"
	"io"

	"github.com/gnames/gncoleta/pkg/ent/envelope"
	"github.com/gnames/gncoleta/pkg/ent/model"
	"github.com/gnames/gncoleta/pkg/ent/store"
)

// Loader is the interface that wraps the Load method.
type Loader interface {
	// Load reads all sources into the target. Rows that cannot be stored
	// are reported, only read errors and cancellation stop the load.
	Load(ctx context.Context, t Target) (Report, error)
}

// Target is the destination of a load.
type Target interface {
	Families() store.Families
	Genera() store.Genera
	Species() store.SpeciesSet
	Collections() store.Collections
	Resolve(cur model.Triple, level model.Level, id int) envelope.Envelope[model.Triple]
	SubmitSuggestion(model.Suggestion) envelope.Envelope[model.Suggestion]
	UpdateSuggestionStatus(int, model.SuggestionStatus) envelope.Envelope[model.StatusChange]
}

// Sources are CSV inputs of a load. Any of them can be nil.
//
// Taxonomy columns: family, genus, species, common_name.
//
// Collections columns: name, field_id, collection_date (YYYY-MM-DD),
// family, genus, species, common_name, requests_help, notes. Taxa are
// given by name and must be present in the taxonomy.
//
// Suggestions columns: collection_id, suggester_id, family, genus,
// species, common_name, justification, confidence, status. A non-empty
// status other than pending is applied through the workflow after the
// suggestion is submitted.
type Sources struct {
	Taxonomy    io.Reader
	Collections io.Reader
	Suggestions io.Reader
}

// Rejection describes a row that was not stored.
type Rejection struct {
	// Source is "taxonomy", "collections" or "suggestions".
	Source string `json:"source"`

	// Line is the line number in the CSV file, the header is line 1.
	Line int `json:"line"`

	// Status is the envelope status returned by the store.
	Status int `json:"status"`

	Message string `json:"message"`
}

// Report summarizes a load.
type Report struct {
	Families    int `json:"families"`
	Genera      int `json:"genera"`
	Species     int `json:"species"`
	Collections int `json:"collections"`
	Suggestions int `json:"suggestions"`

	// Propagated counts accepted suggestions that reached their
	// collections.
	Propagated int `json:"propagated"`

	Rejected []Rejection `json:"rejected,omitempty"`
}
