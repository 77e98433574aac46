// Package namer normalizes taxon names before they are stored.
package namer

import "github.com/gnames/gncoleta/pkg/ent/model"

// Name is the normalized form of a taxon name.
type Name struct {
	// Verbatim is the name as it was given.
	Verbatim string

	// Normalized is Verbatim with Unicode and whitespace normalized.
	Normalized string

	// Canonical is the canonical form without authorship, or Normalized
	// when the name could not be parsed.
	Canonical string

	// ID is a UUID v5 generated from Canonical.
	ID string

	// Cardinality is 1 for uninomials, 2 for binomials and so on, 0 when
	// the name was not parsed.
	Cardinality int

	// Parsed is true when the name was recognized as a scientific name.
	Parsed bool
}

// Normalizer creates normalized names.
type Normalizer interface {
	// Name normalizes a taxon name of the given level.
	Name(level model.Level, name string) Name

	// Names normalizes a batch of taxon names of the same level.
	Names(level model.Level, names []string) []Name

	// Text normalizes free text such as vernacular names.
	Text(s string) string
}
