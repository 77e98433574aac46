// Package store declares the public contracts of the core stores. Every
// operation returns an envelope, reads never include soft-deleted records
// unless stated otherwise.
package store

import (
	"github.com/gnames/gncoleta/pkg/ent/envelope"
	"github.com/gnames/gncoleta/pkg/ent/model"
)

// Reader is the read side shared by all stores.
type Reader[T any] interface {
	// GetAll returns live records, or 404 when there are none.
	GetAll() envelope.Envelope[[]T]

	// GetByID returns a live record, or 404.
	GetByID(id int) envelope.Envelope[T]

	// Inspect returns a record even if it is soft-deleted. It is meant for
	// integrity checks, not for regular reads.
	Inspect(id int) envelope.Envelope[T]
}

// Taxa is the contract of one level of the taxonomic hierarchy.
type Taxa[T any] interface {
	Reader[T]

	// Add validates and stores a new record, returns 201.
	Add(T) envelope.Envelope[T]

	// Update replaces a live record keeping its id and creation time.
	Update(T) envelope.Envelope[T]

	// Delete marks a record as deleted. Children are not touched.
	Delete(id int) envelope.Envelope[T]

	// FindByName returns live records with the same normalized name.
	FindByName(name string) envelope.Envelope[[]T]
}

// Families keeps the top level of the hierarchy.
type Families interface {
	Taxa[model.Family]
}

// Genera keeps genera.
type Genera interface {
	Taxa[model.Genus]

	// GetByFamily returns live genera of a family, or 404.
	GetByFamily(familyID int) envelope.Envelope[[]model.Genus]
}

// SpeciesSet keeps species.
type SpeciesSet interface {
	Taxa[model.Species]

	// GetByGenus returns live species of a genus, or 404.
	GetByGenus(genusID int) envelope.Envelope[[]model.Species]
}

// Collections keeps field collections. Acceptance of a suggestion is not
// part of this contract, it goes through the workflow coordinator.
type Collections interface {
	Reader[model.Collection]

	Add(model.Collection) envelope.Envelope[model.Collection]
	Update(model.Collection) envelope.Envelope[model.Collection]
	Delete(id int) envelope.Envelope[model.Collection]

	GetByFieldID(fieldID int) envelope.Envelope[[]model.Collection]
	GetIdentified() envelope.Envelope[[]model.Collection]
	GetUnidentified() envelope.Envelope[[]model.Collection]
	GetRequestingHelp() envelope.Envelope[[]model.Collection]

	// Identify sets the species of a collection, together with its genus
	// and family.
	Identify(id, speciesID int) envelope.Envelope[model.Collection]
}

// Suggestions keeps identification suggestions. Status changes go through
// the workflow coordinator.
type Suggestions interface {
	Reader[model.Suggestion]

	// Add stores a new pending suggestion.
	Add(model.Suggestion) envelope.Envelope[model.Suggestion]

	// Update edits a suggestion that is still pending.
	Update(model.Suggestion) envelope.Envelope[model.Suggestion]

	Delete(id int) envelope.Envelope[model.Suggestion]

	GetByCollectionID(collectionID int) envelope.Envelope[[]model.Suggestion]
	GetByUserID(userID int) envelope.Envelope[[]model.Suggestion]
	GetPending() envelope.Envelope[[]model.Suggestion]
}
