// Package model contains the entities of the collection core: the
// taxonomic hierarchy (Family, Genus, Species), field collections and
// identification suggestions.
package model

import "time"

// Base contains fields shared by all entities.
type Base struct {
	// ID is assigned on creation and never changes. Ids start at 1, so
	// zero is used for "no reference" in optional id fields.
	ID int `json:"id"`

	// CreatedAt is set on creation.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is set on creation and on every mutation.
	UpdatedAt time.Time `json:"updated_at"`

	// Deleted is a tombstone. Deleted records are excluded from reads but
	// stay in storage.
	Deleted bool `json:"deleted"`
}

// Identity returns the base of an entity. It lets generic storage access
// the shared fields.
func (b *Base) Identity() *Base {
	return b
}

// Family is the top level of the taxonomic hierarchy.
type Family struct {
	Base

	// Name of the family, for example "Fabaceae".
	Name string `json:"name"`

	// Description is an optional free-form text.
	Description string `json:"description,omitempty"`

	// NameID is a UUID v5 generated from the normalized name.
	NameID string `json:"name_id"`
}

// Genus belongs to exactly one Family.
type Genus struct {
	Base

	// Name of the genus, for example "Mimosa".
	Name string `json:"name"`

	// FamilyID must reference a live Family.
	FamilyID int `json:"family_id"`

	// NameID is a UUID v5 generated from the normalized name.
	NameID string `json:"name_id"`
}

// Species belongs to exactly one Genus. Descriptive fields are opaque to
// the consistency logic.
type Species struct {
	Base

	// Name is the scientific name as entered, for example
	// "Mimosa pudica L.".
	Name string `json:"name"`

	// Canonical is the canonical form of Name without authorship.
	Canonical string `json:"canonical,omitempty"`

	// NameID is a UUID v5 generated from the canonical form.
	NameID string `json:"name_id"`

	// CommonName is a vernacular name.
	CommonName string `json:"common_name,omitempty"`

	// GenusID must reference a live Genus.
	GenusID int `json:"genus_id"`

	Habitat            string `json:"habitat,omitempty"`
	Distribution       string `json:"distribution,omitempty"`
	ConservationStatus string `json:"conservation_status,omitempty"`
}

// Collection (coleta) is a specimen collected in a field.
type Collection struct {
	Base
	Triple

	// Name is a label given by the collector.
	Name string `json:"name"`

	// FieldID references the field where the specimen was collected.
	FieldID int `json:"field_id"`

	// CollectorID is the user who created the record.
	CollectorID int `json:"collector_id,omitempty"`

	// CollectionDate is the date of collection.
	CollectionDate time.Time `json:"collection_date"`

	// CommonName is a vernacular name given to the specimen.
	CommonName string `json:"common_name,omitempty"`

	// Identified is derived from the triple: always true with a species,
	// always false without any taxon.
	Identified bool `json:"identified"`

	// Images are references to pictures of the specimen.
	Images []string `json:"images,omitempty"`

	// Notes are free-form remarks.
	Notes string `json:"notes,omitempty"`

	// RequestsHelp asks peers to suggest an identification.
	RequestsHelp bool `json:"requests_help"`
}

// Suggestion is a peer-submitted identification for a Collection.
type Suggestion struct {
	Base

	// Triple is the suggested classification.
	Triple

	// CollectionID is the target collection.
	CollectionID int `json:"collection_id"`

	// SuggesterID is the user who made the suggestion.
	SuggesterID int `json:"suggester_id"`

	// CommonNameSuggested is an optional vernacular name.
	CommonNameSuggested string `json:"common_name_suggested,omitempty"`

	// Justification explains the suggestion, it is required.
	Justification string `json:"justification"`

	// Confidence is an integer from 1 to 5.
	Confidence int `json:"confidence"`

	// Status is the state of the suggestion workflow.
	Status SuggestionStatus `json:"status"`

	// ExtraNotes are optional remarks.
	ExtraNotes string `json:"extra_notes,omitempty"`
}

// Confidence limits of a Suggestion.
const (
	MinConfidence = 1
	MaxConfidence = 5
)
