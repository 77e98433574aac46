package model

import "fmt"

// Level is a rank of the taxonomic hierarchy.
type Level int

const (
	LevelFamily Level = iota + 1
	LevelGenus
	LevelSpecies
)

func (l Level) String() string {
	switch l {
	case LevelFamily:
		return "family"
	case LevelGenus:
		return "genus"
	case LevelSpecies:
		return "species"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Triple is a family/genus/species selection. Zero means "not set".
type Triple struct {
	FamilyID  int `json:"family_id,omitempty"`
	GenusID   int `json:"genus_id,omitempty"`
	SpeciesID int `json:"species_id,omitempty"`
}

// IsEmpty is true when no level is set.
func (t Triple) IsEmpty() bool {
	return t.FamilyID == 0 && t.GenusID == 0 && t.SpeciesID == 0
}

// Get returns the id at a level.
func (t Triple) Get(l Level) int {
	switch l {
	case LevelFamily:
		return t.FamilyID
	case LevelGenus:
		return t.GenusID
	case LevelSpecies:
		return t.SpeciesID
	}
	return 0
}

// Label formats the triple as (family,genus,species) for messages.
func (t Triple) Label() string {
	return fmt.Sprintf("(%d,%d,%d)", t.FamilyID, t.GenusID, t.SpeciesID)
}
