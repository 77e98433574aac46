// Package resolver keeps family/genus/species selections mutually
// consistent. All functions are pure: they read the hierarchy through a
// Lookup and return a new triple without side effects.
package resolver

import (
	"errors"
	"fmt"

	"github.com/gnames/gncoleta/pkg/ent/model"
)

var (
	// ErrUnknownTaxon is returned when a selected id does not resolve to a
	// live record.
	ErrUnknownTaxon = errors.New("unknown taxon")

	// ErrInconsistent is returned by Consistent when levels of a triple do
	// not belong to each other.
	ErrInconsistent = errors.New("inconsistent taxonomy")
)

// Lookup resolves parents of taxa. Deleted records are reported as absent.
type Lookup interface {
	// FamilyExists is true for a live family.
	FamilyExists(id int) bool

	// GenusFamily returns the family of a live genus.
	GenusFamily(genusID int) (int, bool)

	// SpeciesGenus returns the genus of a live species.
	SpeciesGenus(speciesID int) (int, bool)
}

// Selection is a choice of one taxon at one level. ID zero clears the
// level and everything below it.
type Selection struct {
	Level model.Level
	ID    int
}

// Cascade applies a selection to the current triple.
//
// A species fixes its genus and family. A genus fixes its family and
// keeps the current species only if it belongs to that genus. A family
// keeps the current genus (and its species) only if the genus belongs to
// that family.
func Cascade(l Lookup, cur model.Triple, sel Selection) (model.Triple, error) {
	switch sel.Level {
	case model.LevelSpecies:
		return selectSpecies(l, cur, sel.ID)
	case model.LevelGenus:
		return selectGenus(l, cur, sel.ID)
	case model.LevelFamily:
		return selectFamily(l, cur, sel.ID)
	default:
		return cur, fmt.Errorf("cannot select %s", sel.Level)
	}
}

func selectSpecies(l Lookup, cur model.Triple, id int) (model.Triple, error) {
	if id == 0 {
		cur.SpeciesID = 0
		return cur, nil
	}
	genusID, ok := l.SpeciesGenus(id)
	if !ok {
		return cur, fmt.Errorf("species %d: %w", id, ErrUnknownTaxon)
	}
	familyID, ok := l.GenusFamily(genusID)
	if !ok {
		return cur, fmt.Errorf("genus %d of species %d: %w", genusID, id, ErrUnknownTaxon)
	}
	return model.Triple{FamilyID: familyID, GenusID: genusID, SpeciesID: id}, nil
}

func selectGenus(l Lookup, cur model.Triple, id int) (model.Triple, error) {
	if id == 0 {
		return model.Triple{FamilyID: cur.FamilyID}, nil
	}
	familyID, ok := l.GenusFamily(id)
	if !ok {
		return cur, fmt.Errorf("genus %d: %w", id, ErrUnknownTaxon)
	}
	res := model.Triple{FamilyID: familyID, GenusID: id}
	if cur.SpeciesID != 0 {
		if g, ok := l.SpeciesGenus(cur.SpeciesID); ok && g == id {
			res.SpeciesID = cur.SpeciesID
		}
	}
	return res, nil
}

func selectFamily(l Lookup, cur model.Triple, id int) (model.Triple, error) {
	if id == 0 {
		return model.Triple{}, nil
	}
	if !l.FamilyExists(id) {
		return cur, fmt.Errorf("family %d: %w", id, ErrUnknownTaxon)
	}
	res := model.Triple{FamilyID: id}
	if cur.GenusID == 0 {
		return res, nil
	}
	if f, ok := l.GenusFamily(cur.GenusID); !ok || f != id {
		return res, nil
	}
	res.GenusID = cur.GenusID
	if cur.SpeciesID != 0 {
		if g, ok := l.SpeciesGenus(cur.SpeciesID); ok && g == cur.GenusID {
			res.SpeciesID = cur.SpeciesID
		}
	}
	return res, nil
}

// Merge applies the set levels of proposed to cur from the top down, so
// the most specific proposed level wins. Unset levels of proposed leave
// cur untouched unless a higher selection clears them.
func Merge(l Lookup, cur, proposed model.Triple) (model.Triple, error) {
	var err error
	res := cur
	for _, lvl := range []model.Level{
		model.LevelFamily, model.LevelGenus, model.LevelSpecies,
	} {
		id := proposed.Get(lvl)
		if id == 0 {
			continue
		}
		res, err = Cascade(l, res, Selection{Level: lvl, ID: id})
		if err != nil {
			return cur, err
		}
	}
	return res, nil
}

// Normalize returns the consistent form of a possibly partial triple.
func Normalize(l Lookup, t model.Triple) (model.Triple, error) {
	return Merge(l, model.Triple{}, t)
}

// Consistent checks that every set level resolves to a live taxon and
// that the levels belong to each other. An empty triple is consistent.
func Consistent(l Lookup, t model.Triple) error {
	if t.SpeciesID != 0 {
		genusID, ok := l.SpeciesGenus(t.SpeciesID)
		if !ok {
			return fmt.Errorf("species %d: %w", t.SpeciesID, ErrUnknownTaxon)
		}
		if genusID != t.GenusID {
			return fmt.Errorf(
				"species %d belongs to genus %d, not %d: %w",
				t.SpeciesID, genusID, t.GenusID, ErrInconsistent,
			)
		}
	}
	if t.GenusID != 0 {
		familyID, ok := l.GenusFamily(t.GenusID)
		if !ok {
			return fmt.Errorf("genus %d: %w", t.GenusID, ErrUnknownTaxon)
		}
		if familyID != t.FamilyID {
			return fmt.Errorf(
				"genus %d belongs to family %d, not %d: %w",
				t.GenusID, familyID, t.FamilyID, ErrInconsistent,
			)
		}
	}
	if t.FamilyID != 0 && !l.FamilyExists(t.FamilyID) {
		return fmt.Errorf("family %d: %w", t.FamilyID, ErrUnknownTaxon)
	}
	return nil
}
