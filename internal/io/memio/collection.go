package memio

import (
	"errors"
	"strings"
	"sync"

	"github.com/gnames/gncoleta/internal/ent/metric"
	"github.com/gnames/gncoleta/internal/ent/namer"
	"github.com/gnames/gncoleta/internal/ent/resolver"
	"github.com/gnames/gncoleta/pkg/ent/envelope"
	"github.com/gnames/gncoleta/pkg/ent/model"
)

type collections struct {
	mu    sync.RWMutex
	tbl   *table[model.Collection, *model.Collection]
	tax   *taxonomy
	names namer.Normalizer
	rec   metric.Recorder
}

func newCollections(s settings, tax *taxonomy) *collections {
	return &collections{
		tbl:   newTable[model.Collection, *model.Collection](s.now, cloneCollection),
		tax:   tax,
		names: s.names,
		rec:   s.rec,
	}
}

func cloneCollection(c model.Collection) model.Collection {
	if c.Images != nil {
		c.Images = append([]string(nil), c.Images...)
	}
	return c
}

// deriveIdentified keeps Identified in line with the triple. A triple with
// only family or genus keeps whatever the caller decided.
func deriveIdentified(c *model.Collection) {
	switch {
	case c.SpeciesID != 0:
		c.Identified = true
	case c.IsEmpty():
		c.Identified = false
	}
}

func (s *collections) prep(c *model.Collection) {
	c.Name = s.names.Text(c.Name)
	c.CommonName = s.names.Text(c.CommonName)
	c.Notes = strings.TrimSpace(c.Notes)
	deriveIdentified(c)
}

func (s *collections) check(c *model.Collection) *envelope.Error {
	if c.Name == "" {
		return envelope.NewError(envelope.KindValidation, "collection name is required")
	}
	if c.FieldID <= 0 {
		return envelope.NewError(envelope.KindValidation,
			"collection %q needs a field", c.Name)
	}
	if err := resolver.Consistent(s.tax, c.Triple); err != nil {
		return envelope.NewError(envelope.KindInvariant,
			"collection %q: %s", c.Name, err)
	}
	return nil
}

// Add stores a new collection.
func (s *collections) Add(c model.Collection) (res envelope.Envelope[model.Collection]) {
	op := "collection.add"
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prep(&c)
	if err := s.check(&c); err != nil {
		return envelope.FromError[model.Collection](err)
	}
	return envelope.Created(s.tbl.insert(c))
}

// Update replaces a live collection. The whole record is validated again,
// partial patches are not supported.
func (s *collections) Update(c model.Collection) (res envelope.Envelope[model.Collection]) {
	op := "collection.update"
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tbl.get(c.ID); !ok {
		return envelope.NotFound[model.Collection]("collection %d not found", c.ID)
	}
	s.prep(&c)
	if err := s.check(&c); err != nil {
		return envelope.FromError[model.Collection](err)
	}
	updated, _ := s.tbl.replace(c.ID, c)
	return envelope.OK(updated)
}

// Delete sets the tombstone of a collection.
func (s *collections) Delete(id int) (res envelope.Envelope[model.Collection]) {
	op := "collection.delete"
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.tbl.remove(id)
	if !ok {
		return envelope.NotFound[model.Collection]("collection %d not found", id)
	}
	return envelope.OK(c)
}

// GetByID returns a live collection.
func (s *collections) GetByID(id int) (res envelope.Envelope[model.Collection]) {
	op := "collection.get_by_id"
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.tbl.get(id)
	if !ok {
		return envelope.NotFound[model.Collection]("collection %d not found", id)
	}
	return envelope.OK(c)
}

// Inspect returns a collection even if it is deleted.
func (s *collections) Inspect(id int) (res envelope.Envelope[model.Collection]) {
	op := "collection.inspect"
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.tbl.raw(id)
	if !ok {
		return envelope.NotFound[model.Collection]("collection %d does not exist", id)
	}
	return envelope.OK(c)
}

func (s *collections) query(op, what string, filter func(*model.Collection) bool) (res envelope.Envelope[[]model.Collection]) {
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return list(s.tbl.active(filter), what)
}

// GetAll returns live collections.
func (s *collections) GetAll() envelope.Envelope[[]model.Collection] {
	return s.query("collection.get_all", "collections", nil)
}

// GetByFieldID returns live collections of a field.
func (s *collections) GetByFieldID(fieldID int) envelope.Envelope[[]model.Collection] {
	return s.query("collection.get_by_field_id", "collections for the field",
		func(c *model.Collection) bool { return c.FieldID == fieldID })
}

// GetIdentified returns live identified collections.
func (s *collections) GetIdentified() envelope.Envelope[[]model.Collection] {
	return s.query("collection.get_identified", "identified collections",
		func(c *model.Collection) bool { return c.Identified })
}

// GetUnidentified returns live collections that are not identified.
func (s *collections) GetUnidentified() envelope.Envelope[[]model.Collection] {
	return s.query("collection.get_unidentified", "unidentified collections",
		func(c *model.Collection) bool { return !c.Identified })
}

// GetRequestingHelp returns live collections that ask for identification
// help.
func (s *collections) GetRequestingHelp() envelope.Envelope[[]model.Collection] {
	return s.query("collection.get_requesting_help", "collections requesting help",
		func(c *model.Collection) bool { return c.RequestsHelp })
}

// Identify sets the species of a collection and the genus and family it
// belongs to.
func (s *collections) Identify(id, speciesID int) (res envelope.Envelope[model.Collection]) {
	op := "collection.identify"
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.tbl.get(id)
	if !ok {
		return envelope.NotFound[model.Collection]("collection %d not found", id)
	}
	if speciesID <= 0 {
		return envelope.Invalid[model.Collection]("species is required to identify collection %d", id)
	}
	t, err := resolver.Cascade(s.tax, c.Triple, resolver.Selection{
		Level: model.LevelSpecies,
		ID:    speciesID,
	})
	if err != nil {
		return envelope.NotFound[model.Collection]("cannot identify collection %d: %s", id, err)
	}
	c.Triple = t
	c.Identified = true
	updated, _ := s.tbl.replace(id, c)
	return envelope.OK(updated)
}

// ApplyAcceptedSuggestion merges an accepted suggestion into a collection.
// Identified is set only by a suggested species. A family or genus
// suggestion that clears the species leaves Identified as it was.
func (s *collections) ApplyAcceptedSuggestion(
	id int,
	proposed model.Triple,
	commonName string,
) (res envelope.Envelope[model.Collection]) {
	op := "collection.apply_accepted_suggestion"
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.tbl.get(id)
	if !ok {
		return envelope.NotFound[model.Collection]("collection %d not found", id)
	}
	if proposed.IsEmpty() {
		return envelope.Invalid[model.Collection]("suggestion for collection %d has no taxon", id)
	}

	t, err := resolver.Merge(s.tax, c.Triple, proposed)
	if err != nil {
		if errors.Is(err, resolver.ErrUnknownTaxon) {
			return envelope.Violation[model.Collection](
				"cannot apply suggestion to collection %d: %s", id, err)
		}
		return envelope.Internal[model.Collection](err)
	}
	if err = resolver.Consistent(s.tax, t); err != nil {
		return envelope.Violation[model.Collection](
			"suggestion would leave collection %d inconsistent: %s", id, err)
	}

	c.Triple = t
	if proposed.SpeciesID != 0 {
		c.Identified = true
	}
	if cn := s.names.Text(commonName); cn != "" {
		c.CommonName = cn
	}
	updated, _ := s.tbl.replace(id, c)
	return envelope.OK(updated)
}
