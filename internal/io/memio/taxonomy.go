package memio

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/gnames/gncoleta/internal/ent/metric"
	"github.com/gnames/gncoleta/internal/ent/namer"
	"github.com/gnames/gncoleta/pkg/ent/envelope"
	"github.com/gnames/gncoleta/pkg/ent/model"
	"github.com/gnames/gncoleta/pkg/ent/store"
)

// taxonomy owns the three levels of the hierarchy under one lock, so a
// parent check and the write that depends on it cannot interleave with
// another write.
type taxonomy struct {
	mu       sync.RWMutex
	families *table[model.Family, *model.Family]
	genera   *table[model.Genus, *model.Genus]
	species  *table[model.Species, *model.Species]
	names    namer.Normalizer
	rec      metric.Recorder
	trust    bool

	// stores that reference taxa, set by New.
	cols *collections
	sugs *suggestions
}

func newTaxonomy(s settings) *taxonomy {
	return &taxonomy{
		families: newTable[model.Family, *model.Family](s.now, nil),
		genera:   newTable[model.Genus, *model.Genus](s.now, nil),
		species:  newTable[model.Species, *model.Species](s.now, nil),
		names:    s.names,
		rec:      s.rec,
		trust:    s.trust,
	}
}

// lockRefs read-locks the stores that reference taxa. It has to be called
// before the taxonomy lock is taken.
func (t *taxonomy) lockRefs() func() {
	if t.sugs != nil {
		t.sugs.mu.RLock()
	}
	if t.cols != nil {
		t.cols.mu.RLock()
	}
	return func() {
		if t.cols != nil {
			t.cols.mu.RUnlock()
		}
		if t.sugs != nil {
			t.sugs.mu.RUnlock()
		}
	}
}

// referenced is true when a live collection or suggestion points to the
// genus or species. Locks from lockRefs must be held.
func (t *taxonomy) referenced(lvl model.Level, id int) bool {
	match := func(tr model.Triple) bool {
		switch lvl {
		case model.LevelGenus:
			return tr.GenusID == id
		case model.LevelSpecies:
			return tr.SpeciesID == id
		}
		return false
	}
	if t.cols != nil {
		cs := t.cols.tbl.active(func(c *model.Collection) bool { return match(c.Triple) })
		if len(cs) > 0 {
			return true
		}
	}
	if t.sugs != nil {
		sgs := t.sugs.tbl.active(func(sg *model.Suggestion) bool { return match(sg.Triple) })
		if len(sgs) > 0 {
			return true
		}
	}
	return false
}

// FamilyExists is true for a live family.
func (t *taxonomy) FamilyExists(id int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.families.get(id)
	return ok
}

// GenusFamily returns the family id of a live genus.
func (t *taxonomy) GenusFamily(id int) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	g, ok := t.genera.get(id)
	return g.FamilyID, ok
}

// SpeciesGenus returns the genus id of a live species.
func (t *taxonomy) SpeciesGenus(id int) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sp, ok := t.species.get(id)
	return sp.GenusID, ok
}

// level implements the operations shared by families, genera and species.
type level[T any, P entity[T]] struct {
	tax    *taxonomy
	tbl    *table[T, P]
	lvl    model.Level
	plural string
	nameID func(*T) string

	// parent returns the parent id, nil for families.
	parent func(*T) int

	// prep normalizes a record before validation.
	prep func(*T)

	// check validates a record, the taxonomy lock is held.
	check func(*T) *envelope.Error
}

func (l *level[T, P]) op(name string) string {
	return l.lvl.String() + "." + name
}

// GetAll returns live records.
func (l *level[T, P]) GetAll() (res envelope.Envelope[[]T]) {
	op := l.op("get_all")
	defer observe(l.tax.rec, op, &res)
	defer envelope.Recover(op, &res)

	l.tax.mu.RLock()
	defer l.tax.mu.RUnlock()
	return list(l.tbl.active(nil), l.plural)
}

// GetByID returns a live record.
func (l *level[T, P]) GetByID(id int) (res envelope.Envelope[T]) {
	op := l.op("get_by_id")
	defer observe(l.tax.rec, op, &res)
	defer envelope.Recover(op, &res)

	l.tax.mu.RLock()
	defer l.tax.mu.RUnlock()
	v, ok := l.tbl.get(id)
	if !ok {
		return envelope.NotFound[T]("%s %d not found", l.lvl, id)
	}
	return envelope.OK(v)
}

// Inspect returns a record even if it is deleted.
func (l *level[T, P]) Inspect(id int) (res envelope.Envelope[T]) {
	op := l.op("inspect")
	defer observe(l.tax.rec, op, &res)
	defer envelope.Recover(op, &res)

	l.tax.mu.RLock()
	defer l.tax.mu.RUnlock()
	v, ok := l.tbl.raw(id)
	if !ok {
		return envelope.NotFound[T]("%s %d does not exist", l.lvl, id)
	}
	return envelope.OK(v)
}

// Add stores a new record.
func (l *level[T, P]) Add(v T) (res envelope.Envelope[T]) {
	op := l.op("add")
	defer observe(l.tax.rec, op, &res)
	defer envelope.Recover(op, &res)

	l.tax.mu.Lock()
	defer l.tax.mu.Unlock()
	l.prep(&v)
	if err := l.check(&v); err != nil {
		return envelope.FromError[T](err)
	}
	return envelope.Created(l.tbl.insert(v))
}

// Update replaces a live record.
func (l *level[T, P]) Update(v T) (res envelope.Envelope[T]) {
	op := l.op("update")
	defer observe(l.tax.rec, op, &res)
	defer envelope.Recover(op, &res)

	if l.parent != nil {
		unlock := l.tax.lockRefs()
		defer unlock()
	}
	l.tax.mu.Lock()
	defer l.tax.mu.Unlock()
	id := P(&v).Identity().ID
	old, ok := l.tbl.get(id)
	if !ok {
		return envelope.NotFound[T]("%s %d not found", l.lvl, id)
	}
	l.prep(&v)
	if err := l.check(&v); err != nil {
		return envelope.FromError[T](err)
	}
	// Moving a referenced taxon would leave triples pointing to the old
	// parent.
	if l.parent != nil && l.parent(&old) != l.parent(&v) && l.tax.referenced(l.lvl, id) {
		return envelope.Violation[T](
			"%s %d is used by collections or suggestions, its parent cannot change", l.lvl, id)
	}
	updated, _ := l.tbl.replace(id, v)
	return envelope.OK(updated)
}

// Delete sets the tombstone of a record. Children keep their references.
func (l *level[T, P]) Delete(id int) (res envelope.Envelope[T]) {
	op := l.op("delete")
	defer observe(l.tax.rec, op, &res)
	defer envelope.Recover(op, &res)

	l.tax.mu.Lock()
	defer l.tax.mu.Unlock()
	v, ok := l.tbl.remove(id)
	if !ok {
		return envelope.NotFound[T]("%s %d not found", l.lvl, id)
	}
	return envelope.OK(v)
}

// FindByName returns live records whose normalized name matches.
func (l *level[T, P]) FindByName(name string) (res envelope.Envelope[[]T]) {
	op := l.op("find_by_name")
	defer observe(l.tax.rec, op, &res)
	defer envelope.Recover(op, &res)

	id := l.tax.names.Name(l.lvl, name).ID
	if id == "" {
		return envelope.Invalid[[]T]("%s name is empty", l.lvl)
	}

	l.tax.mu.RLock()
	defer l.tax.mu.RUnlock()
	items := l.tbl.active(func(v *T) bool {
		return l.nameID(v) == id
	})
	return list(items, l.plural+" named "+name)
}

func (l *level[T, P]) byParent(op string, parentID int, parent func(*T) int) (res envelope.Envelope[[]T]) {
	defer observe(l.tax.rec, op, &res)
	defer envelope.Recover(op, &res)

	l.tax.mu.RLock()
	defer l.tax.mu.RUnlock()
	items := l.tbl.active(func(v *T) bool {
		return parent(v) == parentID
	})
	return list(items, l.plural)
}

type genera struct {
	*level[model.Genus, *model.Genus]
}

// GetByFamily returns live genera of a family.
func (g genera) GetByFamily(familyID int) envelope.Envelope[[]model.Genus] {
	return g.byParent(g.op("get_by_family"), familyID, func(v *model.Genus) int {
		return v.FamilyID
	})
}

type species struct {
	*level[model.Species, *model.Species]
}

// GetByGenus returns live species of a genus.
func (s species) GetByGenus(genusID int) envelope.Envelope[[]model.Species] {
	return s.byParent(s.op("get_by_genus"), genusID, func(v *model.Species) int {
		return v.GenusID
	})
}

func (t *taxonomy) familyStore() store.Families {
	return &level[model.Family, *model.Family]{
		tax:    t,
		tbl:    t.families,
		lvl:    model.LevelFamily,
		plural: "families",
		nameID: func(f *model.Family) string { return f.NameID },
		prep: func(f *model.Family) {
			n := t.names.Name(model.LevelFamily, f.Name)
			f.Name = n.Normalized
			f.NameID = n.ID
			f.Description = t.names.Text(f.Description)
		},
		check: func(f *model.Family) *envelope.Error {
			if f.Name == "" {
				return envelope.NewError(envelope.KindValidation, "family name is required")
			}
			return nil
		},
	}
}

func (t *taxonomy) genusStore() store.Genera {
	return genera{&level[model.Genus, *model.Genus]{
		tax:    t,
		tbl:    t.genera,
		lvl:    model.LevelGenus,
		plural: "genera",
		nameID: func(g *model.Genus) string { return g.NameID },
		parent: func(g *model.Genus) int { return g.FamilyID },
		prep: func(g *model.Genus) {
			n := t.names.Name(model.LevelGenus, g.Name)
			g.Name = n.Normalized
			g.NameID = n.ID
		},
		check: func(g *model.Genus) *envelope.Error {
			if g.Name == "" {
				return envelope.NewError(envelope.KindValidation, "genus name is required")
			}
			if g.FamilyID <= 0 {
				return envelope.NewError(envelope.KindValidation,
					"genus %q needs a family", g.Name)
			}
			if t.trust {
				return nil
			}
			if _, ok := t.families.get(g.FamilyID); !ok {
				return envelope.NewError(envelope.KindInvariant,
					"family %d of genus %q does not exist", g.FamilyID, g.Name)
			}
			return nil
		},
	}}
}

func (t *taxonomy) speciesStore() store.SpeciesSet {
	return species{&level[model.Species, *model.Species]{
		tax:    t,
		tbl:    t.species,
		lvl:    model.LevelSpecies,
		plural: "species",
		nameID: func(sp *model.Species) string { return sp.NameID },
		parent: func(sp *model.Species) int { return sp.GenusID },
		prep: func(sp *model.Species) {
			n := t.names.Name(model.LevelSpecies, sp.Name)
			sp.Name = n.Normalized
			sp.Canonical = n.Canonical
			sp.NameID = n.ID
			sp.CommonName = t.names.Text(sp.CommonName)
		},
		check: func(sp *model.Species) *envelope.Error {
			if sp.Name == "" {
				return envelope.NewError(envelope.KindValidation, "species name is required")
			}
			if sp.GenusID <= 0 {
				return envelope.NewError(envelope.KindValidation,
					"species %q needs a genus", sp.Name)
			}
			g, ok := t.genera.get(sp.GenusID)
			if !ok {
				if t.trust {
					return nil
				}
				return envelope.NewError(envelope.KindInvariant,
					"genus %d of species %q does not exist", sp.GenusID, sp.Name)
			}
			if first, _, _ := strings.Cut(sp.Canonical, " "); first != g.Name {
				slog.Warn("Species name does not start with its genus",
					"species", sp.Name, "genus", g.Name)
			}
			return nil
		},
	}}
}
