package resolver_test

import (
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gnames/gncoleta/internal/ent/resolver"
	"github.com/gnames/gncoleta/pkg/ent/model"
)

// hierarchy is a fixed taxonomy:
// family 1: genus 4 (species 8)
// family 2: genus 3 (species 7, 6)
// family 9: genus 5 (no species)
type hierarchy struct {
	families map[int]bool
	genera   map[int]int
	species  map[int]int
}

func (h hierarchy) FamilyExists(id int) bool {
	return h.families[id]
}

func (h hierarchy) GenusFamily(id int) (int, bool) {
	f, ok := h.genera[id]
	return f, ok
}

func (h hierarchy) SpeciesGenus(id int) (int, bool) {
	g, ok := h.species[id]
	return g, ok
}

var lookup = hierarchy{
	families: map[int]bool{1: true, 2: true, 9: true},
	genera:   map[int]int{3: 2, 4: 1, 5: 9},
	species:  map[int]int{6: 3, 7: 3, 8: 4},
}

func sel(l model.Level, id int) resolver.Selection {
	return resolver.Selection{Level: l, ID: id}
}

var _ = Describe("Cascade", func() {
	It("infers genus and family from a species", func() {
		cur := model.Triple{FamilyID: 1, GenusID: 4, SpeciesID: 8}
		res, err := resolver.Cascade(lookup, cur, sel(model.LevelSpecies, 7))
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(model.Triple{FamilyID: 2, GenusID: 3, SpeciesID: 7}))
	})

	It("corrects the family of a selected genus", func() {
		cur := model.Triple{FamilyID: 1}
		res, err := resolver.Cascade(lookup, cur, sel(model.LevelGenus, 5))
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(model.Triple{FamilyID: 9, GenusID: 5}))
	})

	It("keeps a species that belongs to the selected genus", func() {
		cur := model.Triple{FamilyID: 2, GenusID: 3, SpeciesID: 7}
		res, err := resolver.Cascade(lookup, cur, sel(model.LevelGenus, 3))
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(cur))
	})

	It("clears a species of another genus", func() {
		cur := model.Triple{FamilyID: 2, GenusID: 3, SpeciesID: 7}
		res, err := resolver.Cascade(lookup, cur, sel(model.LevelGenus, 4))
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(model.Triple{FamilyID: 1, GenusID: 4}))
	})

	It("clears genus and species of another family", func() {
		cur := model.Triple{FamilyID: 2, GenusID: 3, SpeciesID: 7}
		res, err := resolver.Cascade(lookup, cur, sel(model.LevelFamily, 1))
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(model.Triple{FamilyID: 1}))
	})

	It("keeps genus and species of the same family", func() {
		cur := model.Triple{FamilyID: 2, GenusID: 3, SpeciesID: 7}
		res, err := resolver.Cascade(lookup, cur, sel(model.LevelFamily, 2))
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(cur))
	})

	It("clears a level and the levels below with id zero", func() {
		cur := model.Triple{FamilyID: 2, GenusID: 3, SpeciesID: 7}
		res, err := resolver.Cascade(lookup, cur, sel(model.LevelGenus, 0))
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(model.Triple{FamilyID: 2}))

		res, err = resolver.Cascade(lookup, cur, sel(model.LevelSpecies, 0))
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(model.Triple{FamilyID: 2, GenusID: 3}))
	})

	It("rejects unknown taxa and returns the current triple", func() {
		cur := model.Triple{FamilyID: 2}
		for _, s := range []resolver.Selection{
			sel(model.LevelFamily, 42),
			sel(model.LevelGenus, 42),
			sel(model.LevelSpecies, 42),
		} {
			res, err := resolver.Cascade(lookup, cur, s)
			Expect(errors.Is(err, resolver.ErrUnknownTaxon)).To(BeTrue())
			Expect(res).To(Equal(cur))
		}
	})

	It("is idempotent", func() {
		starts := []model.Triple{
			{},
			{FamilyID: 1},
			{FamilyID: 2, GenusID: 3, SpeciesID: 6},
			{FamilyID: 9, GenusID: 5},
		}
		sels := []resolver.Selection{
			sel(model.LevelFamily, 2),
			sel(model.LevelGenus, 3),
			sel(model.LevelGenus, 5),
			sel(model.LevelSpecies, 7),
			sel(model.LevelSpecies, 8),
		}
		for _, cur := range starts {
			for _, s := range sels {
				once, err := resolver.Cascade(lookup, cur, s)
				Expect(err).ToNot(HaveOccurred())
				twice, err := resolver.Cascade(lookup, once, s)
				Expect(err).ToNot(HaveOccurred())
				Expect(twice).To(Equal(once))
				Expect(resolver.Consistent(lookup, once)).To(Succeed())
			}
		}
	})
})

var _ = Describe("Merge", func() {
	It("leaves unset levels alone", func() {
		cur := model.Triple{FamilyID: 2, GenusID: 3, SpeciesID: 7}
		res, err := resolver.Merge(lookup, cur, model.Triple{FamilyID: 2})
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(cur))
	})

	It("applies the most specific level", func() {
		cur := model.Triple{FamilyID: 1, GenusID: 4, SpeciesID: 8}
		res, err := resolver.Merge(lookup, cur, model.Triple{SpeciesID: 6})
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(model.Triple{FamilyID: 2, GenusID: 3, SpeciesID: 6}))
	})

	It("fixes an inconsistent proposal", func() {
		res, err := resolver.Normalize(lookup, model.Triple{FamilyID: 1, SpeciesID: 7})
		Expect(err).ToNot(HaveOccurred())
		Expect(res).To(Equal(model.Triple{FamilyID: 2, GenusID: 3, SpeciesID: 7}))
	})

	It("returns the current triple on error", func() {
		cur := model.Triple{FamilyID: 1}
		res, err := resolver.Merge(lookup, cur, model.Triple{GenusID: 3, SpeciesID: 42})
		Expect(err).To(HaveOccurred())
		Expect(res).To(Equal(cur))
	})
})

var _ = Describe("Consistent", func() {
	It("accepts consistent and partial triples", func() {
		for _, t := range []model.Triple{
			{},
			{FamilyID: 9},
			{FamilyID: 9, GenusID: 5},
			{FamilyID: 2, GenusID: 3, SpeciesID: 7},
		} {
			Expect(resolver.Consistent(lookup, t)).To(Succeed())
		}
	})

	It("rejects mismatched levels", func() {
		for _, t := range []model.Triple{
			{SpeciesID: 7},
			{FamilyID: 1, GenusID: 3, SpeciesID: 7},
			{GenusID: 3},
			{FamilyID: 2, GenusID: 4, SpeciesID: 7},
		} {
			err := resolver.Consistent(lookup, t)
			Expect(errors.Is(err, resolver.ErrInconsistent)).To(BeTrue(), t.Label())
		}
	})

	It("rejects unknown taxa", func() {
		err := resolver.Consistent(lookup, model.Triple{FamilyID: 42})
		Expect(errors.Is(err, resolver.ErrUnknownTaxon)).To(BeTrue())
	})
})
