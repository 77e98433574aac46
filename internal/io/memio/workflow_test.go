package memio_test

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gnames/gncoleta/internal/io/memio"
	"github.com/gnames/gncoleta/pkg/ent/envelope"
	"github.com/gnames/gncoleta/pkg/ent/model"
)

func newCollection(name string, fieldID int) model.Collection {
	return model.Collection{
		Name:           name,
		FieldID:        fieldID,
		CollectorID:    11,
		CollectionDate: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
	}
}

func newSuggestion(collectionID int, t model.Triple) model.Suggestion {
	return model.Suggestion{
		Triple:        t,
		CollectionID:  collectionID,
		SuggesterID:   22,
		Justification: "leaves fold when touched",
		Confidence:    4,
	}
}

var _ = Describe("Collections", func() {
	var s *memio.Stores

	BeforeEach(func() {
		s = memio.New(memio.OptClock(clock()))
		seed(s)
	})

	It("identifies a collection", func() {
		c := s.Collections.Add(newCollection("coleta 1", 5))
		Expect(c.Status).To(Equal(201))
		Expect(c.Data.Identified).To(BeFalse())

		res := s.Collections.Identify(c.Data.ID, 2)
		Expect(res.Status).To(Equal(200))
		Expect(res.Data.Triple).To(Equal(model.Triple{FamilyID: 2, GenusID: 3, SpeciesID: 2}))
		Expect(res.Data.Identified).To(BeTrue())
		Expect(res.Data.UpdatedAt).To(BeTemporally(">", c.Data.UpdatedAt))

		Expect(s.Collections.Identify(42, 2).Status).To(Equal(404))
		Expect(s.Collections.Identify(c.Data.ID, 42).Status).To(Equal(404))
	})

	It("rejects inconsistent triples", func() {
		c := newCollection("coleta 1", 5)
		c.Triple = model.Triple{FamilyID: 1, GenusID: 3, SpeciesID: 2}
		res := s.Collections.Add(c)
		Expect(res.Status).To(Equal(500))
		Expect(res.Kind).To(Equal(envelope.KindInvariant))

		c.Triple = model.Triple{SpeciesID: 2}
		Expect(s.Collections.Add(c).Kind).To(Equal(envelope.KindInvariant))

		c.Triple = model.Triple{FamilyID: 2, GenusID: 3, SpeciesID: 2}
		ok := s.Collections.Add(c)
		Expect(ok.Status).To(Equal(201))
		Expect(ok.Data.Identified).To(BeTrue())

		upd := ok.Data
		upd.GenusID = 1
		Expect(s.Collections.Update(upd).Kind).To(Equal(envelope.KindInvariant))
		Expect(s.Collections.GetByID(ok.Data.ID).Data.GenusID).To(Equal(3))
	})

	It("requires name and field", func() {
		Expect(s.Collections.Add(newCollection("", 5)).Kind).To(Equal(envelope.KindValidation))
		Expect(s.Collections.Add(newCollection("c", 0)).Kind).To(Equal(envelope.KindValidation))
	})

	It("derives identified from the triple", func() {
		c := newCollection("coleta 1", 5)
		c.Identified = true
		Expect(s.Collections.Add(c).Data.Identified).To(BeFalse())

		c.Triple = model.Triple{FamilyID: 1, GenusID: 1}
		Expect(s.Collections.Add(c).Data.Identified).To(BeTrue())
		c.Identified = false
		Expect(s.Collections.Add(c).Data.Identified).To(BeFalse())
	})

	It("filters collections", func() {
		c1 := newCollection("c1", 5)
		c1.RequestsHelp = true
		c2 := newCollection("c2", 6)
		c2.Triple = model.Triple{FamilyID: 1, GenusID: 1, SpeciesID: 1}
		c3 := newCollection("c3", 5)
		for _, c := range []model.Collection{c1, c2, c3} {
			Expect(s.Collections.Add(c).Status).To(Equal(201))
		}

		Expect(s.Collections.GetByFieldID(5).Data).To(HaveLen(2))
		Expect(s.Collections.GetByFieldID(7).Status).To(Equal(404))
		Expect(s.Collections.GetIdentified().Data).To(HaveLen(1))
		Expect(s.Collections.GetUnidentified().Data).To(HaveLen(2))
		Expect(s.Collections.GetRequestingHelp().Data[0].Name).To(Equal("c1"))

		s.Collections.Delete(1)
		Expect(s.Collections.GetRequestingHelp().Status).To(Equal(404))
		Expect(s.Collections.GetAll().Data).To(HaveLen(2))
		Expect(s.Collections.Inspect(1).Data.Deleted).To(BeTrue())
	})

	It("does not share image slices with callers", func() {
		c := newCollection("c1", 5)
		c.Images = []string{"a.jpg"}
		res := s.Collections.Add(c)
		res.Data.Images[0] = "changed.jpg"
		c.Images[0] = "changed.jpg"
		Expect(s.Collections.GetByID(1).Data.Images).To(Equal([]string{"a.jpg"}))
	})

	Describe("ApplyAcceptedSuggestion", func() {
		var id int

		BeforeEach(func() {
			c := newCollection("c1", 5)
			c.Triple = model.Triple{FamilyID: 1, GenusID: 1, SpeciesID: 1}
			c.CommonName = "sensitiva"
			id = s.Collections.Add(c).Data.ID
		})

		It("merges a suggested species", func() {
			res := s.Collections.ApplyAcceptedSuggestion(id,
				model.Triple{FamilyID: 2, GenusID: 3, SpeciesID: 2}, "bambu")
			Expect(res.Status).To(Equal(200))
			Expect(res.Data.Triple).To(Equal(model.Triple{FamilyID: 2, GenusID: 3, SpeciesID: 2}))
			Expect(res.Data.CommonName).To(Equal("bambu"))
			Expect(res.Data.Identified).To(BeTrue())
		})

		It("is idempotent", func() {
			proposed := model.Triple{FamilyID: 2, GenusID: 3, SpeciesID: 2}
			first := s.Collections.ApplyAcceptedSuggestion(id, proposed, "bambu")
			second := s.Collections.ApplyAcceptedSuggestion(id, proposed, "bambu")
			Expect(second.Data.Triple).To(Equal(first.Data.Triple))
			Expect(second.Data.CommonName).To(Equal(first.Data.CommonName))
			Expect(second.Data.Identified).To(Equal(first.Data.Identified))
		})

		It("clears levels that do not fit a suggested genus", func() {
			res := s.Collections.ApplyAcceptedSuggestion(id,
				model.Triple{FamilyID: 1, GenusID: 2}, "")
			Expect(res.Status).To(Equal(200))
			Expect(res.Data.Triple).To(Equal(model.Triple{FamilyID: 1, GenusID: 2}))
			Expect(res.Data.CommonName).To(Equal("sensitiva"))
		})

		It("keeps identified when a genus suggestion clears the species", func() {
			res := s.Collections.ApplyAcceptedSuggestion(id,
				model.Triple{FamilyID: 1, GenusID: 2}, "")
			Expect(res.Status).To(Equal(200))
			Expect(res.Data.SpeciesID).To(BeZero())
			Expect(res.Data.Identified).To(BeTrue())

			ided := s.Collections.GetIdentified()
			Expect(ided.Data).To(HaveLen(1))
			Expect(ided.Data[0].ID).To(Equal(id))
			Expect(s.Collections.GetUnidentified().Status).To(Equal(404))
		})

		It("does not flip identified without a species", func() {
			c := newCollection("c2", 5)
			other := s.Collections.Add(c).Data.ID
			res := s.Collections.ApplyAcceptedSuggestion(other,
				model.Triple{FamilyID: 2, GenusID: 3}, "")
			Expect(res.Data.Triple).To(Equal(model.Triple{FamilyID: 2, GenusID: 3}))
			Expect(res.Data.Identified).To(BeFalse())
		})

		It("fails for deleted collections and empty suggestions", func() {
			Expect(s.Collections.ApplyAcceptedSuggestion(id, model.Triple{}, "").Kind).
				To(Equal(envelope.KindValidation))
			s.Collections.Delete(id)
			res := s.Collections.ApplyAcceptedSuggestion(id, model.Triple{SpeciesID: 2}, "")
			Expect(res.Status).To(Equal(404))
		})
	})
})

var _ = Describe("Suggestions", func() {
	var s *memio.Stores
	var colID int
	var c *counter

	BeforeEach(func() {
		c = newCounter()
		s = memio.New(memio.OptClock(clock()), memio.OptRecorder(c))
		seed(s)
		colID = s.Collections.Add(newCollection("c1", 5)).Data.ID
	})

	It("stores pending suggestions", func() {
		res := s.Suggestions.Add(newSuggestion(colID, model.Triple{FamilyID: 1, GenusID: 1, SpeciesID: 1}))
		Expect(res.Status).To(Equal(201))
		Expect(res.Data.Status).To(Equal(model.StatusPending))
		Expect(s.Suggestions.GetPending().Data).To(HaveLen(1))
		Expect(s.Suggestions.GetByCollectionID(colID).Data).To(HaveLen(1))
		Expect(s.Suggestions.GetByUserID(22).Data).To(HaveLen(1))
		Expect(s.Suggestions.GetByUserID(23).Status).To(Equal(404))
	})

	It("validates new suggestions", func() {
		full := model.Triple{FamilyID: 1, GenusID: 1, SpeciesID: 1}

		Expect(s.Suggestions.Add(newSuggestion(42, full)).Status).To(Equal(404))

		sg := newSuggestion(colID, full)
		sg.Justification = "  "
		Expect(s.Suggestions.Add(sg).Kind).To(Equal(envelope.KindValidation))

		sg = newSuggestion(colID, full)
		sg.Confidence = 6
		Expect(s.Suggestions.Add(sg).Kind).To(Equal(envelope.KindValidation))

		Expect(s.Suggestions.Add(newSuggestion(colID, model.Triple{})).Kind).
			To(Equal(envelope.KindValidation))

		sg = newSuggestion(colID, model.Triple{FamilyID: 2, GenusID: 1})
		Expect(s.Suggestions.Add(sg).Kind).To(Equal(envelope.KindInvariant))

		sg = newSuggestion(colID, full)
		sg.Status = model.StatusAccepted
		Expect(s.Suggestions.Add(sg).Kind).To(Equal(envelope.KindValidation))

		Expect(s.Suggestions.GetAll().Status).To(Equal(404))
	})

	It("moves along the state machine", func() {
		id := s.Suggestions.Add(newSuggestion(colID, model.Triple{FamilyID: 1})).Data.ID

		res := s.Suggestions.SetStatus(id, model.StatusUnderReview)
		Expect(res.Status).To(Equal(200))
		Expect(res.Data.Changed).To(BeTrue())
		Expect(res.Data.From).To(Equal(model.StatusPending))

		res = s.Suggestions.SetStatus(id, model.StatusAccepted)
		Expect(res.Status).To(Equal(200))
		Expect(res.Data.Suggestion.Status).To(Equal(model.StatusAccepted))

		again := s.Suggestions.SetStatus(id, model.StatusAccepted)
		Expect(again.Status).To(Equal(200))
		Expect(again.Data.Changed).To(BeFalse())

		bad := s.Suggestions.SetStatus(id, model.StatusRejected)
		Expect(bad.Status).To(Equal(500))
		Expect(bad.Kind).To(Equal(envelope.KindInvariant))
		Expect(s.Suggestions.GetByID(id).Data.Status).To(Equal(model.StatusAccepted))

		Expect(c.moves).To(Equal([]string{"pending>under_review", "under_review>accepted"}))
	})

	It("refuses unknown statuses and ids", func() {
		id := s.Suggestions.Add(newSuggestion(colID, model.Triple{FamilyID: 1})).Data.ID
		Expect(s.Suggestions.SetStatus(id, "approved").Kind).To(Equal(envelope.KindValidation))
		Expect(s.Suggestions.SetStatus(42, model.StatusRejected).Status).To(Equal(404))
		Expect(s.Suggestions.SetStatus(id, model.StatusPending).Data.Changed).To(BeFalse())
	})

	It("edits only pending suggestions", func() {
		added := s.Suggestions.Add(newSuggestion(colID, model.Triple{FamilyID: 1})).Data
		added.Confidence = 2
		added.Status = ""
		res := s.Suggestions.Update(added)
		Expect(res.Status).To(Equal(200))
		Expect(res.Data.Confidence).To(Equal(2))
		Expect(res.Data.Status).To(Equal(model.StatusPending))

		moved := res.Data
		moved.CollectionID = 42
		Expect(s.Suggestions.Update(moved).Kind).To(Equal(envelope.KindValidation))

		s.Suggestions.SetStatus(added.ID, model.StatusRejected)
		added.Confidence = 5
		Expect(s.Suggestions.Update(added).Kind).To(Equal(envelope.KindInvariant))
		Expect(s.Suggestions.GetByID(added.ID).Data.Confidence).To(Equal(2))
	})

	It("soft deletes suggestions", func() {
		id := s.Suggestions.Add(newSuggestion(colID, model.Triple{FamilyID: 1})).Data.ID
		Expect(s.Suggestions.Delete(id).Status).To(Equal(200))
		Expect(s.Suggestions.GetPending().Status).To(Equal(404))
		Expect(s.Suggestions.SetStatus(id, model.StatusAccepted).Status).To(Equal(404))
		Expect(s.Suggestions.Inspect(id).Data.Deleted).To(BeTrue())
	})
})
