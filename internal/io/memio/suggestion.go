package memio

import (
	"strings"
	"sync"

	"github.com/gnames/gncoleta/internal/ent/metric"
	"github.com/gnames/gncoleta/internal/ent/namer"
	"github.com/gnames/gncoleta/internal/ent/resolver"
	"github.com/gnames/gncoleta/pkg/ent/envelope"
	"github.com/gnames/gncoleta/pkg/ent/model"
)

type suggestions struct {
	mu    sync.RWMutex
	tbl   *table[model.Suggestion, *model.Suggestion]
	tax   *taxonomy
	cols  *collections
	names namer.Normalizer
	rec   metric.Recorder
}

func newSuggestions(s settings, tax *taxonomy, cols *collections) *suggestions {
	return &suggestions{
		tbl:   newTable[model.Suggestion, *model.Suggestion](s.now, nil),
		tax:   tax,
		cols:  cols,
		names: s.names,
		rec:   s.rec,
	}
}

func (s *suggestions) prep(sg *model.Suggestion) {
	sg.Justification = strings.TrimSpace(sg.Justification)
	sg.CommonNameSuggested = s.names.Text(sg.CommonNameSuggested)
	sg.ExtraNotes = strings.TrimSpace(sg.ExtraNotes)
}

func (s *suggestions) check(sg *model.Suggestion) *envelope.Error {
	if sg.SuggesterID <= 0 {
		return envelope.NewError(envelope.KindValidation, "suggester is required")
	}
	if sg.Justification == "" {
		return envelope.NewError(envelope.KindValidation, "justification is required")
	}
	if sg.Confidence < model.MinConfidence || sg.Confidence > model.MaxConfidence {
		return envelope.NewError(envelope.KindValidation,
			"confidence %d is outside of %d..%d",
			sg.Confidence, model.MinConfidence, model.MaxConfidence)
	}
	if sg.IsEmpty() {
		return envelope.NewError(envelope.KindValidation,
			"suggestion must propose a family, genus or species")
	}
	if err := resolver.Consistent(s.tax, sg.Triple); err != nil {
		return envelope.NewError(envelope.KindInvariant,
			"suggested taxon %s: %s", sg.Label(), err)
	}
	return nil
}

// Add stores a new pending suggestion for a live collection.
func (s *suggestions) Add(sg model.Suggestion) (res envelope.Envelope[model.Suggestion]) {
	op := "suggestion.add"
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.collectionExists(sg.CollectionID) {
		return envelope.NotFound[model.Suggestion](
			"collection %d not found", sg.CollectionID)
	}
	switch sg.Status {
	case "":
		sg.Status = model.StatusPending
	case model.StatusPending:
	default:
		return envelope.Invalid[model.Suggestion](
			"new suggestion cannot be %s", sg.Status)
	}
	s.prep(&sg)
	if err := s.check(&sg); err != nil {
		return envelope.FromError[model.Suggestion](err)
	}
	return envelope.Created(s.tbl.insert(sg))
}

func (s *suggestions) collectionExists(id int) bool {
	s.cols.mu.RLock()
	defer s.cols.mu.RUnlock()
	_, ok := s.cols.tbl.get(id)
	return ok
}

// Update edits a pending suggestion. Status and target collection cannot
// be changed here.
func (s *suggestions) Update(sg model.Suggestion) (res envelope.Envelope[model.Suggestion]) {
	op := "suggestion.update"
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tbl.get(sg.ID)
	if !ok {
		return envelope.NotFound[model.Suggestion]("suggestion %d not found", sg.ID)
	}
	if cur.Status != model.StatusPending {
		return envelope.Violation[model.Suggestion](
			"suggestion %d is %s and cannot be edited", sg.ID, cur.Status)
	}
	if sg.CollectionID != cur.CollectionID {
		return envelope.Invalid[model.Suggestion](
			"suggestion %d cannot move to another collection", sg.ID)
	}
	if sg.Status != "" && sg.Status != cur.Status {
		return envelope.Invalid[model.Suggestion](
			"status of suggestion %d changes through the workflow only", sg.ID)
	}
	sg.Status = cur.Status
	s.prep(&sg)
	if err := s.check(&sg); err != nil {
		return envelope.FromError[model.Suggestion](err)
	}
	updated, _ := s.tbl.replace(sg.ID, sg)
	return envelope.OK(updated)
}

// Delete sets the tombstone of a suggestion.
func (s *suggestions) Delete(id int) (res envelope.Envelope[model.Suggestion]) {
	op := "suggestion.delete"
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	s.mu.Lock()
	defer s.mu.Unlock()
	sg, ok := s.tbl.remove(id)
	if !ok {
		return envelope.NotFound[model.Suggestion]("suggestion %d not found", id)
	}
	return envelope.OK(sg)
}

// GetByID returns a live suggestion.
func (s *suggestions) GetByID(id int) (res envelope.Envelope[model.Suggestion]) {
	op := "suggestion.get_by_id"
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	s.mu.RLock()
	defer s.mu.RUnlock()
	sg, ok := s.tbl.get(id)
	if !ok {
		return envelope.NotFound[model.Suggestion]("suggestion %d not found", id)
	}
	return envelope.OK(sg)
}

// Inspect returns a suggestion even if it is deleted.
func (s *suggestions) Inspect(id int) (res envelope.Envelope[model.Suggestion]) {
	op := "suggestion.inspect"
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	s.mu.RLock()
	defer s.mu.RUnlock()
	sg, ok := s.tbl.raw(id)
	if !ok {
		return envelope.NotFound[model.Suggestion]("suggestion %d does not exist", id)
	}
	return envelope.OK(sg)
}

func (s *suggestions) query(op, what string, filter func(*model.Suggestion) bool) (res envelope.Envelope[[]model.Suggestion]) {
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return list(s.tbl.active(filter), what)
}

// GetAll returns live suggestions.
func (s *suggestions) GetAll() envelope.Envelope[[]model.Suggestion] {
	return s.query("suggestion.get_all", "suggestions", nil)
}

// GetByCollectionID returns live suggestions for a collection.
func (s *suggestions) GetByCollectionID(collectionID int) envelope.Envelope[[]model.Suggestion] {
	return s.query("suggestion.get_by_collection_id", "suggestions for the collection",
		func(sg *model.Suggestion) bool { return sg.CollectionID == collectionID })
}

// GetByUserID returns live suggestions made by a user.
func (s *suggestions) GetByUserID(userID int) envelope.Envelope[[]model.Suggestion] {
	return s.query("suggestion.get_by_user_id", "suggestions of the user",
		func(sg *model.Suggestion) bool { return sg.SuggesterID == userID })
}

// GetPending returns live suggestions waiting for a decision.
func (s *suggestions) GetPending() envelope.Envelope[[]model.Suggestion] {
	return s.query("suggestion.get_pending", "pending suggestions",
		func(sg *model.Suggestion) bool { return sg.Status == model.StatusPending })
}

// SetStatus moves a suggestion along the state machine. Asking for the
// current status returns the record with Changed set to false.
func (s *suggestions) SetStatus(
	id int,
	status model.SuggestionStatus,
) (res envelope.Envelope[model.StatusChange]) {
	op := "suggestion.set_status"
	defer observe(s.rec, op, &res)
	defer envelope.Recover(op, &res)

	if !status.Valid() {
		return envelope.Invalid[model.StatusChange]("unknown suggestion status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sg, ok := s.tbl.get(id)
	if !ok {
		return envelope.NotFound[model.StatusChange]("suggestion %d not found", id)
	}
	from := sg.Status
	if from == status {
		return envelope.OK(model.StatusChange{Suggestion: sg, From: from})
	}
	if !from.CanTransition(status) {
		return envelope.Violation[model.StatusChange](
			"suggestion %d cannot move from %s to %s", id, from, status)
	}

	sg.Status = status
	updated, _ := s.tbl.replace(id, sg)
	s.rec.Transition(from, status)
	return envelope.OK(model.StatusChange{
		Suggestion: updated,
		From:       from,
		Changed:    true,
	})
}
