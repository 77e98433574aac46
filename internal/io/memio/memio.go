// Package memio keeps the taxonomy, collections and suggestions in memory.
// State lives as long as the process, every call to New starts empty.
package memio

import (
	"time"

	"github.com/gnames/gncoleta/internal/ent/metric"
	"github.com/gnames/gncoleta/internal/ent/namer"
	"github.com/gnames/gncoleta/internal/ent/resolver"
	"github.com/gnames/gncoleta/internal/ent/workflow"
	"github.com/gnames/gncoleta/internal/io/nameio"
	"github.com/gnames/gncoleta/pkg/ent/envelope"
	"github.com/gnames/gncoleta/pkg/ent/store"
)

// Stores groups the stores that share one taxonomy.
type Stores struct {
	Families    store.Families
	Genera      store.Genera
	Species     store.SpeciesSet
	Collections workflow.CollectionWriter
	Suggestions workflow.SuggestionWriter

	// Lookup resolves parents of live taxa.
	Lookup resolver.Lookup
}

type settings struct {
	now   func() time.Time
	names namer.Normalizer
	rec   metric.Recorder
	trust bool
}

// Option changes settings of the stores.
type Option func(*settings)

// OptClock sets the function that provides timestamps.
func OptClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// OptNormalizer sets the name normalizer.
func OptNormalizer(n namer.Normalizer) Option {
	return func(s *settings) {
		s.names = n
	}
}

// OptRecorder sets the metrics recorder.
func OptRecorder(r metric.Recorder) Option {
	return func(s *settings) {
		s.rec = r
	}
}

// OptTrustReferences turns off the check that genera and species point to
// live parents on write.
func OptTrustReferences(b bool) Option {
	return func(s *settings) {
		s.trust = b
	}
}

// New creates empty stores.
func New(opts ...Option) *Stores {
	s := settings{
		now: func() time.Time { return time.Now().UTC() },
		rec: metric.Noop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.names == nil {
		s.names = nameio.New(nil)
	}

	tax := newTaxonomy(s)
	cols := newCollections(s, tax)
	sugs := newSuggestions(s, tax, cols)
	tax.cols, tax.sugs = cols, sugs
	return &Stores{
		Families:    tax.familyStore(),
		Genera:      tax.genusStore(),
		Species:     tax.speciesStore(),
		Collections: cols,
		Suggestions: sugs,
		Lookup:      tax,
	}
}

// list wraps a result set, an empty set is a 404.
func list[T any](items []T, what string) envelope.Envelope[[]T] {
	if len(items) == 0 {
		return envelope.NotFound[[]T]("no %s found", what)
	}
	return envelope.OK(items)
}

// observe must be deferred before envelope.Recover, so it sees the final
// result.
func observe[T any](rec metric.Recorder, op string, res *envelope.Envelope[T]) {
	rec.Envelope(op, res.Status)
}
