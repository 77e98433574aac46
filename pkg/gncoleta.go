package gncoleta

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gnames/gncoleta/internal/ent/loader"
	"github.com/gnames/gncoleta/internal/ent/metric"
	"github.com/gnames/gncoleta/internal/ent/namer"
	"github.com/gnames/gncoleta/internal/ent/resolver"
	"github.com/gnames/gncoleta/internal/io/memio"
	"github.com/gnames/gncoleta/pkg/config"
	"github.com/gnames/gncoleta/pkg/ent/envelope"
	"github.com/gnames/gncoleta/pkg/ent/model"
	"github.com/gnames/gncoleta/pkg/ent/notify"
	"github.com/gnames/gncoleta/pkg/ent/store"
)

// gncoleta is an implementation of GNcoleta interface.
type gncoleta struct {
	cfg config.Config

	// mu serializes the acceptance saga, a status change and its
	// propagation are never interleaved with another status change.
	mu     sync.Mutex
	stores *memio.Stores
	notify notify.Notifier
	rec    metric.Recorder
}

type settings struct {
	now    func() time.Time
	names  namer.Normalizer
	notify notify.Notifier
	rec    metric.Recorder
}

// Option changes collaborators of GNcoleta.
type Option func(*settings)

// OptNotifier sets the receiver of workflow events.
func OptNotifier(n notify.Notifier) Option {
	return func(s *settings) {
		s.notify = n
	}
}

// OptRecorder sets the metrics recorder.
func OptRecorder(r metric.Recorder) Option {
	return func(s *settings) {
		s.rec = r
	}
}

// OptNormalizer sets the taxon name normalizer.
func OptNormalizer(n namer.Normalizer) Option {
	return func(s *settings) {
		s.names = n
	}
}

// OptClock sets the source of timestamps.
func OptClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// New creates a new instance of GNcoleta with empty stores.
func New(cfg config.Config, opts ...Option) GNcoleta {
	s := settings{
		notify: notify.Log{},
		rec:    metric.Noop(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	memOpts := []memio.Option{
		memio.OptRecorder(s.rec),
		memio.OptTrustReferences(cfg.TrustReferences),
	}
	if s.now != nil {
		memOpts = append(memOpts, memio.OptClock(s.now))
	}
	if s.names != nil {
		memOpts = append(memOpts, memio.OptNormalizer(s.names))
	}

	res := gncoleta{
		cfg:    cfg,
		stores: memio.New(memOpts...),
		notify: s.notify,
		rec:    s.rec,
	}
	return &res
}

// publicCollections hides workflow-only methods of the collection store.
type publicCollections struct {
	store.Collections
}

// publicSuggestions hides workflow-only methods of the suggestion store.
type publicSuggestions struct {
	store.Suggestions
}

func (g *gncoleta) Families() store.Families {
	return g.stores.Families
}

func (g *gncoleta) Genera() store.Genera {
	return g.stores.Genera
}

func (g *gncoleta) Species() store.SpeciesSet {
	return g.stores.Species
}

func (g *gncoleta) Collections() store.Collections {
	return publicCollections{g.stores.Collections}
}

func (g *gncoleta) Suggestions() store.Suggestions {
	return publicSuggestions{g.stores.Suggestions}
}

func (g *gncoleta) Config() config.Config {
	return g.cfg
}

// Resolve runs the taxonomy cascade for one selection.
func (g *gncoleta) Resolve(
	cur model.Triple,
	level model.Level,
	id int,
) (res envelope.Envelope[model.Triple]) {
	op := "workflow.resolve"
	defer g.observe(op, &res.Status)
	defer envelope.Recover(op, &res)

	if id < 0 {
		return envelope.Invalid[model.Triple]("%s id %d is negative", level, id)
	}
	t, err := resolver.Cascade(g.stores.Lookup, cur, resolver.Selection{
		Level: level,
		ID:    id,
	})
	if err != nil {
		return envelope.NotFound[model.Triple]("cannot select %s %d: %s", level, id, err)
	}
	return envelope.OK(t)
}

// Identify delegates to the collection store.
func (g *gncoleta) Identify(collectionID, speciesID int) envelope.Envelope[model.Collection] {
	return g.stores.Collections.Identify(collectionID, speciesID)
}

// SubmitSuggestion stores a suggestion and tells the collector about it.
func (g *gncoleta) SubmitSuggestion(sg model.Suggestion) envelope.Envelope[model.Suggestion] {
	res := g.stores.Suggestions.Add(sg)
	if !res.Success() {
		return res
	}

	e := notify.Event{
		Type:         notify.SuggestionSubmitted,
		SuggestionID: res.Data.ID,
		CollectionID: res.Data.CollectionID,
		Status:       res.Data.Status,
	}
	if c := g.stores.Collections.GetByID(res.Data.CollectionID); c.Success() {
		e.RecipientID = c.Data.CollectorID
	}
	g.notify.Notify(e)
	return res
}

// UpdateSuggestionStatus runs the acceptance saga: the status change is
// committed first, then an accepted suggestion is copied into its
// collection. There is no compensating step, a failed copy leaves the
// suggestion accepted and is reported to the caller.
func (g *gncoleta) UpdateSuggestionStatus(
	id int,
	status model.SuggestionStatus,
) (res envelope.Envelope[model.StatusChange]) {
	op := "workflow.update_suggestion_status"
	defer g.observe(op, &res.Status)
	defer envelope.Recover(op, &res)

	g.mu.Lock()
	defer g.mu.Unlock()

	res = g.stores.Suggestions.SetStatus(id, status)
	if !res.Success() || !res.Data.Changed {
		return res
	}

	sg := res.Data.Suggestion
	g.notify.Notify(notify.Event{
		Type:         notify.SuggestionStatusChanged,
		SuggestionID: sg.ID,
		CollectionID: sg.CollectionID,
		RecipientID:  sg.SuggesterID,
		Status:       sg.Status,
	})

	if sg.Status != model.StatusAccepted {
		return res
	}
	return g.propagate(res.Data)
}

// propagate copies an accepted suggestion into its collection.
func (g *gncoleta) propagate(ch model.StatusChange) envelope.Envelope[model.StatusChange] {
	sg := ch.Suggestion

	proposed, err := resolver.Normalize(g.stores.Lookup, sg.Triple)
	if err != nil {
		failed := envelope.Violation[model.Collection](
			"suggested taxon %s: %s", sg.Label(), err)
		return g.propagationFailed(ch, failed)
	}

	col := g.stores.Collections.ApplyAcceptedSuggestion(
		sg.CollectionID, proposed, sg.CommonNameSuggested,
	)
	if !col.Success() {
		return g.propagationFailed(ch, col)
	}

	g.rec.Propagation(true)
	ch.Collection = &col.Data
	return envelope.OK(ch)
}

func (g *gncoleta) propagationFailed(
	ch model.StatusChange,
	col envelope.Envelope[model.Collection],
) envelope.Envelope[model.StatusChange] {
	sg := ch.Suggestion
	slog.Warn("Accepted suggestion did not reach its collection",
		"suggestion", sg.ID,
		"collection", sg.CollectionID,
		"status", col.Status,
		"error", col.Message,
	)
	g.rec.Propagation(false)
	g.notify.Notify(notify.Event{
		Type:         notify.PropagationFailed,
		SuggestionID: sg.ID,
		CollectionID: sg.CollectionID,
		RecipientID:  sg.SuggesterID,
		Status:       sg.Status,
		Message:      col.Message,
	})

	ch.PropagationError = col.Message
	res := envelope.Fail[model.StatusChange](col)
	res.Message = "suggestion accepted, collection not updated: " + col.Message
	res.Data = ch
	return res
}

// Load runs a loader against the stores of this instance.
func (g *gncoleta) Load(ctx context.Context, l loader.Loader) (loader.Report, error) {
	return l.Load(ctx, g)
}

func (g *gncoleta) observe(op string, status *int) {
	g.rec.Envelope(op, *status)
}
