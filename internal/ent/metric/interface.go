// Package metric declares counters collected by the core.
package metric

import "github.com/gnames/gncoleta/pkg/ent/model"

// Recorder collects operational counters.
type Recorder interface {
	// Envelope counts a store or workflow result by operation and status.
	Envelope(op string, status int)

	// Transition counts suggestion status changes.
	Transition(from, to model.SuggestionStatus)

	// Propagation counts attempts to copy an accepted suggestion into its
	// collection.
	Propagation(ok bool)
}

type noop struct{}

// Noop returns a Recorder that discards everything.
func Noop() Recorder {
	return noop{}
}

func (noop) Envelope(string, int)                                      {}
func (noop) Transition(model.SuggestionStatus, model.SuggestionStatus) {}
func (noop) Propagation(bool)                                          {}
