// Package notify informs the outside world about workflow events. The
// core does not deliver notifications, it only raises them.
package notify

import (
	"log/slog"

	"github.com/gnames/gncoleta/pkg/ent/model"
)

// EventType names a workflow event.
type EventType string

const (
	// SuggestionSubmitted is raised when a new suggestion is stored.
	SuggestionSubmitted EventType = "suggestion_submitted"

	// SuggestionStatusChanged is raised after a status transition.
	SuggestionStatusChanged EventType = "suggestion_status_changed"

	// PropagationFailed is raised when an accepted suggestion could not be
	// copied into its collection.
	PropagationFailed EventType = "propagation_failed"
)

// Event describes what happened.
type Event struct {
	Type         EventType
	SuggestionID int
	CollectionID int

	// RecipientID is the user who should hear about the event: the
	// collector for submissions, the suggester for status changes.
	RecipientID int

	Status  model.SuggestionStatus
	Message string
}

// Notifier receives events. Implementations must not block.
type Notifier interface {
	Notify(Event)
}

// Func adapts a function to Notifier.
type Func func(Event)

// Notify calls f.
func (f Func) Notify(e Event) {
	f(e)
}

// Log writes events to the default slog logger.
type Log struct{}

// Notify logs the event.
func (Log) Notify(e Event) {
	slog.Info("Workflow event",
		"event", e.Type,
		"suggestion", e.SuggestionID,
		"collection", e.CollectionID,
		"recipient", e.RecipientID,
		"status", e.Status,
	)
}
