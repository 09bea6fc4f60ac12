package models

// EventKind Category of a diagnostic emitted by the engine
type EventKind string

const (
	EventChecking        EventKind = "checking"
	EventPostSubmit      EventKind = "post_submit"
	EventNetworkError    EventKind = "network_error"
	EventExtractionError EventKind = "extraction_error"
	EventConfigError     EventKind = "config_error"
	EventSkipped         EventKind = "skipped"
	EventDone            EventKind = "done"
)

// Event Structured diagnostic; the engine never prints directly
type Event struct {
	Kind    EventKind
	Site    string
	Target  string
	URL     string
	Message string
	Err     error
}

// EventSink Receives engine diagnostics. Implementations must be safe for concurrent use.
type EventSink interface {
	Emit(Event)
}

// EventSinkFunc Adapts a function to EventSink
type EventSinkFunc func(Event)

func (f EventSinkFunc) Emit(e Event) { f(e) }

// DiscardSink Drops every event
var DiscardSink EventSink = EventSinkFunc(func(Event) {})
