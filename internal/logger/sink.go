package logger

import (
	"github.com/sirupsen/logrus"

	"osint-automater/internal/models"
)

// EventSink Writes engine events as log entries
type EventSink struct {
	logger logrus.FieldLogger
}

// NewEventSink Creates a sink on the given logger
func NewEventSink(logger logrus.FieldLogger) *EventSink {
	return &EventSink{logger: logger}
}

// Emit Maps the event kind onto a log level
func (s *EventSink) Emit(e models.Event) {
	fields := logrus.Fields{"event": string(e.Kind)}
	if e.Site != "" {
		fields["site"] = e.Site
	}
	if e.Target != "" {
		fields["target"] = e.Target
	}
	if e.URL != "" {
		fields["url"] = e.URL
	}

	entry := s.logger.WithFields(fields)
	if e.Err != nil {
		entry = entry.WithError(e.Err)
	}

	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}

	switch e.Kind {
	case models.EventNetworkError, models.EventConfigError, models.EventExtractionError:
		entry.Warn(msg)
	case models.EventChecking, models.EventPostSubmit, models.EventDone:
		entry.Info(msg)
	default:
		entry.Debug(msg)
	}
}

var _ models.EventSink = (*EventSink)(nil)
