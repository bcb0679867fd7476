package query

import (
	"context"
	"time"

	"github.com/asaidimu/go-events"
)

// QueryEventType defines the events emitted around a query execution.
type QueryEventType string

const (
	QueryExecuteStart   QueryEventType = "query:execute:start"
	QueryExecuteSuccess QueryEventType = "query:execute:success"
	QueryExecuteFailed  QueryEventType = "query:execute:failed"
)

// QueryEvent describes one stage of an execution.
type QueryEvent struct {
	Type       QueryEventType   `json:"type"`
	Timestamp  int64            `json:"timestamp"` // Unix milliseconds.
	Resource   string           `json:"resource"`
	Query      *QueryDescriptor `json:"query,omitempty"`
	TotalCount *int64           `json:"totalCount,omitempty"`
	Error      *string          `json:"error,omitempty"`
	Duration   *int64           `json:"duration,omitempty"` // Milliseconds since the start event.
}

// EventBus carries QueryEvents to subscribers.
type EventBus = events.TypedEventBus[QueryEvent]

// EventCallbackFunction receives emitted QueryEvents.
type EventCallbackFunction func(ctx context.Context, event QueryEvent) error

// NewEventBus creates a bus with the default go-events configuration.
func NewEventBus() (*EventBus, error) {
	return events.NewTypedEventBus[QueryEvent](events.DefaultConfig())
}

// Subscribe registers callback for eventType on bus and returns the function
// that removes it.
func Subscribe(bus *EventBus, eventType QueryEventType, callback EventCallbackFunction) func() {
	return bus.Subscribe(string(eventType), callback)
}

func createEvent(
	eventType QueryEventType,
	resource string,
	query *QueryDescriptor,
	total *int64,
	err *string,
	startTime time.Time,
) QueryEvent {
	var duration *int64
	if !startTime.IsZero() && eventType != QueryExecuteStart {
		d := time.Since(startTime).Milliseconds()
		duration = &d
	}
	return QueryEvent{
		Type:       eventType,
		Timestamp:  time.Now().UnixMilli(),
		Resource:   resource,
		Query:      query,
		TotalCount: total,
		Error:      err,
		Duration:   duration,
	}
}
