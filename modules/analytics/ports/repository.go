package ports

import (
	"context"
	"time"

	eventsModel "github.com/andreypavlenko/jobscout/modules/events/model"
)

// EventLog is the read boundary analytics aggregates over. It is satisfied
// by modules/events/repository.EventRepository; analytics never writes to
// the event log, only reads it.
type EventLog interface {
	ListSince(ctx context.Context, since time.Time) ([]*eventsModel.Event, error)
}
