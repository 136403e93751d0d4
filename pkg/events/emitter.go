// Package events emits dataset lifecycle events
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/myndigheter/pkg/models"
	"github.com/Ramsey-B/myndigheter/pkg/tracing"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// EventDatasetRefreshed is emitted after a dataset was fetched from upstream and merged
const EventDatasetRefreshed = "dataset.refreshed"

// Publisher sends an encoded event
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, value []byte) error
}

// DatasetRefreshedEvent summarizes a fresh dataset
type DatasetRefreshedEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	RecordCount int       `json:"record_count"`
	ActiveCount int       `json:"active_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// Emitter turns dataset changes into events
type Emitter struct {
	publisher Publisher
	clock     clockwork.Clock
	logger    ectologger.Logger
}

// NewEmitter creates a new event emitter. A nil clock uses the real clock.
func NewEmitter(publisher Publisher, clock clockwork.Clock, logger ectologger.Logger) *Emitter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Emitter{
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// DatasetRefreshed emits a dataset.refreshed event for the given records
func (e *Emitter) DatasetRefreshed(ctx context.Context, records []models.Agency) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.DatasetRefreshed")
	defer span.End()

	active := ectolinq.Filter(records, func(a models.Agency) bool { return a.IsActive() })

	event := DatasetRefreshedEvent{
		EventID:     uuid.New().String(),
		EventType:   EventDatasetRefreshed,
		RecordCount: len(records),
		ActiveCount: len(active),
		Timestamp:   e.clock.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", EventDatasetRefreshed, err)
	}

	if err := e.publisher.Publish(ctx, EventDatasetRefreshed, event.EventID, data); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", EventDatasetRefreshed)
		return err
	}

	return nil
}
