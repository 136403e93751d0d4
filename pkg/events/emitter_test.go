package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/myndigheter/pkg/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEvent struct {
	eventType string
	key       string
	value     []byte
}

type fakePublisher struct {
	events []capturedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, eventType, key string, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, capturedEvent{eventType, key, value})
	return nil
}

func TestEmitter_DatasetRefreshed(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should publish record and active counts", func(t *testing.T) {
		publisher := &fakePublisher{}
		emitter := NewEmitter(publisher, clockwork.NewFakeClockAt(now), logger)

		records := []models.Agency{
			{Name: "Skatteverket"},
			{Name: "Gamla verket", End: "2010-12-31"},
			{Name: "Polisen"},
		}
		require.NoError(t, emitter.DatasetRefreshed(context.Background(), records))
		require.Len(t, publisher.events, 1)

		captured := publisher.events[0]
		assert.Equal(t, EventDatasetRefreshed, captured.eventType)

		var event DatasetRefreshedEvent
		require.NoError(t, json.Unmarshal(captured.value, &event))
		assert.Equal(t, captured.key, event.EventID)
		assert.Equal(t, 3, event.RecordCount)
		assert.Equal(t, 2, event.ActiveCount)
		assert.True(t, now.Equal(event.Timestamp))
	})

	t.Run("should return publish failures", func(t *testing.T) {
		emitter := NewEmitter(&fakePublisher{err: errors.New("down")}, nil, logger)
		assert.Error(t, emitter.DatasetRefreshed(context.Background(), nil))
	})
}
