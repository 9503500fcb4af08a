package events

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversLectureEvents(t *testing.T) {
	bus := NewBus(watermill.NopLogger{})
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	at := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	event := NewLectureEvent(LectureChunkPersisted, "Physics:Optics:2026-10-15", map[string]interface{}{"chunk_number": 3}, at)
	require.NoError(t, bus.Publish(ctx, event))

	select {
	case msg := <-messages:
		decoded, err := Decode(msg)
		require.NoError(t, err)
		msg.Ack()

		assert.Equal(t, LectureChunkPersisted, decoded.EventType())
		assert.Equal(t, "Physics:Optics:2026-10-15", SessionKeyOf(decoded))
		assert.Equal(t, float64(3), decoded.Payload()["chunk_number"])
		assert.True(t, at.Equal(decoded.Timestamp()))
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(watermill.NopLogger{})
	defer bus.Close()

	event := NewLectureEvent(LectureSessionStarted, "k", nil, time.Now())
	assert.NoError(t, bus.Publish(context.Background(), event))
}

func TestNewLectureEventCopiesData(t *testing.T) {
	data := map[string]interface{}{"a": 1}
	event := NewLectureEvent(LectureSessionCleaned, "k", data, time.Now())

	assert.Equal(t, "k", SessionKeyOf(event))
	assert.NotContains(t, data, SessionKeyField)
	assert.Equal(t, "", SessionKeyOf(BaseEvent{Data: map[string]interface{}{}}))
}
