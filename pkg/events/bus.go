package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const LectureTopic = "lecture_events"

type envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Bus is the in-process event bus. Publishing never waits for subscribers.
type Bus struct {
	pubSub *gochannel.GoChannel
	topic  string
}

func NewBus(logger watermill.LoggerAdapter) *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger),
		topic:  LectureTopic,
	}
}

func (b *Bus) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(envelope{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	return b.pubSub.Publish(b.topic, msg)
}

func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, b.topic)
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}

// Decode turns a bus message back into an event.
func Decode(msg *message.Message) (BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return BaseEvent{}, err
	}
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}
