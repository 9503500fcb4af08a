package service

import (
	"context"
	"encoding/json"
	"time"

	"lecture-rag-be/internal/dto"
	"lecture-rag-be/internal/pkg/logger"
	"lecture-rag-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

const exportTimeout = 5 * time.Second

// LiveFeed pushes serialized events to whoever follows a session.
type LiveFeed interface {
	Deliver(sessionKey string, data []byte)
}

type IEventRelayService interface {
	Consume(ctx context.Context) error
}

type eventRelayService struct {
	bus      *events.Bus
	feed     LiveFeed
	exporter events.Publisher
	logger   logger.ILogger
}

// NewEventRelayService forwards bus events to the live feed and, when
// exporter is not nil, to the durable event stream.
func NewEventRelayService(
	bus *events.Bus,
	feed LiveFeed,
	exporter events.Publisher,
	log logger.ILogger,
) IEventRelayService {
	return &eventRelayService{
		bus:      bus,
		feed:     feed,
		exporter: exporter,
		logger:   log,
	}
}

// Consume relays events until ctx is done.
func (rs *eventRelayService) Consume(ctx context.Context) error {
	messages, err := rs.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return ctx.Err()
			}
			rs.processMessage(ctx, msg)
		}
	}
}

func (rs *eventRelayService) processMessage(ctx context.Context, msg *message.Message) {
	// events are best effort, a bad message is never redelivered
	defer msg.Ack()

	event, err := events.Decode(msg)
	if err != nil {
		rs.logger.Error("RELAY", "Failed to decode event", map[string]interface{}{"error": err.Error()})
		return
	}
	sessionKey := events.SessionKeyOf(event)

	if rs.feed != nil && sessionKey != "" {
		data, err := json.Marshal(dto.LiveEventMessage{
			Type:       event.EventType(),
			SessionKey: sessionKey,
			Data:       event.Payload(),
			OccurredAt: event.Timestamp(),
		})
		if err == nil {
			rs.feed.Deliver(sessionKey, data)
		}
	}

	if rs.exporter == nil {
		return
	}
	exportCtx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()
	if err := rs.exporter.Publish(exportCtx, event); err != nil {
		rs.logger.Warn("RELAY", "Failed to export event", map[string]interface{}{
			"event":       event.EventType(),
			"session_key": sessionKey,
			"error":       err.Error(),
		})
	}
}
