package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"lecture-rag-be/internal/config"
	"lecture-rag-be/internal/pkg/logger"
	"lecture-rag-be/pkg/events"
	pktNats "lecture-rag-be/pkg/nats"
)

// Follows the lecture event stream and writes every event to the log.
func main() {
	cfg := config.Load()

	url := flag.String("url", cfg.App.NatsURL, "NATS server url")
	subject := flag.String("subject", pktNats.SubjectPrefix+".lecture.>", "subject filter")
	durable := flag.String("durable", "events-tail", "durable consumer name")
	session := flag.String("session", "", "only show events of this session key")
	flag.Parse()

	if *url == "" {
		log.Fatal("Error: NATS url is not set (NATS_URL or -url)")
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	sub, err := pktNats.NewSubscriber(*url, sysLogger)
	if err != nil {
		log.Fatalf("Error: Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = sub.Subscribe(ctx, *subject, *durable, func(ctx context.Context, event events.Event) error {
		key := events.SessionKeyOf(event)
		if *session != "" && key != *session {
			return nil
		}
		sysLogger.Info("EVENTS", event.EventType(), map[string]interface{}{
			"session_key": key,
			"occurred_at": event.Timestamp(),
			"payload":     event.Payload(),
		})
		return nil
	})
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	<-ctx.Done()
}
