package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"lecture-rag-be/internal/bootstrap"
	"lecture-rag-be/internal/config"
	"lecture-rag-be/internal/pkg/logger"
	"lecture-rag-be/internal/server"
	"lecture-rag-be/internal/tracer"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Tracing, sysLogger)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg, sysLogger)
	if err != nil {
		log.Fatalf("Unable to bootstrap: %v", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, container)
	g, gctx := errgroup.WithContext(ctx)

	// 4. Background Services
	g.Go(func() error {
		return container.Tracker.Run(gctx)
	})
	g.Go(func() error {
		return ignoreCanceled(container.WebSocketHub.Run(gctx))
	})
	g.Go(func() error {
		return ignoreCanceled(container.EventRelay.Consume(gctx))
	})

	// 5. HTTP Server
	g.Go(func() error {
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		sysLogger.Error("MAIN", "Shutting down with error", map[string]interface{}{"error": err.Error()})
		return
	}
	sysLogger.Info("MAIN", "Shut down cleanly", map[string]interface{}{
		"pending_chunks": container.Tracker.QueueDepth(),
	})
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
