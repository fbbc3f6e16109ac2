// Package main is the entry point for the lotkeeper outbox relay worker.
// It drains the transactional outbox into Kafka.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lotkeeper/internal/infrastructure/broker"
	"lotkeeper/internal/infrastructure/storage/postgres"
	"lotkeeper/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting lotkeeper outbox worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	brokers := strings.Split(mustEnv("KAFKA_BROKERS"), ",")
	topic := getEnv("KAFKA_TOPIC", "stock.ledger")
	publisher := broker.NewPublisher(broker.DefaultConfig(brokers, topic))
	defer publisher.Close()

	batchSize := getEnvInt("OUTBOX_BATCH_SIZE", 100)
	relay := postgres.NewOutboxRelay(pool.Unwrap(), batchSize, publisher)

	worker := NewRelayWorker(relay, pool, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// RelayWorker polls the outbox and periodically sweeps exhausted messages
// into the dead letter queue.
type RelayWorker struct {
	relay *postgres.OutboxRelay
	pool  *postgres.Pool
	log   *logger.Logger
}

func NewRelayWorker(relay *postgres.OutboxRelay, pool *postgres.Pool, log *logger.Logger) *RelayWorker {
	return &RelayWorker{
		relay: relay,
		pool:  pool,
		log:   log.WithComponent("outbox-relay"),
	}
}

// Run polls until the context is canceled.
func (w *RelayWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	dlqTicker := time.NewTicker(1 * time.Hour)
	defer dlqTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processBatch(ctx)
		case <-dlqTicker.C:
			w.sweepDLQ(ctx)
			postgres.LogPoolStats(ctx, w.pool.Unwrap())
		}
	}
}

func (w *RelayWorker) processBatch(ctx context.Context) {
	processed, err := w.relay.ProcessBatch(ctx)
	if err != nil {
		w.log.Errorw("outbox batch failed", "error", err)
		return
	}
	if processed > 0 {
		w.log.Debugw("processed outbox batch", "count", processed)
	}
}

func (w *RelayWorker) sweepDLQ(ctx context.Context) {
	moved, err := w.relay.MoveToDLQ(ctx)
	if err != nil {
		w.log.Errorw("DLQ sweep failed", "error", err)
		return
	}
	if moved > 0 {
		w.log.Warnw("moved exhausted messages to DLQ", "count", moved)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
