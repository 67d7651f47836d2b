// Package main is the entry point for SNSStream.
// SNSStream consumes SNS notification envelopes from Kafka, decodes them
// strictly, and processes each record with bounded concurrency, retries for
// transient failures, and a dead-letter queue for payloads that can never succeed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/config"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/consumer"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/dlq"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/logger"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/obs"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/queue"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/worker"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "snsstream: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Service.Name); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := obs.NewMetrics(cfg.Service.Name)
	q := queue.NewQueue(cfg.Queue.Size, metrics)

	producer, err := dlq.NewProducer(cfg, log)
	if err != nil {
		return fmt.Errorf("create DLQ producer: %w", err)
	}
	defer producer.Close()

	c, err := consumer.NewConsumer(cfg, log, q)
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}
	defer c.Close()

	pool, err := worker.NewPool(cfg.Worker.Count, q, log, worker.Options{
		Retry:     cfg.Retry,
		Metrics:   metrics,
		DLQ:       producer,
		Committer: c,
	})
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := obs.StartMetricsServer(ctx, cfg.Metrics.Port, log); err != nil {
			log.Error("Metrics server failed", zap.Error(err))
		}
	}()

	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("start worker pool: %w", err)
	}

	log.Info("SNSStream started",
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("dlqTopic", cfg.DLQ.Topic),
		zap.Int("workers", cfg.Worker.Count),
		zap.Int("queueSize", q.Capacity()),
	)

	// Blocks until shutdown; the consumer drains its pending commits before returning
	consumeErr := c.Start(ctx)
	if consumeErr != nil && !errors.Is(consumeErr, context.Canceled) && !errors.Is(consumeErr, queue.ErrQueueClosed) {
		log.Error("Consumer stopped unexpectedly", zap.Error(consumeErr))
	}

	log.Info("Shutting down")
	stop()
	q.Close()
	if err := pool.Stop(); err != nil {
		log.Warn("Worker pool stop", zap.Error(err))
	}
	wg.Wait()

	log.Info("SNSStream stopped")
	return nil
}
