// Package consumer reads raw SNS envelopes from Kafka into the internal queue
package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/config"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/queue"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/types"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Consumer represents a Kafka consumer
type Consumer struct {
	reader     *kafka.Reader
	logger     *zap.Logger
	queue      *queue.Queue
	commitChan chan kafka.Message
	maxRetries int
	offsets    *offsetTracker

	// mu guards commitChan against sends after the commit loop stops
	mu     sync.RWMutex
	closed bool
}

// NewConsumer creates a new Kafka consumer instance
func NewConsumer(cfg *config.Config, logger *zap.Logger, queue *queue.Queue) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if queue == nil {
		return nil, fmt.Errorf("queue cannot be nil")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topic,
		GroupID:        cfg.Kafka.GroupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: 0,    // Manual commit only
	})

	return &Consumer{
		reader:     reader,
		logger:     logger,
		queue:      queue,
		commitChan: make(chan kafka.Message, cfg.Queue.Size),
		maxRetries: cfg.Retry.MaxAttempts,
		offsets:    newOffsetTracker(),
	}, nil
}

// Commit marks a processed or dead-lettered event as done. Its offset is
// queued for commit once every earlier offset of its partition is done too.
// Events without broker metadata are ignored.
func (c *Consumer) Commit(event *types.Event) {
	if event == nil || event.Meta == nil {
		return
	}
	msg := messageFor(event)
	c.offsets.finish(msg.Topic, msg.Partition, msg.Offset, func(offset int64) {
		msg.Offset = offset
		c.CommitMessage(msg)
	})
}

// CommitMessage queues a message for commit
func (c *Consumer) CommitMessage(msg kafka.Message) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.logger.Warn("Consumer stopped, offset not committed",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
		return
	}

	select {
	case c.commitChan <- msg:
	default:
		c.logger.Warn("Commit channel full, message may be re-processed",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
	}
}

// Start begins consuming messages from Kafka
// It respects context cancellation for graceful shutdown
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer",
		zap.Strings("brokers", c.reader.Config().Brokers),
		zap.String("topic", c.reader.Config().Topic),
		zap.String("groupID", c.reader.Config().GroupID),
	)

	commitDone := make(chan struct{})
	go c.commitLoop(commitDone)

	stop := func(reason string) {
		c.logger.Info(reason)
		c.mu.Lock()
		c.closed = true
		close(c.commitChan)
		c.mu.Unlock()
		<-commitDone
	}

	for {
		select {
		case <-ctx.Done():
			stop("Context cancelled, stopping consumer")
			return ctx.Err()
		default:
		}

		// FetchMessage does not auto-commit
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				stop("Consumer stopped due to context cancellation")
				return err
			}
			// Network errors are transient
			c.logger.Error("Failed to fetch message from Kafka",
				zap.Error(err),
			)
			continue
		}

		event := eventFor(msg, c.maxRetries)
		c.offsets.track(msg.Topic, msg.Partition, msg.Offset)

		// Blocks while the queue is full (backpressure)
		if err := c.queue.Enqueue(ctx, event); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				stop("Consumer stopped due to context cancellation during enqueue")
				return err
			}
			if err == queue.ErrQueueClosed {
				stop("Queue closed, stopping consumer")
				return err
			}
			c.offsets.untrack(msg.Topic, msg.Partition, msg.Offset)
			c.logger.Error("Failed to enqueue event",
				zap.Error(err),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			continue
		}

		// Payloads may carry message bodies; log metadata only
		c.logger.Debug("Enqueued SNS envelope",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Int("keyLength", len(msg.Key)),
			zap.Int("valueLength", len(msg.Value)),
			zap.Time("timestamp", msg.Time),
			zap.Int("queueDepth", c.queue.Depth()),
		)
	}
}

// eventFor converts a fetched Kafka message into a queue event
func eventFor(msg kafka.Message, maxRetries int) *types.Event {
	return &types.Event{
		Key:   msg.Key,
		Value: msg.Value,
		Meta: &types.EventMeta{
			Topic:      msg.Topic,
			Partition:  msg.Partition,
			Offset:     msg.Offset,
			MaxRetries: maxRetries,
		},
	}
}

// messageFor rebuilds the coordinates kafka-go needs to commit an event
func messageFor(event *types.Event) kafka.Message {
	return kafka.Message{
		Topic:     event.Meta.Topic,
		Partition: event.Meta.Partition,
		Offset:    event.Meta.Offset,
	}
}

// commitLoop commits offsets as they are received until commitChan is closed
func (c *Consumer) commitLoop(done chan struct{}) {
	defer close(done)

	// Not tied to the consumer context so the channel is drained on shutdown
	commitCtx := context.Background()

	for msg := range c.commitChan {
		if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
			c.logger.Error("Failed to commit offset",
				zap.Error(err),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
		} else {
			c.logger.Debug("Committed offset",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
		}
	}
}

// Close closes the Kafka consumer and releases resources
func (c *Consumer) Close() error {
	if c.reader != nil {
		c.logger.Info("Closing Kafka consumer")
		if err := c.reader.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka reader: %w", err)
		}
	}
	return nil
}
