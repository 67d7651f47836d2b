// Package dlq provides dead-letter queue functionality for SNS envelopes that
// cannot be decoded, fail validation or exhaust their retries
package dlq

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/config"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/pipeline"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/sns"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/types"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Header keys set on every dead-lettered message.
const (
	HeaderErrorMessage      = "error_message"
	HeaderErrorStage        = "error_stage"
	HeaderErrorKind         = "error_kind"
	HeaderErrorPath         = "error_path"
	HeaderTimestamp         = "timestamp"
	HeaderOriginalTopic     = "original_topic"
	HeaderOriginalPartition = "original_partition"
	HeaderOriginalOffset    = "original_offset"
	HeaderRetryAttempts     = "retry_attempts"
	HeaderMaxRetries        = "max_retries"
)

const maxDLQAttempts = 3

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing failed messages to the dead-letter queue
type Producer struct {
	writer     MessageWriter
	logger     *zap.Logger
	topic      string
	retryDelay time.Duration
}

// NewProducer creates a new DLQ producer backed by a kafka-go writer
func NewProducer(cfg *config.Config, logger *zap.Logger) (*Producer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.DLQ.Brokers...),
		Topic:        cfg.DLQ.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	return NewProducerWithWriter(writer, cfg.DLQ.Topic, logger)
}

// NewProducerWithWriter creates a DLQ producer on top of an existing writer
func NewProducerWithWriter(writer MessageWriter, topic string, logger *zap.Logger) (*Producer, error) {
	if writer == nil {
		return nil, fmt.Errorf("writer cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Producer{
		writer:     writer,
		logger:     logger,
		topic:      topic,
		retryDelay: 100 * time.Millisecond,
	}, nil
}

// Publish sends the original payload of a failed event to the DLQ. The cause
// is described in headers: stage, decode error kind and field path.
func (p *Producer) Publish(event *types.Event, cause error) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	msg := kafka.Message{
		Key:     event.Key,
		Value:   event.Value,
		Headers: buildHeaders(event, cause, time.Now()),
		Time:    time.Now(),
	}

	var lastErr error
	for attempt := range maxDLQAttempts {
		// The DLQ write must survive shutdown; kafka-go's WriteTimeout bounds it.
		lastErr = p.writer.WriteMessages(context.Background(), msg)
		if lastErr == nil {
			p.logger.Info("Message published to DLQ",
				zap.String("dlq_topic", p.topic),
				zap.String("original_topic", getOriginalTopic(event)),
				zap.Int("original_partition", getIntFromMeta(event, "partition")),
				zap.Int64("original_offset", getOriginalOffset(event)),
				zap.Int("retry_attempts", getIntFromMeta(event, "retry_attempts")),
				zap.String("error_stage", stageOf(cause)),
				zap.String("error_kind", sns.Kind(cause)),
				zap.String("error_path", sns.FieldPath(cause)),
			)
			return nil
		}

		p.logger.Warn("Failed to publish to DLQ, will retry",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxDLQAttempts),
			zap.Error(lastErr),
		)

		if attempt < maxDLQAttempts-1 {
			time.Sleep(p.retryDelay)
		}
	}

	p.logger.Error("Failed to publish message to DLQ after all attempts",
		zap.String("dlq_topic", p.topic),
		zap.String("original_topic", getOriginalTopic(event)),
		zap.Int("max_attempts", maxDLQAttempts),
		zap.Error(lastErr),
	)

	return fmt.Errorf("failed to publish to DLQ after %d attempts: %w", maxDLQAttempts, lastErr)
}

// Close closes the DLQ producer and releases resources
func (p *Producer) Close() error {
	if p.writer != nil {
		p.logger.Info("Closing DLQ producer")
		return p.writer.Close()
	}
	return nil
}

func buildHeaders(event *types.Event, cause error, now time.Time) []kafka.Header {
	errorMsg := ""
	if cause != nil {
		errorMsg = cause.Error()
	}

	headers := []kafka.Header{
		{Key: HeaderErrorMessage, Value: []byte(errorMsg)},
		{Key: HeaderErrorStage, Value: []byte(stageOf(cause))},
		{Key: HeaderTimestamp, Value: []byte(now.Format(time.RFC3339))},
	}
	if kind := sns.Kind(cause); kind != "" && kind != "unknown" {
		headers = append(headers, kafka.Header{Key: HeaderErrorKind, Value: []byte(kind)})
	}
	if path := sns.FieldPath(cause); path != "" {
		headers = append(headers, kafka.Header{Key: HeaderErrorPath, Value: []byte(path)})
	}

	if event.Meta != nil {
		headers = append(headers,
			kafka.Header{Key: HeaderOriginalTopic, Value: []byte(event.Meta.Topic)},
			kafka.Header{Key: HeaderOriginalPartition, Value: []byte(strconv.Itoa(event.Meta.Partition))},
			kafka.Header{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(event.Meta.Offset, 10))},
			kafka.Header{Key: HeaderRetryAttempts, Value: []byte(strconv.Itoa(event.Meta.RetryAttempt))},
			kafka.Header{Key: HeaderMaxRetries, Value: []byte(strconv.Itoa(event.Meta.MaxRetries))},
		)
	}

	return headers
}

// stageOf names the pipeline stage that produced err.
func stageOf(err error) string {
	var (
		de *pipeline.DecodeError
		ve *pipeline.ValidationError
		pe *pipeline.ProcessError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &de):
		return "decode"
	case errors.As(err, &pe):
		return "process"
	case errors.As(err, &ve):
		return "validate"
	default:
		return "unknown"
	}
}

func getOriginalTopic(event *types.Event) string {
	if event.Meta == nil {
		return ""
	}

	return event.Meta.Topic
}

func getIntFromMeta(event *types.Event, field string) int {
	if event.Meta == nil {
		return 0
	}
	switch field {
	case "partition":
		return event.Meta.Partition
	case "retry_attempts":
		return event.Meta.RetryAttempt
	default:
		return 0
	}
}

func getOriginalOffset(event *types.Event) int64 {
	if event.Meta == nil {
		return 0
	}

	return event.Meta.Offset
}
