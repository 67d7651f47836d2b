// Package pipeline implements event processing stages: decode -> validate -> process.
package pipeline

import (
	"context"

	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/sns"
	"go.uber.org/zap"
)

// Process handles a decoded and validated envelope, one record at a time.
// Only metadata is logged, never the message body or attribute values.
func Process(ctx context.Context, env *sns.Envelope, logger *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return ErrContextCanceled
	}
	if env == nil {
		return &ProcessError{Err: &ValidationError{Field: "Envelope", Reason: "is nil"}}
	}
	if logger == nil {
		return &ProcessError{Err: &ValidationError{Field: "Logger", Reason: "is nil"}}
	}

	for _, r := range env.Records {
		if err := ctx.Err(); err != nil {
			return ErrContextCanceled
		}

		m := r.SNS
		binary := 0
		for _, attr := range m.MessageAttributes {
			if _, ok := attr.(sns.BinaryAttribute); ok {
				binary++
			}
		}

		logger.Info("Processed SNS message",
			zap.String("messageId", m.MessageID),
			zap.String("topicArn", m.TopicArn),
			zap.String("type", m.Type),
			zap.Time("timestamp", m.Timestamp),
			zap.Bool("hasSubject", m.Subject != nil),
			zap.Int("attributes", len(m.MessageAttributes)),
			zap.Int("binaryAttributes", binary),
			zap.Int("messageLength", len(m.Message)),
		)
	}

	return nil
}
