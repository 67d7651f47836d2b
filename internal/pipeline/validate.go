// Package pipeline implements event processing stages: decode -> validate -> process.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/sns"
)

// EventSourceSNS is the EventSource value of records delivered by SNS.
const EventSourceSNS = "aws:sns"

// Validate checks the decoded envelope beyond its shape: every record must come
// from SNS and identify its message and topic.
// It returns a typed *ValidationError for validation failures.
func Validate(ctx context.Context, env *sns.Envelope) error {
	if err := ctx.Err(); err != nil {
		return ErrContextCanceled
	}
	if env == nil {
		return &ValidationError{Field: "Envelope", Reason: "is nil"}
	}

	for i, r := range env.Records {
		if r.EventSource != EventSourceSNS {
			return &ValidationError{
				Field:  fmt.Sprintf("Records[%d].EventSource", i),
				Reason: fmt.Sprintf("is %q, want %q", r.EventSource, EventSourceSNS),
			}
		}
		if strings.TrimSpace(r.SNS.MessageID) == "" {
			return &ValidationError{Field: fmt.Sprintf("Records[%d].Sns.MessageId", i), Reason: "is required"}
		}
		if strings.TrimSpace(r.SNS.TopicArn) == "" {
			return &ValidationError{Field: fmt.Sprintf("Records[%d].Sns.TopicArn", i), Reason: "is required"}
		}
	}

	return nil
}
