// Package pipeline implements event processing stages: decode -> validate -> process.
package pipeline

import (
	"context"

	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/sns"
)

// Decode decodes an SNS notification envelope from the provided message value.
// Any decoder failure is returned as a *DecodeError wrapping the typed sns error,
// so errors.Is(err, sns.ErrMissingField) and friends keep working.
func Decode(ctx context.Context, value []byte) (*sns.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrContextCanceled
	}

	env, err := sns.Decode(value)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	// Decoding is not interruptible, so report a cancellation that happened meanwhile.
	if err := ctx.Err(); err != nil {
		return nil, ErrContextCanceled
	}

	return env, nil
}
