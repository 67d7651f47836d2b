// Package main runs the SNS envelope pipeline as an AWS Lambda function
// subscribed directly to an SNS topic.
package main

import (
	"context"
	"encoding/json"

	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/logger"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/pipeline"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

// handler decodes, validates and processes one invocation payload.
// A returned error makes Lambda retry or dead-letter the invocation.
type handler struct {
	logger *zap.Logger
}

func (h *handler) Handle(ctx context.Context, payload json.RawMessage) error {
	env, err := pipeline.Decode(ctx, payload)
	if err != nil {
		h.logger.Error("Rejected SNS payload", pipeline.ErrorFields(err)...)
		return err
	}

	if err := pipeline.Validate(ctx, env); err != nil {
		h.logger.Error("Invalid SNS envelope", pipeline.ErrorFields(err)...)
		return err
	}

	return pipeline.Process(ctx, env, h.logger)
}

func main() {
	l, err := logger.New(getEnv("LOG_LEVEL", "info"), getEnv("SERVICE_NAME", "snsstream-lambda"))
	if err != nil {
		panic(err)
	}
	defer l.Sync()

	h := &handler{logger: l}
	lambda.Start(h.Handle)
}
