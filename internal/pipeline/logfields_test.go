package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorFields_OmitsPayloadText(t *testing.T) {
	_, decodeErr := Decode(context.Background(), withReplace(`"Timestamp": "2019-01-02T12:45:07.000Z"`, `"Timestamp": "secret-ts"`))
	if decodeErr == nil {
		t.Fatal("Expected decode error")
	}
	_, tagErr := Decode(context.Background(), withReplace(`"Type": "String"`, `"Type": "secret-tag"`))
	if tagErr == nil {
		t.Fatal("Expected decode error")
	}
	validationErr := &ValidationError{Field: "Records[0].EventSource", Reason: `is "secret-source", want "aws:sns"`}

	tests := []struct {
		name     string
		err      error
		wantKind string
		wantPath string
	}{
		{name: "timestamp", err: decodeErr, wantKind: "invalid_timestamp", wantPath: "Records[0].Sns.Timestamp"},
		{name: "tag", err: tagErr, wantKind: "unsupported_attribute_type", wantPath: "Records[0].Sns.MessageAttributes.Test.Type"},
		{name: "validation", err: validationErr, wantKind: "validation", wantPath: "Records[0].EventSource"},
		{name: "wrapped_validation", err: fmt.Errorf("stage: %w", &ProcessError{Err: validationErr}), wantKind: "validation", wantPath: "Records[0].EventSource"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			zap.New(core).Error("failed", ErrorFields(tt.err)...)

			entry := logs.All()[0]
			ctx := entry.ContextMap()
			if ctx["errorKind"] != tt.wantKind {
				t.Errorf("Expected kind %q, got %v", tt.wantKind, ctx["errorKind"])
			}
			if tt.wantPath != "" && ctx["errorPath"] != tt.wantPath {
				t.Errorf("Expected path %q, got %v", tt.wantPath, ctx["errorPath"])
			}
			for key, value := range ctx {
				if s, ok := value.(string); ok && strings.Contains(s, "secret") {
					t.Errorf("Field %s leaks payload text: %q", key, s)
				}
			}
		})
	}
}

func TestErrorFields_OtherErrors(t *testing.T) {
	if ErrorFields(nil) != nil {
		t.Error("Expected no fields for nil error")
	}

	core, logs := observer.New(zap.InfoLevel)
	zap.New(core).Error("failed", ErrorFields(errors.New("broker unavailable"))...)
	if got := logs.All()[0].ContextMap()["error"]; got != "broker unavailable" {
		t.Errorf("Expected error field, got %v", got)
	}
}
