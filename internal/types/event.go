// Package types defines shared types used across the application
package types

// Event is one broker message carrying a raw SNS envelope payload.
// Key and Value are kept as bytes; Value is decoded by the pipeline.
type Event struct {
	Key   []byte
	Value []byte
	Meta  *EventMeta
}

// EventMeta carries broker coordinates and retry bookkeeping for an Event.
// It is nil for events that did not come from Kafka (e.g. Lambda invocations).
type EventMeta struct {
	Topic        string
	Partition    int
	Offset       int64
	RetryAttempt int
	MaxRetries   int
}
