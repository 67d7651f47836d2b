package consumer

import (
	"testing"
	"time"

	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/config"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/queue"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/types"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Kafka: config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "sns-events", GroupID: "g"},
		Retry: config.RetryConfig{MaxAttempts: 3},
		Queue: config.QueueConfig{Size: 2},
	}
}

func TestNewConsumer_Invalid(t *testing.T) {
	q := queue.NewQueue(1, nil)

	_, err := NewConsumer(nil, zap.NewNop(), q)
	assert.Error(t, err)
	_, err = NewConsumer(testConfig(), nil, q)
	assert.Error(t, err)
	_, err = NewConsumer(testConfig(), zap.NewNop(), nil)
	assert.Error(t, err)
}

func TestEventFor(t *testing.T) {
	msg := kafka.Message{
		Topic:     "sns-events",
		Partition: 3,
		Offset:    99,
		Key:       []byte("k"),
		Value:     []byte(`{"Records":[]}`),
		Time:      time.Now(),
	}

	event := eventFor(msg, 5)
	require.NotNil(t, event.Meta)
	assert.Equal(t, msg.Key, event.Key)
	assert.Equal(t, msg.Value, event.Value)
	assert.Equal(t, types.EventMeta{Topic: "sns-events", Partition: 3, Offset: 99, MaxRetries: 5}, *event.Meta)

	back := messageFor(event)
	assert.Equal(t, "sns-events", back.Topic)
	assert.Equal(t, 3, back.Partition)
	assert.Equal(t, int64(99), back.Offset)
}

func TestCommit_QueuesOffsets(t *testing.T) {
	c, err := NewConsumer(testConfig(), zap.NewNop(), queue.NewQueue(1, nil))
	require.NoError(t, err)
	defer c.Close()

	c.Commit(nil)
	c.Commit(&types.Event{})
	assert.Len(t, c.commitChan, 0)

	c.offsets.track("sns-events", 1, 7)
	c.Commit(&types.Event{Meta: &types.EventMeta{Topic: "sns-events", Partition: 1, Offset: 7}})
	require.Len(t, c.commitChan, 1)
	msg := <-c.commitChan
	assert.Equal(t, int64(7), msg.Offset)
	assert.Equal(t, 1, msg.Partition)

	// A full channel drops the commit instead of blocking the worker.
	for i := range int64(cap(c.commitChan) + 1) {
		c.offsets.track("sns-events", 0, i)
		c.Commit(&types.Event{Meta: &types.EventMeta{Topic: "sns-events", Offset: i}})
	}
	assert.Len(t, c.commitChan, cap(c.commitChan))
}

func TestCommit_WaitsForEarlierOffsets(t *testing.T) {
	cfg := testConfig()
	cfg.Queue.Size = 10
	c, err := NewConsumer(cfg, zap.NewNop(), queue.NewQueue(1, nil))
	require.NoError(t, err)
	defer c.Close()

	event := func(offset int64) *types.Event {
		return &types.Event{Meta: &types.EventMeta{Topic: "sns-events", Partition: 0, Offset: offset}}
	}
	for offset := int64(10); offset <= 12; offset++ {
		c.offsets.track("sns-events", 0, offset)
	}

	// 11 and 12 finish while 10 is still retrying: nothing may be committed,
	// since committing 12 would also acknowledge 10.
	c.Commit(event(12))
	c.Commit(event(11))
	assert.Len(t, c.commitChan, 0)

	c.Commit(event(10))
	require.Len(t, c.commitChan, 1)
	assert.Equal(t, int64(12), (<-c.commitChan).Offset)
	assert.Equal(t, 0, c.offsets.inFlight("sns-events", 0))
}

func TestCommit_AfterStopIsDropped(t *testing.T) {
	c, err := NewConsumer(testConfig(), zap.NewNop(), queue.NewQueue(1, nil))
	require.NoError(t, err)
	defer c.Close()

	c.mu.Lock()
	c.closed = true
	close(c.commitChan)
	c.mu.Unlock()

	assert.NotPanics(t, func() {
		c.Commit(&types.Event{Meta: &types.EventMeta{Topic: "sns-events", Offset: 1}})
	})
}
