package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/config"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/obs"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/pipeline"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/queue"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/sns"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const validEnvelope = `{"Records":[{"EventVersion":"1.0","EventSubscriptionArn":"arn:aws:sns:us-east-1:123456789012:orders:sub","EventSource":"aws:sns","Sns":{"Signature":"sig","MessageId":"m-1","Type":"Notification","TopicArn":"arn:aws:sns:us-east-1:123456789012:orders","MessageAttributes":{"k":{"Type":"Binary","Value":"aGk="}},"SignatureVersion":"1","Timestamp":"2022-01-01T12:00:00.123Z","SigningCertURL":"https://example.com/cert.pem","Message":"hello","UnsubscribeURL":"https://example.com/unsub"}}]}`

type recordingDLQ struct {
	mu     sync.Mutex
	causes []error
	fail   bool
}

func (d *recordingDLQ) Publish(_ *types.Event, cause error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return errors.New("dlq unavailable")
	}
	d.causes = append(d.causes, cause)
	return nil
}

func (d *recordingDLQ) published() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]error(nil), d.causes...)
}

type recordingCommitter struct {
	mu     sync.Mutex
	events []*types.Event
}

func (c *recordingCommitter) Commit(event *types.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *recordingCommitter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

type harness struct {
	pool      *Pool
	metrics   *obs.Metrics
	dlq       *recordingDLQ
	committer *recordingCommitter
}

func newHarness(t *testing.T, process ProcessFunc) *harness {
	t.Helper()

	h := &harness{
		metrics:   obs.NewMetricsWithRegisterer("worker-test", prometheus.NewRegistry()),
		dlq:       &recordingDLQ{},
		committer: &recordingCommitter{},
	}
	pool, err := NewPool(1, queue.NewQueue(4, nil), zap.NewNop(), Options{
		Retry: config.RetryConfig{
			MaxAttempts: 2,
			BaseDelayMs: time.Millisecond,
			MaxDelayMs:  2 * time.Millisecond,
			Multiplier:  2.0,
		},
		Metrics:   h.metrics,
		DLQ:       h.dlq,
		Committer: h.committer,
		Process:   process,
	})
	require.NoError(t, err)
	h.pool = pool
	return h
}

func event(value string) *types.Event {
	return &types.Event{Value: []byte(value), Meta: &types.EventMeta{Topic: "sns-events", MaxRetries: 2}}
}

func TestNewPool_Invalid(t *testing.T) {
	t.Parallel()

	metrics := obs.NewMetricsWithRegisterer("worker-test", prometheus.NewRegistry())
	q := queue.NewQueue(1, nil)

	_, err := NewPool(0, q, zap.NewNop(), Options{Metrics: metrics})
	assert.Error(t, err)
	_, err = NewPool(1, nil, zap.NewNop(), Options{Metrics: metrics})
	assert.Error(t, err)
	_, err = NewPool(1, q, nil, Options{Metrics: metrics})
	assert.Error(t, err)
	_, err = NewPool(1, q, zap.NewNop(), Options{})
	assert.Error(t, err)
}

func TestProcessEvent_Success(t *testing.T) {
	t.Parallel()

	var seen *sns.Envelope
	h := newHarness(t, func(_ context.Context, env *sns.Envelope) error {
		seen = env
		return nil
	})

	h.pool.processEvent(context.Background(), event(validEnvelope), 0)

	require.NotNil(t, seen)
	require.Len(t, seen.Records, 1)
	assert.Equal(t, sns.BinaryAttribute("hi"), seen.Records[0].SNS.MessageAttributes["k"])
	assert.Equal(t, 1, h.committer.count())
	assert.Empty(t, h.dlq.published())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.EventsProcessedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RecordsDecodedTotal))
}

func TestProcessEvent_DecodeFailureGoesToDLQWithoutRetry(t *testing.T) {
	t.Parallel()

	calls := 0
	h := newHarness(t, func(context.Context, *sns.Envelope) error {
		calls++
		return nil
	})

	bad := strings.Replace(validEnvelope, `"Type":"Binary"`, `"Type":"Number"`, 1)
	h.pool.processEvent(context.Background(), event(bad), 0)

	assert.Zero(t, calls)
	causes := h.dlq.published()
	require.Len(t, causes, 1)
	assert.ErrorIs(t, causes[0], sns.ErrUnsupportedAttributeType)
	var de *pipeline.DecodeError
	assert.ErrorAs(t, causes[0], &de)
	assert.Equal(t, 1, h.committer.count())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.DecodeFailuresTotal.WithLabelValues("unsupported_attribute_type")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.DLQMessagesTotal))
	assert.Zero(t, testutil.ToFloat64(h.metrics.RetryAttemptsTotal))
}

func TestProcessEvent_ValidationFailureGoesToDLQ(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(context.Context, *sns.Envelope) error { return nil })

	foreign := strings.Replace(validEnvelope, `"EventSource":"aws:sns"`, `"EventSource":"aws:sqs"`, 1)
	h.pool.processEvent(context.Background(), event(foreign), 0)

	causes := h.dlq.published()
	require.Len(t, causes, 1)
	var ve *pipeline.ValidationError
	assert.ErrorAs(t, causes[0], &ve)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ValidationFailures))
	assert.Equal(t, 1, h.committer.count())
}

func TestProcessEvent_TransientFailureIsRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	h := newHarness(t, func(context.Context, *sns.Envelope) error {
		if calls.Add(1) < 3 {
			return &pipeline.ProcessError{Err: errors.New("downstream busy")}
		}
		return nil
	})

	ev := event(validEnvelope)
	h.pool.processEvent(context.Background(), ev, 0)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, ev.Meta.RetryAttempt)
	assert.Empty(t, h.dlq.published())
	assert.Equal(t, 1, h.committer.count())
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.RetryAttemptsTotal))
}

func TestProcessEvent_RetriesExhausted(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(context.Context, *sns.Envelope) error {
		return &pipeline.ProcessError{Err: errors.New("downstream down")}
	})

	h.pool.processEvent(context.Background(), event(validEnvelope), 0)

	causes := h.dlq.published()
	require.Len(t, causes, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RetryExhaustedTotal))
	assert.Equal(t, 1, h.committer.count())
}

func TestProcessEvent_DLQFailureLeavesEventUncommitted(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.dlq.fail = true

	h.pool.processEvent(context.Background(), event(`{"Records":null}`), 0)

	assert.Zero(t, h.committer.count())
	assert.Zero(t, testutil.ToFloat64(h.metrics.DLQMessagesTotal))
}

func TestProcessEvent_CancelledContextDoesNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h.pool.processEvent(ctx, event(`not json`), 0)

	assert.Zero(t, h.committer.count())
	assert.Empty(t, h.dlq.published())
}

func TestPool_StartStop(t *testing.T) {
	t.Parallel()

	var processed atomic.Int32
	h := newHarness(t, func(context.Context, *sns.Envelope) error {
		processed.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, h.pool.Start(ctx))
	assert.ErrorIs(t, h.pool.Start(ctx), ErrPoolAlreadyStarted)

	for range 3 {
		require.NoError(t, h.pool.queue.Enqueue(ctx, event(validEnvelope)))
	}

	require.Eventually(t, func() bool { return h.committer.count() == 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, h.pool.Stop())
	require.NoError(t, h.pool.Stop())
	assert.Equal(t, int32(3), processed.Load())
}
