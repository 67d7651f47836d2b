// Package worker provides a fixed-size worker pool for processing events from the queue
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/config"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/obs"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/pipeline"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/queue"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/retry"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/sns"
	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/types"
	"go.uber.org/zap"
)

// DeadLetterPublisher receives events that will never be processed successfully
type DeadLetterPublisher interface {
	Publish(event *types.Event, cause error) error
}

// Committer acknowledges an event once it has been processed or dead-lettered
type Committer interface {
	Commit(event *types.Event)
}

// ProcessFunc handles one decoded and validated envelope
type ProcessFunc func(ctx context.Context, env *sns.Envelope) error

// Options configures what a Pool does with each event
type Options struct {
	Retry   config.RetryConfig
	Metrics *obs.Metrics
	// DLQ may be nil, in which case failed events are logged and dropped.
	DLQ DeadLetterPublisher
	// Committer may be nil when events need no acknowledgement.
	Committer Committer
	// Process defaults to pipeline.Process with the pool logger.
	Process ProcessFunc
}

// Pool represents a fixed-size worker pool that processes events from a queue
type Pool struct {
	workerCount int
	queue       *queue.Queue
	logger      *zap.Logger
	opts        Options
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
	mu          sync.Mutex
}

// NewPool creates a new worker pool with the specified number of workers
// workerCount must be greater than 0
func NewPool(workerCount int, queue *queue.Queue, logger *zap.Logger, opts Options) (*Pool, error) {
	if workerCount <= 0 {
		return nil, fmt.Errorf("worker count must be greater than 0, got: %d", workerCount)
	}
	if queue == nil {
		return nil, fmt.Errorf("queue cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if opts.Metrics == nil {
		return nil, fmt.Errorf("metrics cannot be nil")
	}
	if opts.Process == nil {
		opts.Process = func(ctx context.Context, env *sns.Envelope) error {
			return pipeline.Process(ctx, env, logger)
		}
	}

	return &Pool{
		workerCount: workerCount,
		queue:       queue,
		logger:      logger,
		opts:        opts,
	}, nil
}

// Start begins processing events from the queue using the worker pool
// It starts N worker goroutines that pull events from the queue and process them
// Returns an error if the pool is already started
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}

	p.logger.Info("Starting worker pool",
		zap.Int("workerCount", p.workerCount),
		zap.Int("maxRetries", p.opts.Retry.MaxAttempts),
	)

	// Create a context that cancels when the pool is stopped
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.started = true

	for i := range p.workerCount {
		p.wg.Add(1)
		go p.worker(ctx, p.ctx, i)
	}

	return nil
}

// worker is the main loop for a single worker goroutine
// It pulls events from the queue and processes them until either context is cancelled
func (p *Pool) worker(ctx, poolCtx context.Context, workerID int) {
	defer p.wg.Done()

	p.logger.Debug("Worker started",
		zap.Int("workerID", workerID),
	)

	// Dequeue must be interruptible by both the caller and Stop.
	combinedCtx, combinedCancel := combineContexts(ctx, poolCtx)
	defer combinedCancel()

	for {
		select {
		case <-combinedCtx.Done():
			if ctx.Err() != nil {
				p.logger.Debug("Worker stopping due to context cancellation",
					zap.Int("workerID", workerID),
				)
			} else {
				p.logger.Debug("Worker stopping due to pool cancellation",
					zap.Int("workerID", workerID),
				)
			}
			return
		default:
		}

		event, err := p.queue.Dequeue(combinedCtx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				p.logger.Debug("Worker stopping due to context cancellation during dequeue",
					zap.Int("workerID", workerID),
				)
				return
			}

			if err == queue.ErrQueueClosed {
				p.logger.Debug("Worker stopping due to queue closed",
					zap.Int("workerID", workerID),
				)
				return
			}

			p.logger.Error("Failed to dequeue event",
				zap.Error(err),
				zap.Int("workerID", workerID),
			)
			continue
		}

		p.processEvent(ctx, event, workerID)
	}
}

// combineContexts returns a context cancelled as soon as a or b is
func combineContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return combinedCtx, func() {
		stop()
		cancel()
	}
}

// processEvent runs one event through decode -> validate -> process.
// Decode and validation failures are dead-lettered at once; processing
// failures are retried first. The event is committed once it is either
// processed or safely in the DLQ, and left uncommitted on cancellation.
func (p *Pool) processEvent(ctx context.Context, event *types.Event, workerID int) {
	if ctx.Err() != nil {
		return
	}

	fields := []zap.Field{
		zap.Int("workerID", workerID),
		zap.Int("keyLength", len(event.Key)),
		zap.Int("valueLength", len(event.Value)),
		zap.Int("queueDepth", p.queue.Depth()),
	}

	env, err := pipeline.Decode(ctx, event.Value)
	if err != nil {
		if errors.Is(err, pipeline.ErrContextCanceled) {
			return
		}
		kind := sns.Kind(err)
		p.opts.Metrics.IncrementDecodeFailures(kind)
		p.logger.Error("Pipeline decode failed", append(fields, pipeline.ErrorFields(err)...)...)
		p.deadLetter(event, err, workerID)
		return
	}
	p.opts.Metrics.AddRecordsDecoded(len(env.Records))

	if err := pipeline.Validate(ctx, env); err != nil {
		if errors.Is(err, pipeline.ErrContextCanceled) {
			return
		}
		p.opts.Metrics.IncrementValidationFailures()
		p.logger.Error("Pipeline validate failed", append(fields, pipeline.ErrorFields(err)...)...)
		p.deadLetter(event, err, workerID)
		return
	}

	err = retry.DoWithRetry(ctx, &p.opts.Retry, func(attempt int) error {
		if event.Meta != nil {
			event.Meta.RetryAttempt = attempt
		}
		err := p.opts.Process(ctx, env)
		if errors.Is(err, pipeline.ErrContextCanceled) || pipeline.IsPermanent(err) {
			return retry.Permanent(err)
		}
		return err
	}, func(attempt int, err error) {
		p.opts.Metrics.IncrementRetryAttempts()
		p.logger.Warn("Retrying pipeline process",
			append(append(fields, zap.Int("attempt", attempt)), pipeline.ErrorFields(err)...)...,
		)
	})

	switch {
	case err == nil:
		p.opts.Metrics.IncrementEventsProcessed()
		p.commit(event)
	case errors.Is(err, pipeline.ErrContextCanceled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		p.logger.Info("Pipeline process interrupted, event left uncommitted", fields...)
	default:
		if errors.Is(err, retry.ErrMaxRetriesExceeded) {
			p.opts.Metrics.IncrementRetryExhausted()
		}
		p.logger.Error("Pipeline process failed", append(fields, pipeline.ErrorFields(err)...)...)
		p.deadLetter(event, err, workerID)
	}
}

// deadLetter publishes event to the DLQ and commits it once it is stored.
// A failed publish leaves the event uncommitted so the broker redelivers it.
func (p *Pool) deadLetter(event *types.Event, cause error, workerID int) {
	if p.opts.DLQ == nil {
		p.logger.Warn("No DLQ configured, dropping failed event",
			append([]zap.Field{zap.Int("workerID", workerID)}, pipeline.ErrorFields(cause)...)...,
		)
		p.commit(event)
		return
	}

	if err := p.opts.DLQ.Publish(event, cause); err != nil {
		p.logger.Error("Failed to dead-letter event, leaving it uncommitted",
			zap.Int("workerID", workerID),
			zap.Error(err),
		)
		return
	}
	p.opts.Metrics.IncrementDLQMessages()
	p.commit(event)
}

func (p *Pool) commit(event *types.Event) {
	if p.opts.Committer != nil {
		p.opts.Committer.Commit(event)
	}
}

// Stop gracefully stops the worker pool
// It cancels the internal context and waits for all workers to finish
// This ensures in-flight events are processed before shutdown
func (p *Pool) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return nil
	}
	p.started = false

	p.logger.Info("Stopping worker pool",
		zap.Int("workerCount", p.workerCount),
	)

	if p.cancel != nil {
		p.cancel()
	}

	p.wg.Wait()

	p.logger.Info("Worker pool stopped",
		zap.Int("workerCount", p.workerCount),
	)

	p.ctx = nil
	p.cancel = nil

	return nil
}

// Errors
var (
	ErrPoolAlreadyStarted = &PoolError{msg: "worker pool is already started"}
)

// PoolError represents a worker pool operation error
type PoolError struct {
	msg string
}

func (e *PoolError) Error() string {
	return e.msg
}
