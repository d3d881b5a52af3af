package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/usercache/internal/observability"
	"github.com/TemirB/usercache/internal/pkg/pool"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg kafkago.Message) error
}

type Reader interface {
	Config() kafkago.ReaderConfig
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type Option func(*Consumer)

func WithMetrics(m observability.Metrics) Option {
	return func(c *Consumer) { c.metrics = m }
}

// WithSkip commits messages whose handler error satisfies skip instead of
// leaving them uncommitted.
func WithSkip(skip func(error) bool) Option {
	return func(c *Consumer) { c.skip = skip }
}

// WithBackoff overrides the pauses after idle fetches, fetch errors and
// handler or commit errors.
func WithBackoff(idle, fetchErr, failed time.Duration) Option {
	return func(c *Consumer) {
		c.idleBackoff, c.fetchBackoff, c.failBackoff = idle, fetchErr, failed
	}
}

type Consumer struct {
	handler MessageHandler
	reader  Reader
	logger  *zap.Logger
	metrics observability.Metrics
	skip    func(error) bool

	workers      int
	idleBackoff  time.Duration
	fetchBackoff time.Duration
	failBackoff  time.Duration
}

func NewConsumer(handler MessageHandler, reader Reader, workers int, logger *zap.Logger, opts ...Option) *Consumer {
	c := &Consumer{
		handler:      handler,
		reader:       reader,
		logger:       logger,
		metrics:      observability.NewNoop(),
		skip:         func(error) bool { return false },
		workers:      max(workers, 1),
		idleBackoff:  10 * time.Second,
		fetchBackoff: 500 * time.Millisecond,
		failBackoff:  200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start fetches until ctx is done. Each message is handed to the worker pool
// and its result awaited before the next fetch, so offsets are committed in
// the order they were received.
func (c *Consumer) Start(ctx context.Context) {
	rc := c.reader.Config()
	c.logger.Info("Starting Kafka consumer",
		zap.Strings("brokers", rc.Brokers),
		zap.String("group", rc.GroupID),
		zap.String("topic", rc.Topic),
		zap.Int("workers", c.workers),
	)

	workers := pool.New(c.workers)
	defer func() {
		workers.Close()
		workers.Wait()
		c.logger.Info("Kafka consumer stopped")
	}()

	for ctx.Err() == nil {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			if isBenignFetchTimeout(err) {
				c.logger.Debug("fetch timeout (idle), backing off", zap.Error(err))
				sleepWithContext(ctx, c.idleBackoff)
				continue
			}
			c.logger.Warn("FetchMessage error, backing off", zap.Error(err))
			sleepWithContext(ctx, c.fetchBackoff)
			continue
		}

		if !c.deliver(ctx, workers, msg) {
			return
		}
	}
}

// deliver runs msg through the handler until it succeeds or is skippable,
// then commits it. A failed message is retried in place: fetching past it
// and committing a later offset would drop it. deliver returns false once
// ctx is done or the pool is closed.
func (c *Consumer) deliver(ctx context.Context, workers *pool.Pool, msg kafkago.Message) bool {
	for {
		done := make(chan error, 1)
		if err := workers.Submit(ctx, func() { done <- c.process(ctx, msg) }); err != nil {
			return false
		}

		var procErr error
		select {
		case procErr = <-done:
		case <-ctx.Done():
			return false
		}

		if procErr == nil || c.skip(procErr) {
			if procErr != nil {
				c.logger.Warn("skipping message that cannot be applied",
					zap.Error(procErr),
					zap.Int("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
				)
			}
			return c.commit(ctx, msg)
		}

		c.logger.Error("handler failed; retrying message",
			zap.Error(procErr),
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
		sleepWithContext(ctx, c.failBackoff)
		if ctx.Err() != nil {
			return false
		}
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafkago.Message) bool {
	for {
		err := c.reader.CommitMessages(ctx, msg)
		if err == nil {
			c.logger.Debug("message committed",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			return true
		}
		c.logger.Warn("commit failed",
			zap.Error(err),
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
		sleepWithContext(ctx, c.failBackoff)
		if ctx.Err() != nil {
			return false
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafkago.Message) error {
	start := time.Now()
	err := c.handler.Handle(ctx, msg)
	elapsed := time.Since(start)
	c.metrics.ObserveKafka(observability.SinceMs(start), err == nil)

	if err != nil {
		c.logger.Error("message handling failed",
			zap.Error(err),
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Duration("elapsed", elapsed),
		)
		return err
	}
	c.logger.Debug("message handled",
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
		zap.Int("value_bytes", len(msg.Value)),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func isBenignFetchTimeout(err error) bool {
	s := err.Error()
	return strings.Contains(s, "Request Timed Out") ||
		strings.Contains(s, "no messages received from kafka within the allocated time")
}
