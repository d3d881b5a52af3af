package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/usercache/internal/config"
	"github.com/TemirB/usercache/internal/domain"
	"github.com/TemirB/usercache/internal/pkg/retry"
)

//go:generate mockgen -source=handler.go -destination=handler_mock_test.go -package=handler

var (
	ErrBadJSON     = errors.New("bad json")
	ErrApply       = errors.New("apply event failed")
	ErrCircuitOpen = errors.New("circuit breaker open")
)

type Service interface {
	Upsert(ctx context.Context, u domain.User) error
	Delete(ctx context.Context, id uint32) error
}

type brk interface {
	Allow() error
	Success()
	Failure()
}

type Handler struct {
	service     Service
	breaker     brk
	logger      *zap.Logger
	retryPolicy config.Retry
}

func NewHandler(service Service, breaker brk, retryPolicy config.Retry, logger *zap.Logger) *Handler {
	return &Handler{
		service:     service,
		breaker:     breaker,
		logger:      logger,
		retryPolicy: retryPolicy,
	}
}

// IsPoison reports whether err means the message can never be applied and
// its offset may be committed anyway.
func IsPoison(err error) bool { return errors.Is(err, ErrBadJSON) }

// Handle applies one user event. Malformed events are rejected before the
// breaker is consulted, so they never count against the service.
func (h *Handler) Handle(ctx context.Context, message kafkago.Message) error {
	var ev domain.UserEvent
	if err := json.Unmarshal(message.Value, &ev); err != nil {
		h.logger.Error("bad json format",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		return ErrBadJSON
	}
	if err := ev.Validate(); err != nil {
		h.logger.Error("invalid user event",
			zap.Error(err),
			zap.Uint32("user_id", ev.ID),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		return fmt.Errorf("%w: %v", ErrBadJSON, err)
	}

	if err := h.breaker.Allow(); err != nil {
		h.logger.Warn("circuit breaker is open",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}

	if err := retry.Do(ctx, h.retryPolicy, func() error {
		return h.apply(ctx, ev)
	}); err != nil {
		h.logger.Error("event failed after retries",
			zap.String("op", ev.Op),
			zap.Uint32("user_id", ev.ID),
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		return fmt.Errorf("%w: %v", ErrApply, err)
	}

	h.breaker.Success()
	h.logger.Info("successfully processed user event",
		zap.String("op", ev.Op),
		zap.Uint32("user_id", ev.ID),
		zap.Int("partition", message.Partition),
		zap.Int64("offset", message.Offset),
		zap.Int("value_bytes", len(message.Value)),
	)
	return nil
}

func (h *Handler) apply(ctx context.Context, ev domain.UserEvent) error {
	if ev.Op == domain.OpDelete {
		return h.service.Delete(ctx, ev.ID)
	}
	return h.service.Upsert(ctx, ev.User())
}
