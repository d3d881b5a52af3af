package usercache

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/TemirB/usercache/internal/config"
	"github.com/TemirB/usercache/internal/domain"
	"github.com/TemirB/usercache/internal/pkg/breaker"
	"github.com/TemirB/usercache/internal/pkg/retry"
)

// Guard retries transient directory failures and stops calling a directory
// that keeps failing. domain.ErrNotFound is an answer, not a failure: it is
// neither retried nor counted by the breaker.
type Guard struct {
	dir     domain.UserDirectory
	breaker *breaker.Breaker
	policy  config.Retry
	logger  *zap.Logger
}

func NewGuard(dir domain.UserDirectory, brk *breaker.Breaker, policy config.Retry, logger *zap.Logger) *Guard {
	return &Guard{
		dir:     dir,
		breaker: brk,
		policy:  policy,
		logger:  logger,
	}
}

func (g *Guard) NameByID(ctx context.Context, id uint32) (string, error) {
	if err := g.breaker.Allow(); err != nil {
		g.logger.Warn("directory circuit is open",
			zap.Uint32("user_id", id),
			zap.Error(err),
		)
		return "", err
	}

	var name string
	err := retry.Do(ctx, g.policy, func() error {
		n, err := g.dir.NameByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return retry.Permanent(err)
		}
		if err != nil {
			g.logger.Debug("directory lookup failed, retrying",
				zap.Uint32("user_id", id),
				zap.Error(err),
			)
			return err
		}
		name = n
		return nil
	})

	switch {
	case err == nil, errors.Is(err, domain.ErrNotFound):
		g.breaker.Success()
	case ctx.Err() != nil && isContextErr(err):
		g.breaker.Release()
		g.logger.Debug("directory lookup abandoned by caller",
			zap.Uint32("user_id", id),
			zap.Error(err),
		)
	default:
		g.breaker.Failure()
		g.logger.Error("directory lookup failed after retries",
			zap.Uint32("user_id", id),
			zap.Stringer("breaker", g.breaker.State()),
			zap.Error(err),
		)
	}
	return name, err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
