package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/usercache/internal/cache"
	"github.com/TemirB/usercache/internal/domain"
	"github.com/TemirB/usercache/internal/observability"
)

//go:generate mockgen -source=service.go -destination=service_mock_test.go -package=service

type Cache interface {
	Lookup(ctx context.Context, id uint32) (string, bool, error)
	Refresh(id uint32, name string)
	Invalidate(id uint32) bool
	Stats() cache.Stats
	Len() int
	Cap() int
}

type Storage interface {
	Upsert(ctx context.Context, u domain.User) error
	Delete(ctx context.Context, id uint32) error
}

type Service struct {
	users   Cache
	storage Storage
	logger  *zap.Logger
	metrics observability.Metrics
}

func NewService(users Cache, storage Storage, logger *zap.Logger, metrics observability.Metrics) *Service {
	return &Service{
		users:   users,
		storage: storage,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *Service) GetUserByID(ctx context.Context, id uint32) (domain.User, error) {
	u, _, err := s.GetUserByIDWithStats(ctx, id)
	return u, err
}

func (s *Service) GetUserByIDWithStats(ctx context.Context, id uint32) (domain.User, LookupStats, error) {
	var st LookupStats

	t0 := time.Now()
	name, hit, err := s.users.Lookup(ctx, id)
	took := observability.SinceMs(t0)

	if hit {
		st.Source = SourceCache
		st.CacheMs = took
		s.metrics.IncCacheHit()
		s.metrics.ObserveLookup(string(st.Source), st.CacheMs, 0)
		s.logger.Debug("User fetched from cache",
			zap.Uint32("user_id", id),
			zap.Float64("cache_ms", st.CacheMs),
		)
		return domain.User{ID: id, Name: name}, st, nil
	}

	s.metrics.IncCacheMiss()
	st.SourceMs = took
	if err != nil {
		s.logger.Warn("Can't find user",
			zap.Uint32("user_id", id),
			zap.Float64("source_ms", st.SourceMs),
			zap.Error(err),
		)
		return domain.User{}, st, err
	}

	st.Source = SourceDirectory
	s.metrics.ObserveLookup(string(st.Source), 0, st.SourceMs)
	s.logger.Info("User fetched from directory",
		zap.Uint32("user_id", id),
		zap.Float64("source_ms", st.SourceMs),
	)
	return domain.User{ID: id, Name: name}, st, nil
}

// Upsert writes u to storage and then replaces the cached name.
func (s *Service) Upsert(ctx context.Context, u domain.User) error {
	_, err := s.UpsertWithStats(ctx, u)
	return err
}

func (s *Service) UpsertWithStats(ctx context.Context, u domain.User) (UpsertStats, error) {
	var st UpsertStats
	if err := u.Validate(); err != nil {
		return st, err
	}

	t0 := time.Now()
	if err := s.storage.Upsert(ctx, u); err != nil {
		s.logger.Error("Error while upserting user",
			zap.Uint32("user_id", u.ID),
			zap.Error(err),
		)
		return st, err
	}
	st.WriteMs = observability.SinceMs(t0)

	s.users.Refresh(u.ID, u.Name)

	s.metrics.ObserveUpsert(st.WriteMs)
	s.logger.Info("User upserted",
		zap.Uint32("user_id", u.ID),
		zap.Float64("write_ms", st.WriteMs),
	)
	return st, nil
}

// Delete removes the user from storage, then from the cache.
func (s *Service) Delete(ctx context.Context, id uint32) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		s.logger.Error("Error while deleting user",
			zap.Uint32("user_id", id),
			zap.Error(err),
		)
		return err
	}

	cached := s.users.Invalidate(id)
	s.logger.Info("User deleted",
		zap.Uint32("user_id", id),
		zap.Bool("was_cached", cached),
	)
	return nil
}

func (s *Service) CacheStats() CacheStats {
	st := s.users.Stats()
	return CacheStats{
		Stats:    st,
		Len:      s.users.Len(),
		Cap:      s.users.Cap(),
		HitRatio: st.HitRatio(),
	}
}
