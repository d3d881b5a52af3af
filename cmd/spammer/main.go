package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/usercache/internal/config"
	"github.com/TemirB/usercache/internal/kafka"
)

type spammerConfig struct {
	Port     string `env:"SPAMMER_PORT" envDefault:"8082"`
	MaxID    uint32 `env:"SPAMMER_MAX_ID" envDefault:"1000"`
	DeletePc int    `env:"SPAMMER_DELETE_PERCENT" envDefault:"10"`
	Kafka    config.Kafka
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type Spammer struct {
	writer    messageWriter
	gen       *generator
	logger    *zap.Logger
	isRunning atomic.Bool
	wg        sync.WaitGroup
	mu        sync.Mutex
	cancel    context.CancelFunc
	totalSent atomic.Int64
	failed    atomic.Int64
	startedAt time.Time
}

// maxRate keeps the ticker interval above zero.
const maxRate = 100_000

type SpamRequest struct {
	Rate     int    `json:"rate"`
	Duration string `json:"duration"`
}

type SpamStats struct {
	IsRunning bool    `json:"is_running"`
	TotalSent int64   `json:"total_sent"`
	Failed    int64   `json:"failed"`
	Rate      float64 `json:"rate"`
}

func NewSpammer(w messageWriter, gen *generator, logger *zap.Logger) *Spammer {
	return &Spammer{writer: w, gen: gen, logger: logger}
}

// StartSpam sends rate events per second for duration. It is a no-op while
// a previous run is still going.
func (s *Spammer) StartSpam(rate int, duration time.Duration) bool {
	if !s.isRunning.CompareAndSwap(false, true) {
		return false
	}
	rate = min(max(rate, 1), maxRate)
	s.totalSent.Store(0)
	s.failed.Store(0)

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	s.mu.Lock()
	s.cancel = cancel
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("Starting spam", zap.Int("rate", rate), zap.Duration("duration", duration))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.isRunning.Store(false)
		defer cancel()

		ticker := time.NewTicker(time.Second / time.Duration(rate))
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.send(ctx); err != nil {
					s.failed.Add(1)
					s.logger.Warn("Error sending message to Kafka", zap.Error(err))
					continue
				}
				s.totalSent.Add(1)
			case <-ctx.Done():
				s.logger.Info("Spam finished",
					zap.Int64("total_sent", s.totalSent.Load()),
					zap.Int64("failed", s.failed.Load()),
				)
				return
			}
		}
	}()
	return true
}

func (s *Spammer) send(ctx context.Context) error {
	ev := s.gen.next()
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(strconv.FormatUint(uint64(ev.ID), 10)),
		Value: value,
		Time:  time.Now(),
	})
}

func (s *Spammer) StopSpam() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Spammer) Stats() SpamStats {
	s.mu.Lock()
	started := s.startedAt
	s.mu.Unlock()

	st := SpamStats{
		IsRunning: s.isRunning.Load(),
		TotalSent: s.totalSent.Load(),
		Failed:    s.failed.Load(),
	}
	if secs := time.Since(started).Seconds(); !started.IsZero() && secs > 0 {
		st.Rate = float64(st.TotalSent) / secs
	}
	return st
}

func (s *Spammer) Close() error {
	s.StopSpam()
	return s.writer.Close()
}

func (s *Spammer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
		var req SpamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.Rate <= 0 {
			req.Rate = 10
		}
		req.Rate = min(req.Rate, maxRate)
		duration, err := time.ParseDuration(req.Duration)
		if err != nil || duration <= 0 {
			http.Error(w, fmt.Sprintf("Invalid duration %q", req.Duration), http.StatusBadRequest)
			return
		}

		if !s.StartSpam(req.Rate, duration) {
			http.Error(w, "already running", http.StatusConflict)
			return
		}
		writeJSON(w, map[string]any{
			"status":   "started",
			"rate":     req.Rate,
			"duration": duration.String(),
		})
	})

	r.Post("/stop", func(w http.ResponseWriter, _ *http.Request) {
		s.StopSpam()
		writeJSON(w, map[string]any{
			"status":     "stopped",
			"total_sent": s.totalSent.Load(),
		})
	})

	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, s.Stats())
	})
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	_ = godotenv.Load("env/.env")

	var cfg spammerConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("config: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{"kafka:9092"}
	}

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	gen := newGenerator(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)), cfg.MaxID, cfg.DeletePc)
	spammer := NewSpammer(kafka.NewWriter(cfg.Kafka), gen, zl)
	defer func() { _ = spammer.Close() }()

	zl.Info("Spammer server started",
		zap.String("port", cfg.Port),
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("endpoints", "POST /start, POST /stop, GET /stats"),
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           spammer.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		zl.Error("spammer server stopped", zap.Error(err))
	}
}
