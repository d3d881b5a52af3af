package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	SourcePostgres = "postgres"
	SourceRedis    = "redis"
	SourceMemory   = "memory"
)

type Cache struct {
	Capacity int  `env:"CACHE_CAP" envDefault:"1024"`
	Shards   int  `env:"CACHE_SHARDS" envDefault:"1"`
	Warm     bool `env:"CACHE_WARM" envDefault:"true"`
}

type Postgres struct {
	Host     string `env:"PG_HOST"`
	Port     string `env:"PG_PORT" envDefault:"5432"`
	DB       string `env:"PG_DB"`
	User     string `env:"PG_USER"`
	Password string `env:"PG_PASSWORD"`
	SSLMode  string `env:"PG_SSLMODE" envDefault:"disable"`
	Schema   string `env:"DB_SCHEMA" envDefault:"public"`
	Table    string `env:"USERS_TABLE" envDefault:"users"`
}

type Redis struct {
	URL      string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	UsersKey string `env:"REDIS_USERS_KEY" envDefault:"users"`
}

type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"users"`
	Group   string   `env:"KAFKA_GROUP" envDefault:"usercache"`
	Workers int      `env:"KAFKA_WORKERS" envDefault:"4"`
}

type Breaker struct {
	Threshold   uint32        `env:"BREAKER_THRESHOLD" envDefault:"5"`
	OpenTimeout time.Duration `env:"BREAKER_OPENTIMEOUT" envDefault:"10s"`
	MaxHalfOpen uint32        `env:"BREAKER_MAXHALFOPEN" envDefault:"3"`
}

type Retry struct {
	Attempts     int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	Base         time.Duration `env:"RETRY_BASE" envDefault:"100ms"`
	Max          time.Duration `env:"RETRY_MAX" envDefault:"2s"`
	JitterFactor float64       `env:"RETRY_JITTERFACTOR" envDefault:"0.3"`
}

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8081"`
	AppEnv   string `env:"APP_ENV" envDefault:"prod"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Source   string `env:"SOURCE" envDefault:"postgres"`

	Cache   Cache
	Pg      Postgres
	Redis   Redis
	Kafka   Kafka
	Breaker Breaker
	Retry   Retry
}

// Load fatals on error for simplicity in main().
func Load() Config {
	cfg, err := load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	return cfg
}

func load() (Config, error) {
	_ = godotenv.Load("env/.env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
	if c.Cache.Shards < 1 {
		log.Printf("CACHE_SHARDS is %d, adjusting to 1", c.Cache.Shards)
		c.Cache.Shards = 1
	}
	if c.Kafka.Workers < 1 {
		log.Printf("KAFKA_WORKERS is %d, adjusting to 1", c.Kafka.Workers)
		c.Kafka.Workers = 1
	}
	if c.Retry.Attempts < 1 {
		log.Printf("RETRY_ATTEMPTS is %d, adjusting to 1", c.Retry.Attempts)
		c.Retry.Attempts = 1
	}
	if c.Retry.Base <= 0 {
		log.Printf("RETRY_BASE is %v, adjusting to 100ms", c.Retry.Base)
		c.Retry.Base = 100 * time.Millisecond
	}
	if c.Retry.Max < c.Retry.Base {
		log.Printf("RETRY_MAX (%v) < RETRY_BASE (%v), adjusting max to base", c.Retry.Max, c.Retry.Base)
		c.Retry.Max = c.Retry.Base
	}
}

var ErrNegativeCapacity = errors.New("CACHE_CAP must not be negative")

func (c Config) validate() error {
	if c.Cache.Capacity < 0 {
		return ErrNegativeCapacity
	}

	req := map[string]string{}
	switch c.Source {
	case SourcePostgres:
		req["PG_HOST"] = c.Pg.Host
		req["PG_DB"] = c.Pg.DB
		req["PG_USER"] = c.Pg.User
		req["PG_PASSWORD"] = c.Pg.Password
		req["USERS_TABLE"] = c.Pg.Table
	case SourceRedis:
		req["REDIS_URL"] = c.Redis.URL
		req["REDIS_USERS_KEY"] = c.Redis.UsersKey
	case SourceMemory:
	default:
		return fmt.Errorf("unknown SOURCE %q", c.Source)
	}
	if len(c.Kafka.Brokers) > 0 && strings.TrimSpace(c.Kafka.Topic) == "" {
		req["KAFKA_TOPIC"] = c.Kafka.Topic
	}

	var missing []string
	for k, v := range req {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, k)
		}
	}
	slices.Sort(missing)
	if len(missing) > 0 {
		return &missingEnvError{Keys: missing}
	}
	return nil
}

type missingEnvError struct{ Keys []string }

func (e *missingEnvError) Error() string {
	return "missing required envs: " + strings.Join(e.Keys, ", ")
}

// KafkaEnabled reports whether event ingestion should run.
func (c Config) KafkaEnabled() bool { return len(c.Kafka.Brokers) > 0 }

// DSN builds a proper Postgres URL, safely escaping user/pass and query.
func (c Config) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Pg.User, c.Pg.Password),
		Host:   net.JoinHostPort(c.Pg.Host, c.Pg.Port),
		Path:   "/" + c.Pg.DB,
	}
	q := url.Values{}
	if c.Pg.SSLMode != "" {
		q.Set("sslmode", c.Pg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
