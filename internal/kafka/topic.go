package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/usercache/internal/config"
)

var (
	ErrNoBrokers  = errors.New("no kafka brokers configured")
	ErrEmptyTopic = errors.New("empty topic")
)

const (
	topicDialTimeout = 10 * time.Second
	topicReadyWait   = 10 * time.Second
	topicPollEvery   = 500 * time.Millisecond
)

// EnsureTopic creates the user events topic when it is missing and waits
// until its partitions show up in the metadata.
func EnsureTopic(ctx context.Context, cfg config.Kafka, partitions, replication int, log *zap.Logger) error {
	if len(cfg.Brokers) == 0 {
		return ErrNoBrokers
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		return ErrEmptyTopic
	}

	dialer := &kafkago.Dialer{Timeout: topicDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	if n := partitionCount(conn, topic); n > 0 {
		log.Info("user events topic exists", zap.String("topic", topic), zap.Int("partitions", n))
		return nil
	}

	log.Info("creating user events topic",
		zap.String("topic", topic),
		zap.Int("partitions", partitions),
		zap.Int("replication", replication),
	)
	if err := createOnController(ctx, dialer, conn, kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replication,
	}); err != nil {
		return err
	}

	return waitForPartitions(ctx, conn, topic, partitions, log)
}

func partitionCount(conn *kafkago.Conn, topic string) int {
	parts, err := conn.ReadPartitions(topic)
	if err != nil {
		return 0
	}
	return len(parts)
}

// createOnController sends CreateTopics to the cluster controller, the only
// broker allowed to create topics.
func createOnController(ctx context.Context, dialer *kafkago.Dialer, conn *kafkago.Conn, tc kafkago.TopicConfig) error {
	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("get controller: %w", err)
	}
	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))

	ctrl, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial controller %s: %w", addr, err)
	}
	defer ctrl.Close()

	err = ctrl.CreateTopics(tc)
	if err != nil && !errors.Is(err, kafkago.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", tc.Topic, err)
	}
	return nil
}

func waitForPartitions(ctx context.Context, conn *kafkago.Conn, topic string, want int, log *zap.Logger) error {
	deadline := time.Now().Add(topicReadyWait)
	for {
		if n := partitionCount(conn, topic); n >= want {
			log.Info("user events topic is ready", zap.String("topic", topic), zap.Int("partitions", n))
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("topic %s not visible after creation", topic)
		}
		sleepWithContext(ctx, topicPollEvery)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
