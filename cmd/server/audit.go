package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	"studioreg/internal/platform/config"
	platformkafka "studioreg/internal/platform/kafka"
	platformpostgres "studioreg/internal/platform/postgres"
	platformredis "studioreg/internal/platform/redis"
	"studioreg/pkg/platform/audit"
	"studioreg/pkg/platform/audit/publisher"
	kafkapublisher "studioreg/pkg/platform/audit/publishers/kafka"
	auditmemory "studioreg/pkg/platform/audit/store/memory"
	auditpostgres "studioreg/pkg/platform/audit/store/postgres"
	auditredis "studioreg/pkg/platform/audit/store/redis"
)

// auditSinks owns every configured audit destination and the connections
// behind them. The first configured store (postgres, then redis, then memory)
// backs the audit trail reads; the others receive copies.
type auditSinks struct {
	Publisher audit.Publisher
	Reader    *publisher.Publisher

	extras []*publisher.Publisher
	db     *sql.DB
	redis  *platformredis.Client
	kafka  *kgo.Client
}

func buildAuditSinks(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (*auditSinks, error) {
	sinks := &auditSinks{}
	var stores []audit.Store

	db, err := platformpostgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db != nil {
		sinks.db = db
		pgStore := auditpostgres.New(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			sinks.Close(log)
			return nil, fmt.Errorf("ensure audit schema: %w", err)
		}
		stores = append(stores, pgStore)
		log.Info("audit store enabled", "backend", "postgres")
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		sinks.Close(log)
		return nil, err
	}
	if redisClient != nil {
		sinks.redis = redisClient
		stores = append(stores, auditredis.New(redisClient.Client, auditredis.WithStream(redisClient.AuditStream())))
		log.Info("audit store enabled", "backend", "redis", "stream", redisClient.AuditStream())
	}

	if len(stores) == 0 {
		stores = append(stores, auditmemory.NewInMemoryStore())
		log.Info("audit store enabled", "backend", "memory")
	}

	metrics := publisher.NewMetrics(reg)
	sinks.Reader = publisher.NewPublisher(stores[0],
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
		publisher.WithLogger(log),
		publisher.WithMetrics(metrics),
	)
	fanout := publisher.Fanout{sinks.Reader}
	for _, s := range stores[1:] {
		extra := publisher.NewPublisher(s, publisher.WithAsyncBuffer(cfg.Audit.BufferSize), publisher.WithLogger(log))
		sinks.extras = append(sinks.extras, extra)
		fanout = append(fanout, extra)
	}

	kafkaClient, err := platformkafka.New(ctx, cfg.Kafka)
	if err != nil {
		sinks.Close(log)
		return nil, err
	}
	if kafkaClient != nil {
		sinks.kafka = kafkaClient
		breaker := publisher.NewCircuitBreaker(cfg.Audit.SinkFailureThreshold, cfg.Audit.SinkCooldown)
		fanout = append(fanout, publisher.NewGuarded(
			kafkapublisher.New(kafkaClient, cfg.Kafka.AuditTopic),
			breaker,
			func() {
				metrics.CircuitOpened.Inc()
				log.Warn("kafka audit sink circuit opened", "cooldown", cfg.Audit.SinkCooldown)
			},
		))
		log.Info("audit sink enabled", "backend", "kafka", "topic", cfg.Kafka.AuditTopic)
	}

	var out audit.Publisher = fanout
	if len(fanout) == 1 {
		out = sinks.Reader
	}
	sinks.Publisher = publisher.NewSampled(out, cfg.Audit.OpsSampleRate, metrics.SampledOut.Inc)
	return sinks, nil
}

// Health pings every external connection.
func (s *auditSinks) Health(ctx context.Context) error {
	var errs []error
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if s.kafka != nil {
		if err := s.kafka.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("kafka: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close drains buffered publishers before closing connections.
func (s *auditSinks) Close(log *slog.Logger) {
	if s.Reader != nil {
		if err := s.Reader.Close(); err != nil {
			log.Warn("failed to close audit publisher", "error", err)
		}
	}
	for _, p := range s.extras {
		if err := p.Close(); err != nil {
			log.Warn("failed to close audit publisher", "error", err)
		}
	}
	if s.kafka != nil {
		s.kafka.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Warn("failed to close redis", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Warn("failed to close postgres", "error", err)
		}
	}
}
