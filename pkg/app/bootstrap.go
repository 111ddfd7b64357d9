package app

import (
	"context"

	"yxplore/pkg/config"
	"yxplore/pkg/events"
	"yxplore/pkg/kafka"
	kafka_config "yxplore/pkg/kafka/config"
	kafka_middleware "yxplore/pkg/kafka/middleware"
	"yxplore/pkg/tracing"
)

// InitTracing installs the tracer provider for service and returns its
// shutdown hook.
func InitTracing(cfg *config.Config, service string) func(context.Context) error {
	shutdown, err := tracing.Init(tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.JaegerEndpoint,
		ServiceName: service,
		Environment: cfg.Environment,
	})
	if err != nil {
		cfg.Log.Fatal("Failed to initialize tracing", "error", err)
	}
	return shutdown
}

// NewPublisher returns a Kafka-backed publisher when events are enabled and a
// no-op one otherwise. The returned close func is always safe to call.
func NewPublisher(cfg *config.Config, source string) (events.Publisher, func(context.Context) error) {
	noop := func(context.Context) error { return nil }
	if !cfg.EventsEnabled {
		cfg.Log.Info("Domain events disabled")
		return events.NopPublisher{}, noop
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.EventsTopic, cfg.EventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	stats := kafka_middleware.NewPublishStats()
	producer.Use(stats.Middleware())
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	publisher := events.NewKafkaPublisher(producer, source, kafkaCfg.PublishTimeout, cfg.Log)
	return publisher, func(context.Context) error {
		cfg.Log.Info("Domain event publisher closing", stats.LogAttrs()...)
		return publisher.Close()
	}
}
