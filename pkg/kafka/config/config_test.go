package kafka_config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Brokers:        []string{"localhost:9092"},
		ClientID:       DefaultClientID,
		Balancer:       DefaultProducerBalancer,
		MaxAttempts:    3,
		BatchTimeout:   time.Millisecond,
		RequireAcks:    -1,
		Compression:    "snappy",
		PublishTimeout: time.Second,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no brokers", mutate: func(c *Config) { c.Brokers = nil }, wantErr: "broker"},
		{name: "unknown balancer", mutate: func(c *Config) { c.Balancer = "sticky" }, wantErr: "Balancer"},
		{name: "unknown compression", mutate: func(c *Config) { c.Compression = "brotli" }, wantErr: "Compression"},
		{name: "bad acks", mutate: func(c *Config) { c.RequireAcks = 2 }, wantErr: "RequireAcks"},
		{name: "async with acks", mutate: func(c *Config) { c.Async = true }, wantErr: "Async"},
		{name: "async fire and forget", mutate: func(c *Config) { c.Async = true; c.RequireAcks = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_ParsesBrokerList(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " k1:9092, ,k2:9092 ")
	t.Setenv(EnvKafkaProducerBalancer, "ROUND_ROBIN")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[0] != "k1:9092" || cfg.Brokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Brokers)
	}
	if cfg.Balancer != "round_robin" {
		t.Errorf("expected lowercased balancer, got %s", cfg.Balancer)
	}
}
