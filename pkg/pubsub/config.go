package pubsub

import (
	"errors"
	"time"
)

var ErrUnknownDriver = errors.New("unknown pubsub driver")

// KafkaConfig holds Kafka-specific configuration.
type KafkaConfig struct {
	Brokers    string   `mapstructure:"brokers"`
	Partitions int      `mapstructure:"partitions"`
	Topics     []string `mapstructure:"topics"`
}

// NATSConfig holds NATS-specific configuration.
type NATSConfig struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
}

// Config holds the configuration for the pub/sub system.
type Config struct {
	Driver string      `mapstructure:"driver"` // "redis", "kafka", "nats", "none"
	Redis  RedisConfig `mapstructure:"redis"`
	Kafka  KafkaConfig `mapstructure:"kafka"`
	NATS   NATSConfig  `mapstructure:"nats"`
}

// RedisConfig holds Redis-specific configuration.
type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Driver: "redis",
		Redis: RedisConfig{
			Address:      "localhost:6379",
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}

// NewPublisher creates a Publisher based on the configuration. The "none"
// driver returns nil, nil: publishing is switched off.
func NewPublisher(cfg Config) (Publisher, error) {
	switch cfg.Driver {
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka)
	case "redis":
		return NewRedisPublisher(cfg.Redis)
	case "nats":
		return NewNATSPublisher(cfg.NATS)
	case "none", "":
		return nil, nil
	default:
		return nil, ErrUnknownDriver
	}
}
