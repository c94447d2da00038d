package config

import (
	"time"

	pkgconfig "github.com/weiawesome/social-graph/pkg/config"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Redis      RedisConfig
	PubSub     PubSubConfig `mapstructure:"pubsub"`
	Relation   RelationConfig
	Auth       AuthConfig
	Kafka      KafkaConfig
	Reconciler ReconcilerConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

// CacheConfig selects where cached id sets live: "redis" uses the Redis
// section, "memory" an in-process LRU.
type CacheConfig struct {
	Driver     string `mapstructure:"driver"`
	MemorySize int    `mapstructure:"memory_size"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PubSubConfig struct {
	Driver         string        `mapstructure:"driver"` // "redis", "kafka", "nats", "none"
	KafkaBrokers   string        `mapstructure:"kafka_brokers"`
	KafkaPartition int           `mapstructure:"kafka_partitions"`
	NATSURL        string        `mapstructure:"nats_url"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

type RelationConfig struct {
	CacheTTLSeconds int      `mapstructure:"cache_ttl_seconds"`
	EventsEnabled   bool     `mapstructure:"events_enabled"`
	IdentityTable   string   `mapstructure:"identity_table"`
	IdentityColumns []string `mapstructure:"identity_columns"`
}

// CacheTTL returns the configured TTL as a duration.
func (c RelationConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// KafkaConfig configures the CDC consumer reading Debezium change events.
type KafkaConfig struct {
	Brokers string   `mapstructure:"brokers"`
	Topics  []string `mapstructure:"topics"`
	GroupID string   `mapstructure:"group_id"`
}

type ReconcilerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	TopN     int           `mapstructure:"top_n"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8095)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/social-graph.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("cache.driver", "redis")
	v.SetDefault("cache.memory_size", 10000)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("pubsub.driver", "redis")
	v.SetDefault("pubsub.kafka_brokers", "localhost:9092")
	v.SetDefault("pubsub.kafka_partitions", 3)
	v.SetDefault("pubsub.nats_url", "nats://localhost:4222")
	v.SetDefault("pubsub.publish_timeout", "5s")
	v.SetDefault("relation.cache_ttl_seconds", 86400)
	v.SetDefault("relation.events_enabled", true)
	v.SetDefault("relation.identity_table", "users")
	v.SetDefault("relation.identity_columns", []string{"id", "username", "display_name"})
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topics", []string{"dbserver1.public.follows", "dbserver1.public.blocks"})
	v.SetDefault("kafka.group_id", "social-graph-service")
	v.SetDefault("reconciler.enabled", true)
	v.SetDefault("reconciler.interval", "60s")
	v.SetDefault("reconciler.top_n", 100)
	v.SetDefault("reconciler.ttl", "0s")
	v.SetDefault("log.level", "info")

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("database.max_idle_conns", "DB_MAX_IDLE_CONNS")
	v.BindEnv("database.max_open_conns", "DB_MAX_OPEN_CONNS")
	v.BindEnv("database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME")
	v.BindEnv("database.log_level", "DB_LOG_LEVEL")
	v.BindEnv("cache.driver", "CACHE_DRIVER")
	v.BindEnv("cache.memory_size", "CACHE_MEMORY_SIZE")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.kafka_brokers", "PUBSUB_KAFKA_BROKERS")
	v.BindEnv("pubsub.nats_url", "NATS_URL")
	v.BindEnv("relation.cache_ttl_seconds", "RELATION_CACHE_TTL_SECONDS")
	v.BindEnv("relation.events_enabled", "RELATION_EVENTS_ENABLED")
	v.BindEnv("relation.identity_table", "RELATION_IDENTITY_TABLE")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.issuer", "JWT_ISSUER")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.topics", "KAFKA_TOPICS")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("reconciler.enabled", "RECONCILER_ENABLED")
	v.BindEnv("reconciler.interval", "RECONCILER_INTERVAL")
	v.BindEnv("reconciler.top_n", "RECONCILER_TOP_N")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
