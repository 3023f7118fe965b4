package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains server configuration parameters.
type Config struct {
	LogLevel  int       `env:"LOG_LEVEL" envDefault:"0"`
	HTTP      HTTP      `envPrefix:"HTTP_"`
	Cassandra Cassandra `envPrefix:"CASSANDRA_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	JWT       JWT       `envPrefix:"JWT_"`
	Storage   Storage   `envPrefix:"MINIO_"`
	Feed      Feed      `envPrefix:"FEED_"`
}

// HTTP contains HTTP server parameters.
type HTTP struct {
	Port               string `env:"PORT" envDefault:"8080"`
	EnableHTTPS        bool   `env:"ENABLE_HTTPS" envDefault:"false"`
	CertFileName       string `env:"CERT_FILE_NAME" envDefault:"cert.pem"`
	PrivateKeyFileName string `env:"PRIVATE_KEY_FILE_NAME" envDefault:"key.pem"`
}

// Cassandra contains column store connection parameters.
type Cassandra struct {
	Hosts             []string      `env:"HOSTS" envSeparator:"," envDefault:"localhost"`
	Keyspace          string        `env:"KEYSPACE" envDefault:"vidfeed"`
	ReplicationFactor int           `env:"REPLICATION_FACTOR" envDefault:"1"`
	Timeout           time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Redis contains event bus connection parameters.
type Redis struct {
	Addr          string `env:"ADDR" envDefault:"localhost:6379"`
	Password      string `env:"PASSWORD" envDefault:""`
	DB            int    `env:"DB" envDefault:"0"`
	ChannelPrefix string `env:"CHANNEL_PREFIX" envDefault:"vidfeed.events"`
}

// JWT contains JWT-related parameters.
type JWT struct {
	Secret string `env:"SECRET" envDefault:"devsecret"`
}

// Storage contains object storage parameters.
type Storage struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"vidfeed-access-key"`
	SecretKey string `env:"SECRET_KEY" envDefault:"vidfeed-secret-key"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"vidfeed-thumbnails"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// Feed contains latest-videos feed tuning parameters.
type Feed struct {
	// LookbackBuckets is the number of daily partitions the feed scans, today
	// included. Feed rows older than the window expire by TTL.
	LookbackBuckets int `env:"LOOKBACK_BUCKETS" envDefault:"8"`
	DefaultPageSize int `env:"DEFAULT_PAGE_SIZE" envDefault:"10"`
	MaxPageSize     int `env:"MAX_PAGE_SIZE" envDefault:"100"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
