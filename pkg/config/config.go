package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "VERHUUR"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	EBoekhouden  EBoekhoudenConfig
	Cron         CronConfig
	Outbox       OutboxConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VERHUUR_APP_ENV" required:"true"`
	Port         string `envconfig:"VERHUUR_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"VERHUUR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VERHUUR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VERHUUR_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VERHUUR_DB_DSN"`
	Driver string `envconfig:"VERHUUR_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"VERHUUR_DB_HOST"`
	Port     int    `envconfig:"VERHUUR_DB_PORT" default:"5432"`
	User     string `envconfig:"VERHUUR_DB_USER"`
	Password string `envconfig:"VERHUUR_DB_PASSWORD"`
	Name     string `envconfig:"VERHUUR_DB_NAME"`
	SSLMode  string `envconfig:"VERHUUR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VERHUUR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VERHUUR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VERHUUR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VERHUUR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" || d.Driver == "sqlite" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either VERHUUR_DB_DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"VERHUUR_REDIS_URL"`
	Address      string        `envconfig:"VERHUUR_REDIS_ADDR"`
	Password     string        `envconfig:"VERHUUR_REDIS_PASSWORD"`
	DB           int           `envconfig:"VERHUUR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VERHUUR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VERHUUR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VERHUUR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VERHUUR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VERHUUR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VERHUUR_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VERHUUR_JWT_ISSUER" default:"verhuur-backend"`
	ExpirationMinutes int    `envconfig:"VERHUUR_JWT_EXPIRATION_MINUTES" default:"480"`
}

// TokenTTL returns the access token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type EBoekhoudenConfig struct {
	BaseURL        string        `envconfig:"VERHUUR_EBOEKHOUDEN_BASE_URL" default:"https://api.e-boekhouden.nl"`
	Source         string        `envconfig:"VERHUUR_EBOEKHOUDEN_SOURCE" default:"verhuur-backend"`
	RequestTimeout time.Duration `envconfig:"VERHUUR_EBOEKHOUDEN_TIMEOUT" default:"30s"`
}

type CronConfig struct {
	Interval      time.Duration `envconfig:"VERHUUR_CRON_INTERVAL" default:"15m"`
	LockTTL       time.Duration `envconfig:"VERHUUR_CRON_LOCK_TTL" default:"1h"`
	RetryAttempts int           `envconfig:"VERHUUR_CRON_RETRY_ATTEMPTS" default:"3"`
	RetryBase     time.Duration `envconfig:"VERHUUR_CRON_RETRY_BASE" default:"2s"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"VERHUUR_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"VERHUUR_OUTBOX_POLL_INTERVAL_MS" default:"500"`
	MaxAttempts    int `envconfig:"VERHUUR_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"VERHUUR_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"VERHUUR_PUBSUB_DOMAIN_TOPIC" default:"verhuur-domain-events"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VERHUUR_FEATURE_AUTO_MIGRATE" default:"false"`
}
