package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

const (
	EnvPrefix = "ZEDMARKET"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ZEDMARKET_DB_DSN"
	EnvDBHost = "ZEDMARKET_DB_HOST"
	EnvDBUser = "ZEDMARKET_DB_USER"
	EnvDBName = "ZEDMARKET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Lenco        LencoConfig
	Imports      ImportsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var err error
	if c.Lenco.AllowUnsignedWebhooks && c.App.IsProd() {
		err = multierr.Append(err, fmt.Errorf("ZEDMARKET_LENCO_ALLOW_UNSIGNED_WEBHOOKS cannot be enabled in %s", AppEnvProd))
	}
	if c.Imports.Markup.LessThanOrEqual(decimal.Zero) {
		err = multierr.Append(err, fmt.Errorf("ZEDMARKET_IMPORT_MARKUP must be positive"))
	}
	if c.Imports.FreeCreditQuota < 0 {
		err = multierr.Append(err, fmt.Errorf("ZEDMARKET_IMPORT_FREE_CREDIT_QUOTA must not be negative"))
	}
	return err
}

type AppConfig struct {
	Env          string `envconfig:"ZEDMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"ZEDMARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ZEDMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ZEDMARKET_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"ZEDMARKET_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ZEDMARKET_SERVICE_KIND" default:"api"`
	// MetricsAddr is where workers expose /metrics, e.g. ":9090". The API
	// serves /metrics on its own port and ignores it.
	MetricsAddr string `envconfig:"ZEDMARKET_METRICS_ADDR"`
}

type DBConfig struct {
	DSN    string `envconfig:"ZEDMARKET_DB_DSN"`
	Driver string `envconfig:"ZEDMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ZEDMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"ZEDMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZEDMARKET_DB_USER"`
	LegacyPassword string `envconfig:"ZEDMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZEDMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZEDMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ZEDMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ZEDMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ZEDMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZEDMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQuery is the duration past which a statement is logged at warn.
	SlowQuery time.Duration `envconfig:"ZEDMARKET_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ZEDMARKET_REDIS_URL"`
	Address      string        `envconfig:"ZEDMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"ZEDMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZEDMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZEDMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZEDMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZEDMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZEDMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZEDMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ZEDMARKET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ZEDMARKET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ZEDMARKET_JWT_EXPIRATION_MINUTES" default:"60"`
}

// RateLimitConfig bounds how often a vendor may start a provider collection.
type RateLimitConfig struct {
	PaymentWindow time.Duration `envconfig:"ZEDMARKET_RATE_LIMIT_PAYMENT_WINDOW" default:"1m"`
	PaymentLimit  int           `envconfig:"ZEDMARKET_RATE_LIMIT_PAYMENT_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ZEDMARKET_AUTO_MIGRATE" default:"false"`
}

type LencoConfig struct {
	BaseURL   string        `envconfig:"ZEDMARKET_LENCO_BASE_URL" default:"https://api.lenco.co/access/v2"`
	SecretKey string        `envconfig:"ZEDMARKET_LENCO_SECRET_KEY"`
	Currency  string        `envconfig:"ZEDMARKET_LENCO_CURRENCY" default:"ZMW"`
	Timeout   time.Duration `envconfig:"ZEDMARKET_LENCO_TIMEOUT" default:"20s"`
	// AllowUnsignedWebhooks admits webhooks when no secret or signature is
	// present. Never valid in prod.
	AllowUnsignedWebhooks bool          `envconfig:"ZEDMARKET_LENCO_ALLOW_UNSIGNED_WEBHOOKS" default:"false"`
	WebhookDedupeTTL      time.Duration `envconfig:"ZEDMARKET_LENCO_WEBHOOK_DEDUPE_TTL" default:"72h"`
}

type ImportsConfig struct {
	Markup          decimal.Decimal `envconfig:"ZEDMARKET_IMPORT_MARKUP" default:"1.25"`
	FreeCreditQuota int             `envconfig:"ZEDMARKET_IMPORT_FREE_CREDIT_QUOTA" default:"3"`
	PromoWindow     time.Duration   `envconfig:"ZEDMARKET_IMPORT_PROMO_WINDOW" default:"720h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"ZEDMARKET_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	LedgerTopic string `envconfig:"ZEDMARKET_PUBSUB_LEDGER_TOPIC" default:"zm-ledger-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ZEDMARKET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ZEDMARKET_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ZEDMARKET_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"ZEDMARKET_CRON_INTERVAL" default:"1h"`
	LockTTL           time.Duration `envconfig:"ZEDMARKET_CRON_LOCK_TTL" default:"15m"`
	ImportGracePeriod time.Duration `envconfig:"ZEDMARKET_CRON_IMPORT_GRACE_PERIOD" default:"15m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
