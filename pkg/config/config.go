package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Inventory    InventoryConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	CORS         CORSConfig
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
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Inventory.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BLOODBANK_APP_ENV" required:"true"`
	Port         string `envconfig:"BLOODBANK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BLOODBANK_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"BLOODBANK_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"BLOODBANK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BLOODBANK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BLOODBANK_DB_DSN"`
	Driver string `envconfig:"BLOODBANK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BLOODBANK_DB_HOST"`
	LegacyPort     int    `envconfig:"BLOODBANK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BLOODBANK_DB_USER"`
	LegacyPassword string `envconfig:"BLOODBANK_DB_PASSWORD"`
	LegacyName     string `envconfig:"BLOODBANK_DB_NAME"`
	LegacySSLMode  string `envconfig:"BLOODBANK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BLOODBANK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BLOODBANK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BLOODBANK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BLOODBANK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BLOODBANK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BLOODBANK_REDIS_ADDR"`
	Password     string        `envconfig:"BLOODBANK_REDIS_PASSWORD"`
	DB           int           `envconfig:"BLOODBANK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BLOODBANK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BLOODBANK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BLOODBANK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BLOODBANK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BLOODBANK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// InventoryConfig tunes the stock ledger.
type InventoryConfig struct {
	DefaultLowThreshold  int           `envconfig:"BLOODBANK_STOCK_DEFAULT_THRESHOLD" default:"10"`
	ReadRetryAttempts    int           `envconfig:"BLOODBANK_STOCK_READ_RETRY_ATTEMPTS" default:"3"`
	ReadRetryBackoff     time.Duration `envconfig:"BLOODBANK_STOCK_READ_RETRY_BACKOFF" default:"100ms"`
	NotifyChannel        string        `envconfig:"BLOODBANK_STOCK_NOTIFY_CHANNEL" default:"bb:stock:changes"`
	DonationIntervalDays int           `envconfig:"BLOODBANK_DONATION_INTERVAL_DAYS" default:"56"`
}

func (i InventoryConfig) validate() error {
	if i.DefaultLowThreshold < 0 {
		return fmt.Errorf("%s must be >= 0", EnvStockDefaultThreshold)
	}
	if i.ReadRetryAttempts < 1 {
		return fmt.Errorf("%s must be >= 1", EnvStockReadRetryAttempts)
	}
	return nil
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BLOODBANK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BLOODBANK_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"BLOODBANK_IDEMPOTENCY_TTL" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"BLOODBANK_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BLOODBANK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BLOODBANK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BLOODBANK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	StockTopic    string `envconfig:"BLOODBANK_PUBSUB_STOCK_TOPIC" default:"bb-stock-events"`
	RequestsTopic string `envconfig:"BLOODBANK_PUBSUB_REQUESTS_TOPIC" default:"bb-request-events"`
	AlertsTopic   string `envconfig:"BLOODBANK_PUBSUB_ALERTS_TOPIC" default:"bb-stock-alerts"`
	DLQTopic      string `envconfig:"BLOODBANK_PUBSUB_DLQ_TOPIC"`
	// AlertsSubscription is consumed by cmd/worker to persist stock alerts.
	AlertsSubscription string `envconfig:"BLOODBANK_PUBSUB_ALERTS_SUBSCRIPTION" default:"bb-stock-alerts-worker"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BLOODBANK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BLOODBANK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BLOODBANK_OUTBOX_MAX_ATTEMPTS" default:"10"`
	// MetricsAddr serves /metrics from the publisher when set, e.g. ":9091".
	MetricsAddr string `envconfig:"BLOODBANK_OUTBOX_METRICS_ADDR"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"BLOODBANK_CRON_INTERVAL" default:"1h"`
	LockTTL             time.Duration `envconfig:"BLOODBANK_CRON_LOCK_TTL" default:"30m"`
	AlertRetentionDays  int           `envconfig:"BLOODBANK_CRON_ALERT_RETENTION_DAYS" default:"90"`
	OutboxRetentionDays int           `envconfig:"BLOODBANK_CRON_OUTBOX_RETENTION_DAYS" default:"14"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = "file:bloodbank.db?cache=shared"
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
