package config

const EnvPrefix = "BLOODBANK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "BLOODBANK_APP_ENV"
	EnvPort     = "BLOODBANK_APP_PORT"
	EnvLogLevel = "BLOODBANK_LOG_LEVEL"

	EnvDBDSN  = "BLOODBANK_DB_DSN"
	EnvDBHost = "BLOODBANK_DB_HOST"
	EnvDBUser = "BLOODBANK_DB_USER"
	EnvDBName = "BLOODBANK_DB_NAME"
	EnvDBPass = "BLOODBANK_DB_PASSWORD"

	EnvRedisURL  = "BLOODBANK_REDIS_URL"
	EnvUseSQLite = "BLOODBANK_USE_SQLITE"

	EnvStockDefaultThreshold  = "BLOODBANK_STOCK_DEFAULT_THRESHOLD"
	EnvStockReadRetryAttempts = "BLOODBANK_STOCK_READ_RETRY_ATTEMPTS"

	EnvCORSAllowedOrigins = "BLOODBANK_CORS_ALLOWED_ORIGINS"
	EnvPubSubStockTopic   = "BLOODBANK_PUBSUB_STOCK_TOPIC"
	EnvGCPProjectID       = "BLOODBANK_GCP_PROJECT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
