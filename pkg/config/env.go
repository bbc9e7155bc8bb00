package config

// EnvPrefix is handed to envconfig; every field below carries an explicit name so
// the prefix only matters for unnamed fields.
const EnvPrefix = "BELLDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "BELLDESK_APP_ENV"
	EnvPort     = "BELLDESK_APP_PORT"
	EnvLogLevel = "BELLDESK_LOG_LEVEL"

	EnvDBDSN      = "BELLDESK_DB_DSN"
	EnvDBHost     = "BELLDESK_DB_HOST"
	EnvDBUser     = "BELLDESK_DB_USER"
	EnvDBName     = "BELLDESK_DB_NAME"
	EnvUseSQLite  = "BELLDESK_USE_SQLITE"
	EnvSQLitePath = "BELLDESK_SQLITE_PATH"

	EnvRedisURL = "BELLDESK_REDIS_URL"

	EnvDeskTimezone    = "BELLDESK_DESK_TIMEZONE"
	EnvDeskStaticDir   = "BELLDESK_STATIC_DIR"
	EnvDeskCORSOrigins = "BELLDESK_CORS_ORIGINS"

	EnvGCPProjectID      = "BELLDESK_GCP_PROJECT_ID"
	EnvPubSubDeskTopic   = "BELLDESK_PUBSUB_DESK_TOPIC"
	EnvPubSubDeskSub     = "BELLDESK_PUBSUB_DESK_SUBSCRIPTION"
	EnvBigQueryDataset   = "BELLDESK_BIGQUERY_DATASET"
	EnvBigQueryDeskTable = "BELLDESK_BIGQUERY_DESK_EVENTS_TABLE"

	EnvCronInterval         = "BELLDESK_CRON_INTERVAL"
	EnvCronLuggageIdleHours = "BELLDESK_CRON_LUGGAGE_IDLE_HOURS"
	EnvOutboxRetentionDays  = "BELLDESK_OUTBOX_RETENTION_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
