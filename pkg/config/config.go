package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Desk         DeskConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BELLDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"BELLDESK_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"BELLDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BELLDESK_LOG_WARN_STACK" default:"false"`

	ReadTimeout     time.Duration `envconfig:"BELLDESK_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"BELLDESK_HTTP_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `envconfig:"BELLDESK_HTTP_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"BELLDESK_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind        string `envconfig:"BELLDESK_SERVICE_KIND" default:"api"`
	MetricsAddr string `envconfig:"BELLDESK_METRICS_ADDR"`
}

type DBConfig struct {
	DSN        string `envconfig:"BELLDESK_DB_DSN"`
	Driver     string `envconfig:"BELLDESK_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"BELLDESK_SQLITE_PATH" default:"belldesk.db"`

	LegacyHost     string `envconfig:"BELLDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"BELLDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BELLDESK_DB_USER"`
	LegacyPassword string `envconfig:"BELLDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"BELLDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"BELLDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BELLDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BELLDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BELLDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BELLDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	ConnectAttempts int           `envconfig:"BELLDESK_DB_CONNECT_ATTEMPTS" default:"5"`
	ConnectBackoff  time.Duration `envconfig:"BELLDESK_DB_CONNECT_BACKOFF" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BELLDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BELLDESK_REDIS_ADDR"`
	Password     string        `envconfig:"BELLDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"BELLDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BELLDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BELLDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BELLDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BELLDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BELLDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// DeskConfig holds the bell desk behaviour knobs.
type DeskConfig struct {
	Timezone       string        `envconfig:"BELLDESK_DESK_TIMEZONE" default:"Europe/Rome"`
	StaticDir      string        `envconfig:"BELLDESK_STATIC_DIR" default:"."`
	CORSOrigins    []string      `envconfig:"BELLDESK_CORS_ORIGINS" default:"*"`
	ReleaseLockTTL time.Duration `envconfig:"BELLDESK_RELEASE_LOCK_TTL" default:"30s"`
	HistoryLimit   int           `envconfig:"BELLDESK_HISTORY_LIMIT" default:"100"`
}

// Location resolves the configured timezone, falling back to UTC when unknown.
func (d DeskConfig) Location() *time.Location {
	name := strings.TrimSpace(d.Timezone)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BELLDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BELLDESK_AUTO_MIGRATE" default:"false"`
	ServeStatic bool `envconfig:"BELLDESK_SERVE_STATIC" default:"true"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"BELLDESK_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BELLDESK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BELLDESK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BELLDESK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DeskTopic        string `envconfig:"BELLDESK_PUBSUB_DESK_TOPIC" default:"belldesk-desk-events"`
	DeskSubscription string `envconfig:"BELLDESK_PUBSUB_DESK_SUBSCRIPTION" default:"belldesk-desk-events-audit"`
}

type BigQueryConfig struct {
	Dataset         string `envconfig:"BELLDESK_BIGQUERY_DATASET" default:"belldesk"`
	DeskEventsTable string `envconfig:"BELLDESK_BIGQUERY_DESK_EVENTS_TABLE" default:"desk_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BELLDESK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BELLDESK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BELLDESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"BELLDESK_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval         time.Duration `envconfig:"BELLDESK_CRON_INTERVAL" default:"1h"`
	LuggageIdleHours int           `envconfig:"BELLDESK_CRON_LUGGAGE_IDLE_HOURS" default:"24"`
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
