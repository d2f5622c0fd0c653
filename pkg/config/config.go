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
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	Sendgrid     SendgridConfig
	Outbox       OutboxConfig
	Grants       GrantsConfig
	Frontend     FrontendConfig
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
	Env           string `envconfig:"SAMPLEFORGE_APP_ENV" required:"true"`
	Port          string `envconfig:"SAMPLEFORGE_APP_PORT" required:"true"`
	PublicBaseURL string `envconfig:"SAMPLEFORGE_APP_PUBLIC_BASE_URL" default:"http://localhost:8080"`
	LogLevel      string `envconfig:"SAMPLEFORGE_LOG_LEVEL" default:"info"`
	LogWarnStack  bool   `envconfig:"SAMPLEFORGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SAMPLEFORGE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SAMPLEFORGE_DB_DSN"`
	Driver string `envconfig:"SAMPLEFORGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SAMPLEFORGE_DB_HOST"`
	LegacyPort     int    `envconfig:"SAMPLEFORGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SAMPLEFORGE_DB_USER"`
	LegacyPassword string `envconfig:"SAMPLEFORGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SAMPLEFORGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SAMPLEFORGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SAMPLEFORGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SAMPLEFORGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SAMPLEFORGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SAMPLEFORGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SAMPLEFORGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SAMPLEFORGE_REDIS_ADDR"`
	Password     string        `envconfig:"SAMPLEFORGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SAMPLEFORGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SAMPLEFORGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SAMPLEFORGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SAMPLEFORGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SAMPLEFORGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SAMPLEFORGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SAMPLEFORGE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SAMPLEFORGE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SAMPLEFORGE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SAMPLEFORGE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SAMPLEFORGE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"SAMPLEFORGE_EVENTING_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"SAMPLEFORGE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON string `envconfig:"SAMPLEFORGE_GCP_CREDENTIALS_JSON"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"SAMPLEFORGE_GCS_BUCKET_NAME" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"SAMPLEFORGE_GCS_DOWNLOAD_URL_EXPIRY" default:"15m"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"SAMPLEFORGE_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription       string `envconfig:"SAMPLEFORGE_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"SAMPLEFORGE_PUBSUB_NOTIFICATION_TOPIC" default:"sf-notification-events"`
	NotificationSubscription string `envconfig:"SAMPLEFORGE_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"SAMPLEFORGE_STRIPE_API_KEY" required:"true"`
	SigningSecret string `envconfig:"SAMPLEFORGE_STRIPE_SIGNING_SECRET" required:"true"`
	Env           string `envconfig:"SAMPLEFORGE_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SendgridConfig struct {
	APIKey      string `envconfig:"SAMPLEFORGE_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"SAMPLEFORGE_SENDGRID_FROM_EMAIL"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SAMPLEFORGE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SAMPLEFORGE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SAMPLEFORGE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type GrantsConfig struct {
	MaxDownloads int           `envconfig:"SAMPLEFORGE_GRANT_MAX_DOWNLOADS" default:"3"`
	TTL          time.Duration `envconfig:"SAMPLEFORGE_GRANT_TTL" default:"168h"`
}

type FrontendConfig struct {
	BaseURL string `envconfig:"SAMPLEFORGE_FRONTEND_BASE_URL" default:"http://localhost:3000"`
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
