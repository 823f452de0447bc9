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
	SantimPay    SantimPayConfig
	Courier      CourierConfig
	Settlement   SettlementConfig
	Eventing     EventingConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"SOOQLY_APP_ENV" required:"true"`
	Port         string `envconfig:"SOOQLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SOOQLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOOQLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SOOQLY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SOOQLY_DB_DSN"`
	Driver string `envconfig:"SOOQLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SOOQLY_DB_HOST"`
	LegacyPort     int    `envconfig:"SOOQLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SOOQLY_DB_USER"`
	LegacyPassword string `envconfig:"SOOQLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"SOOQLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"SOOQLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOOQLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOOQLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOOQLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOOQLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOOQLY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SOOQLY_REDIS_ADDR"`
	Password     string        `envconfig:"SOOQLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOOQLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOOQLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOOQLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOOQLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOOQLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOOQLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SantimPayConfig struct {
	BaseURL        string        `envconfig:"SOOQLY_SANTIMPAY_BASE_URL" required:"true"`
	MerchantID     string        `envconfig:"SOOQLY_SANTIMPAY_MERCHANT_ID" required:"true"`
	PrivateKeyPEM  string        `envconfig:"SOOQLY_SANTIMPAY_PRIVATE_KEY"`
	TokenTTL       time.Duration `envconfig:"SOOQLY_SANTIMPAY_TOKEN_TTL" default:"5m"`
	RequestTimeout time.Duration `envconfig:"SOOQLY_SANTIMPAY_REQUEST_TIMEOUT" default:"30s"`
	SuccessURL     string        `envconfig:"SOOQLY_SANTIMPAY_SUCCESS_URL"`
	FailureURL     string        `envconfig:"SOOQLY_SANTIMPAY_FAILURE_URL"`
	NotifyURL      string        `envconfig:"SOOQLY_SANTIMPAY_NOTIFY_URL"`
}

type CourierConfig struct {
	BaseURL        string        `envconfig:"SOOQLY_COURIER_BASE_URL"`
	APIKey         string        `envconfig:"SOOQLY_COURIER_API_KEY"`
	RequestTimeout time.Duration `envconfig:"SOOQLY_COURIER_REQUEST_TIMEOUT" default:"20s"`
	WebhookSecret  string        `envconfig:"SOOQLY_COURIER_WEBHOOK_SECRET"`
}

type SettlementConfig struct {
	CommissionRate      string `envconfig:"SOOQLY_SETTLEMENT_COMMISSION_RATE" default:"0.10"`
	DefaultMobileMethod string `envconfig:"SOOQLY_SETTLEMENT_DEFAULT_MOBILE_METHOD" default:"TELEBIRR"`
	// PlatformUserID, when set, receives the commission as its own
	// payable allocation.
	PlatformUserID string `envconfig:"SOOQLY_SETTLEMENT_PLATFORM_USER_ID"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"SOOQLY_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SOOQLY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SOOQLY_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SOOQLY_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SOOQLY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SOOQLY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"SOOQLY_PUBSUB_ORDERS_TOPIC" default:"sq-order-events"`
	OrdersSubscription       string `envconfig:"SOOQLY_PUBSUB_ORDERS_SUBSCRIPTION" default:"sq-order-events-worker"`
	NotificationTopic        string `envconfig:"SOOQLY_PUBSUB_NOTIFICATION_TOPIC" default:"sq-notification-events"`
	NotificationSubscription string `envconfig:"SOOQLY_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"sq-notification-events-worker"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SOOQLY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SOOQLY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SOOQLY_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
