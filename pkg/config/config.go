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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Paystack     PaystackConfig
	SMS          SMSConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	RateLimit    RateLimitConfig
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
	Env            string   `envconfig:"MIFUGO_APP_ENV" required:"true"`
	Port           string   `envconfig:"MIFUGO_APP_PORT" required:"true"`
	LogLevel       string   `envconfig:"MIFUGO_LOG_LEVEL" default:"info"`
	LogWarnStack   bool     `envconfig:"MIFUGO_LOG_WARN_STACK" default:"false"`
	AllowedOrigins []string `envconfig:"MIFUGO_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MIFUGO_DB_DSN"`
	Driver string `envconfig:"MIFUGO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MIFUGO_DB_HOST"`
	LegacyPort     int    `envconfig:"MIFUGO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MIFUGO_DB_USER"`
	LegacyPassword string `envconfig:"MIFUGO_DB_PASSWORD"`
	LegacyName     string `envconfig:"MIFUGO_DB_NAME"`
	LegacySSLMode  string `envconfig:"MIFUGO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MIFUGO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MIFUGO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MIFUGO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MIFUGO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MIFUGO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MIFUGO_REDIS_ADDR"`
	Password     string        `envconfig:"MIFUGO_REDIS_PASSWORD"`
	DB           int           `envconfig:"MIFUGO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MIFUGO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MIFUGO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MIFUGO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MIFUGO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MIFUGO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MIFUGO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MIFUGO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MIFUGO_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PaystackConfig struct {
	SecretKey   string        `envconfig:"MIFUGO_PAYSTACK_SECRET_KEY"`
	BaseURL     string        `envconfig:"MIFUGO_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	CallbackURL string        `envconfig:"MIFUGO_PAYSTACK_CALLBACK_URL"`
	Currency    string        `envconfig:"MIFUGO_PAYSTACK_CURRENCY" default:"KES"`
	Timeout     time.Duration `envconfig:"MIFUGO_PAYSTACK_TIMEOUT" default:"15s"`
}

type SMSConfig struct {
	APIKey   string `envconfig:"MIFUGO_SMS_API_KEY"`
	Username string `envconfig:"MIFUGO_SMS_USERNAME" default:"sandbox"`
	SenderID string `envconfig:"MIFUGO_SMS_SENDER_ID"`
	BaseURL  string `envconfig:"MIFUGO_SMS_BASE_URL" default:"https://api.africastalking.com"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"MIFUGO_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON string `envconfig:"MIFUGO_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"MIFUGO_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"MIFUGO_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MIFUGO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MIFUGO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MIFUGO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type RateLimitConfig struct {
	CheckoutLimit  int64         `envconfig:"MIFUGO_RATE_LIMIT_CHECKOUT" default:"10"`
	CheckoutWindow time.Duration `envconfig:"MIFUGO_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MIFUGO_AUTO_MIGRATE" default:"false"`
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
