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
	Razorpay     RazorpayConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"TRENDORA_APP_ENV" required:"true"`
	Port         string `envconfig:"TRENDORA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRENDORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRENDORA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TRENDORA_DB_DSN"`
	Driver string `envconfig:"TRENDORA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRENDORA_DB_HOST"`
	LegacyPort     int    `envconfig:"TRENDORA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRENDORA_DB_USER"`
	LegacyPassword string `envconfig:"TRENDORA_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRENDORA_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRENDORA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRENDORA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRENDORA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRENDORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRENDORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRENDORA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRENDORA_REDIS_ADDR"`
	Password     string        `envconfig:"TRENDORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRENDORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRENDORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRENDORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRENDORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRENDORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRENDORA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TRENDORA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TRENDORA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TRENDORA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type RazorpayConfig struct {
	KeyID     string        `envconfig:"TRENDORA_RAZORPAY_KEY_ID" required:"true"`
	KeySecret string        `envconfig:"TRENDORA_RAZORPAY_KEY_SECRET" required:"true"`
	Timeout   time.Duration `envconfig:"TRENDORA_RAZORPAY_TIMEOUT" default:"10s"`
}

type CheckoutConfig struct {
	IdempotencyTTL   time.Duration `envconfig:"TRENDORA_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
	ReturnWindowDays int           `envconfig:"TRENDORA_RETURN_WINDOW_DAYS" default:"7"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TRENDORA_AUTO_MIGRATE" default:"false"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TRENDORA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TRENDORA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TRENDORA_OUTBOX_MAX_ATTEMPTS" default:"10"`

	// Events drain to the structured log unless a topic is configured.
	GCPProjectID   string        `envconfig:"TRENDORA_OUTBOX_GCP_PROJECT_ID"`
	Topic          string        `envconfig:"TRENDORA_OUTBOX_TOPIC"`
	PublishTimeout time.Duration `envconfig:"TRENDORA_OUTBOX_PUBLISH_TIMEOUT" default:"15s"`
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
