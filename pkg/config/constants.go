package config

// EnvPrefix scopes all environment variables consumed by envconfig.
const EnvPrefix = "TRENDORA"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv            = "TRENDORA_APP_ENV"
	EnvPort              = "TRENDORA_APP_PORT"
	EnvDBDSN             = "TRENDORA_DB_DSN"
	EnvDBHost            = "TRENDORA_DB_HOST"
	EnvDBUser            = "TRENDORA_DB_USER"
	EnvDBName            = "TRENDORA_DB_NAME"
	EnvRedisURL          = "TRENDORA_REDIS_URL"
	EnvJWTSecret         = "TRENDORA_JWT_SECRET"
	EnvJWTIssuer         = "TRENDORA_JWT_ISSUER"
	EnvRazorpayKeyID     = "TRENDORA_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret = "TRENDORA_RAZORPAY_KEY_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
