package config

// EnvPrefix is the envconfig prefix shared by every setting.
const EnvPrefix = "SOOQLY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv              = "SOOQLY_APP_ENV"
	EnvPort                = "SOOQLY_APP_PORT"
	EnvDBDSN               = "SOOQLY_DB_DSN"
	EnvDBHost              = "SOOQLY_DB_HOST"
	EnvDBUser              = "SOOQLY_DB_USER"
	EnvDBName              = "SOOQLY_DB_NAME"
	EnvRedisURL            = "SOOQLY_REDIS_URL"
	EnvSantimPayBaseURL    = "SOOQLY_SANTIMPAY_BASE_URL"
	EnvSantimPayMerchantID = "SOOQLY_SANTIMPAY_MERCHANT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
