package config

const (
	EnvPrefix = "ISOLELE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvAppEnv                = "ISOLELE_APP_ENV"
	EnvPort                  = "ISOLELE_APP_PORT"
	EnvDBDSN                 = "ISOLELE_DB_DSN"
	EnvDBHost                = "ISOLELE_DB_HOST"
	EnvDBUser                = "ISOLELE_DB_USER"
	EnvDBName                = "ISOLELE_DB_NAME"
	EnvUseSQLite             = "ISOLELE_USE_SQLITE"
	EnvRedisURL              = "ISOLELE_REDIS_URL"
	EnvJWTSecret             = "ISOLELE_JWT_SECRET"
	EnvShippingFreeThreshold = "ISOLELE_SHIPPING_FREE_THRESHOLD_CENTS"
	EnvShippingFlatFee       = "ISOLELE_SHIPPING_FLAT_FEE_CENTS"
	EnvCheckoutDeclinedCards = "ISOLELE_CHECKOUT_DECLINED_CARDS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
