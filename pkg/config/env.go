package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "KRIDI"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "KRIDI_APP_ENV"
	EnvPort     = "KRIDI_APP_PORT"
	EnvLogLevel = "KRIDI_LOG_LEVEL"

	EnvDBDSN     = "KRIDI_DB_DSN"
	EnvDBDriver  = "KRIDI_DB_DRIVER"
	EnvDBHost    = "KRIDI_DB_HOST"
	EnvDBUser    = "KRIDI_DB_USER"
	EnvDBName    = "KRIDI_DB_NAME"
	EnvSQLiteDSN = "KRIDI_SQLITE_DSN"

	EnvRedisURL  = "KRIDI_REDIS_URL"
	EnvRedisAddr = "KRIDI_REDIS_ADDR"

	EnvJWTSecret              = "KRIDI_JWT_SECRET"
	EnvJWTIssuer              = "KRIDI_JWT_ISSUER"
	EnvJWTExpMins             = "KRIDI_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "KRIDI_REFRESH_TOKEN_TTL_MINUTES"

	EnvUseSQLite   = "KRIDI_USE_SQLITE"
	EnvAutoMigrate = "KRIDI_AUTO_MIGRATE"
	EnvSeedDemo    = "KRIDI_SEED_DEMO"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
