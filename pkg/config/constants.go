package config

const (
	EnvPrefix = "MODA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "MODA_APP_ENV"
	EnvPort     = "MODA_APP_PORT"
	EnvDBDSN    = "MODA_DB_DSN"
	EnvDBHost   = "MODA_DB_HOST"
	EnvDBUser   = "MODA_DB_USER"
	EnvDBName   = "MODA_DB_NAME"
	EnvRedisURL = "MODA_REDIS_URL"

	EnvJWTSecret              = "MODA_JWT_SECRET"
	EnvJWTIssuer              = "MODA_JWT_ISSUER"
	EnvJWTExpMins             = "MODA_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "MODA_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
