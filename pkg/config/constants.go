package config

// EnvPrefix scopes every environment variable this service reads.
const EnvPrefix = "CATERBASE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "CATERBASE_APP_ENV"
	EnvPort       = "CATERBASE_APP_PORT"
	EnvJWTSecret  = "CATERBASE_JWT_SECRET"
	EnvJWTIssuer  = "CATERBASE_JWT_ISSUER"
	EnvJWTExpMins = "CATERBASE_JWT_EXPIRATION_MINUTES"

	EnvDBDSN  = "CATERBASE_DB_DSN"
	EnvDBHost = "CATERBASE_DB_HOST"
	EnvDBUser = "CATERBASE_DB_USER"
	EnvDBName = "CATERBASE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
