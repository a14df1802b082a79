package config

const (
	EnvPrefix = "MIFUGO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MIFUGO_DB_DSN"
	EnvDBHost = "MIFUGO_DB_HOST"
	EnvDBUser = "MIFUGO_DB_USER"
	EnvDBName = "MIFUGO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
