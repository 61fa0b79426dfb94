package config

const (
	EnvPrefix = "BAUPRODUKT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "BAUPRODUKT_DB_DSN"
	EnvDBHost = "BAUPRODUKT_DB_HOST"
	EnvDBUser = "BAUPRODUKT_DB_USER"
	EnvDBName = "BAUPRODUKT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
