package config

type Config interface {
	EnvConfig
	ProviderConfig
	GatewayConfig
	SecurityConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetAllowedOrigin() string
}

type mainConfig struct {
	EnvVars
	Provider
	Gateway
	Security
	Store
}

func New() Config {
	return mainConfig{}
}
