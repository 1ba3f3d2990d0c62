package config

// Token cache store backends selectable via TOKEN_STORE.
const (
	TokenStoreMemory   = "memory"
	TokenStorePostgres = "postgres"
	TokenStoreRedis    = "redis"
)

type StoreConfig interface {
	GetTokenStoreKind() string
	GetDatabaseURL() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetTokenStoreKind() string {
	return GetEnv("TOKEN_STORE", TokenStoreMemory)
}

func (Store) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "postgres://localhost:5432/agentgate?sslmode=disable")
}

func (Store) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Store) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Store) GetRedisDB() int {
	return 0
}
