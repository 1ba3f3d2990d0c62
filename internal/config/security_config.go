package config

import "time"

type SecurityConfig interface {
	GetSessionSecret() []byte
	GetMaxSessionAge() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetSessionSecret signs session cookies. Empty is tolerated in DEV only;
// main refuses to start without one outside DEV.
func (Security) GetSessionSecret() []byte {
	return []byte(GetEnv("SESSION_SECRET", ""))
}

func (Security) GetMaxSessionAge() time.Duration {
	return time.Hour // Fixed TTL, independent of token validity
}
