package sessions

import "time"

// Record is the cookie-bound session state. A record is created at login
// initiation holding only the CSRF nonce, populated at successful identity
// exchange, and cleared at logout or expiry. Expiry of a record never
// invalidates the durable token cache entry for its user.
type Record struct {
	// Nonce is the OAuth state parameter issued at login initiation. The
	// callback must present the same value before sign-in completes.
	Nonce string

	// Authenticated state, empty until the identity exchange succeeds
	UserKey string
	Email   string
	Name    string

	AuthTime  time.Time
	ExpiresAt time.Time
}

// Authenticated reports whether the record carries a signed-in identity
// that has not passed its TTL.
func (r Record) Authenticated(now time.Time) bool {
	return r.UserKey != "" && now.Before(r.ExpiresAt)
}

type Repo interface {
	Upsert(sessionID string, record Record) error
	Get(sessionID string) (Record, error)
	Delete(sessionID string) error
}
