package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the auth/session core. Endpoint handlers translate
// provider and library failures into one of these before anything reaches a
// caller; raw error text stays in the server logs.
var (
	// Request errors
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthenticated = errors.New("not authenticated")

	// Identity provider errors
	ErrIdentityVerification = errors.New("identity verification failed")
	ErrTokenExchange        = errors.New("token exchange failed")
	ErrTokenRefresh         = errors.New("token refresh failed")

	// Token cache errors
	ErrCacheMissing = errors.New("no token cache entry")

	// Tool gateway errors
	ErrGatewayVerification = errors.New("gateway verification failed")

	// Wiring errors
	ErrConfiguration = errors.New("configuration error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
