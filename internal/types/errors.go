package types

import "errors"

// Fatal error classes. These represent conditions no retry can fix; the
// circuit breaker halts the agent on the first occurrence regardless of its
// failure counter.
var (
	ErrCredentialsInvalid  = errors.New("credentials invalid")
	ErrInsufficientBalance = errors.New("balance insufficient")
	ErrConnectivityLost    = errors.New("connectivity lost")
)

// IsFatal classifies an error against the fatal error classes. Anything else
// is treated as a transient service error.
func IsFatal(err error) bool {
	return errors.Is(err, ErrCredentialsInvalid) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrConnectivityLost)
}
