package repository

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownStrategy is returned by the registry for names that were never
// registered.
var ErrUnknownStrategy = errors.New("unknown strategy")

// ErrGatewayUnavailable marks transport-level gateway failures (timeouts,
// 5xx, rate limiting). The trading loop treats these as transient.
var ErrGatewayUnavailable = errors.New("ledger gateway unavailable")

// LedgerError is a ledger-level rejection carrying the result code returned
// by the network. The transaction itself is invalid; retrying it unchanged
// will fail again.
type LedgerError struct {
	ResultCode string
	Detail     string
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger rejected transaction: %s (%s)", e.ResultCode, e.Detail)
}

// IsTransient reports whether err should be handled by retry/backoff rather
// than treated as a permanent rejection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var le *LedgerError
	if errors.As(err, &le) {
		return false
	}
	return errors.Is(err, ErrGatewayUnavailable) || errors.Is(err, context.DeadlineExceeded)
}
