// Package resilience retries layer-source queries that fail for transient
// reasons such as a dropped database connection.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// transientSQLStates are SQLSTATE codes and classes worth retrying:
// connection exceptions (08), insufficient resources (53), operator
// intervention such as admin shutdown (57P01-57P03) and serialization
// failures (40001, 40P01).
var transientSQLStates = []string{"08", "53", "57P01", "57P02", "57P03", "40001", "40P01"}

// IsTransient reports whether err (or any error in its chain) is worth
// retrying: a Postgres error in a transient SQLSTATE class, a network
// timeout, or a reset/refused connection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		for _, code := range transientSQLStates {
			if strings.HasPrefix(pgErr.Code, code) {
				return true
			}
		}
		return false
	}

	if pgconn.SafeToRetry(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{"connection reset by peer", "broken pipe", "i/o timeout", "conn closed"} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
