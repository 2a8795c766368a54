package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// postgres error code for unique_violation
const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a postgres unique-constraint
// violation. Concurrent duplicate writes (same slug, username, email or
// (author, title) pair) surface here after passing the service-level
// pre-checks; the storage layer's atomic constraint check is the arbiter.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
