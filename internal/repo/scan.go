package repo

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// isNoRows сворачивает pgx.ErrNoRows в булево для map'инга на ErrNotFound.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
