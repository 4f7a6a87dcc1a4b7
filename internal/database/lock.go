package database

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// LockSlot serializes booking writes for one court or venue inside tx.
// On PostgreSQL this takes a transaction-scoped advisory lock; SQLite
// already serializes writers, so nothing is needed there.
func LockSlot(ctx context.Context, tx *gorm.DB, kind string, id int64) error {
	if !IsPostgres(tx) {
		return nil
	}
	return tx.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", slotKey(kind, id)).Error
}

func slotKey(kind string, id int64) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(kind + ":" + strconv.FormatInt(id, 10)))
	return int64(h.Sum64())
}

// IsConstraintViolation reports unique or exclusion violations from PostgreSQL.
func IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" || pgErr.Code == "23P01"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
