package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Atomic runs fn inside a single READ COMMITTED transaction. Every statement
// issued through the handle passed to fn commits together or not at all; any
// error from fn rolls the whole unit back and is returned unchanged.
//
// Repositories expose WithTx so a service can rebind them onto the
// transaction handle and compose multi-table writes into one unit.
func Atomic(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	// sqlite rejects explicit isolation options; its transactions are
	// serializable, which is stronger than what we ask of postgres.
	if db.Dialector.Name() != "postgres" {
		return db.WithContext(ctx).Transaction(fn)
	}
	return db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}
