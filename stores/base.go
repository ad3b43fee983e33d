package stores

import (
	"context"

	"gorm.io/gorm"
)

type contextKey string

const TxKey contextKey = "tx"

type BaseStore struct {
	db *gorm.DB
}

// GetDB returns the transaction carried by ctx when one is active, so a unit
// of work spanning several stores runs on one explicit transaction handle.
func (s *BaseStore) GetDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxKey).(*gorm.DB); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}

// WithTransaction runs fn inside a transaction whose handle travels in the
// context. Any store method called with the derived context joins the same
// transaction; an error from fn rolls the whole unit back.
func (s *BaseStore) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, TxKey, tx)
		return fn(txCtx)
	})
}
