// Package store is the Catalog Store: gorm-backed access to products, categories,
// carts, orders and users. Every method takes a context and runs on the handle
// the Store was built with, so a Store handed out by WithTx stays inside that transaction.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate key")
	// ErrReferenced is returned when a delete is blocked by a foreign key.
	ErrReferenced = errors.New("record is still referenced")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// WithTx runs fn inside one transaction. fn must only use the Store it is given.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// sharedLock turns a read into SELECT ... FOR SHARE. A locking read returns the latest
// committed row instead of the transaction snapshot. sqlite drops the clause.
func sharedLock(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "SHARE"})
}

// translate maps gorm sentinels onto the package errors and leaves the rest untouched.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrReferenced
	default:
		return err
	}
}

// TimeoutContext bounds one unit of store work. A zero d leaves ctx unbounded.
func TimeoutContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// AsAppError classifies a store failure for callers. ErrNotFound becomes notFound,
// deadlines become retryable, anything else is an internal error.
func AsAppError(err error, notFound *apperrors.Error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) && notFound != nil {
		return notFound
	}
	return apperrors.Wrap("Database error", err)
}
