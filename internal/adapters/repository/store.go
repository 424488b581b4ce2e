// Package repository defines the relational store, its unit of work and errors.
package repository

import (
	"context"

	"github.com/okian/bakery/internal/domain/model"
)

// Counts reports the number of stored rows per table.
type Counts struct {
	Bakeries   int64 `json:"bakeries"`
	BakedGoods int64 `json:"baked_goods"`
}

// Store provides transactional access to bakeries and baked goods.
type Store interface {
	// WithinTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back when fn returns an error or panics. op names
	// the unit of work for logs and metrics.
	WithinTx(ctx context.Context, op string, fn func(tx Tx) error) error

	// Count returns the current row counts.
	Count(ctx context.Context) (Counts, error)

	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error
}

// Tx is the set of row operations available inside a unit of work.
type Tx interface {
	CreateBakery(ctx context.Context, b *model.Bakery) error
	// GetBakery returns ErrNotFound if no bakery has the id.
	GetBakery(ctx context.Context, id int64) (model.Bakery, error)
	SaveBakery(ctx context.Context, b *model.Bakery) error

	CreateBakedGood(ctx context.Context, g *model.BakedGood) error
	// GetBakedGood returns ErrNotFound if no baked good has the id.
	GetBakedGood(ctx context.Context, id int64) (model.BakedGood, error)
	// DeleteBakedGood returns ErrNotFound if no row was removed.
	DeleteBakedGood(ctx context.Context, id int64) error

	// DeleteAll removes every baked good and bakery.
	DeleteAll(ctx context.Context) error
}
