package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/habitflow/repository"
)

type transactor struct {
	pool *pgxpool.Pool
}

// NewTransactor runs lifecycle writes inside a single pgx transaction.
func NewTransactor(pool *pgxpool.Pool) repository.Transactor {
	return &transactor{pool: pool}
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, stores repository.Stores) error) error {
	return pgx.BeginFunc(ctx, t.pool, func(tx pgx.Tx) error {
		return fn(ctx, repository.Stores{
			Tasks:    &taskRepository{db: tx},
			Profiles: &profileRepository{db: tx},
		})
	})
}
