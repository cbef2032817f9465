package repository

import "context"

// Stores groups the repositories that share one transaction.
type Stores struct {
	Tasks    TaskRepository
	Profiles ProfileRepository
}

// Transactor runs fn atomically. Any error returned by fn rolls back every write made through stores.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}
