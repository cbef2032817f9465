package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastygo/habitflow/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func marshalJSON(data any) []byte {
	b, err := json.Marshal(data)
	if err != nil || string(b) == "null" {
		return nil
	}
	return b
}

func marshalMap(data map[string]string) []byte {
	if len(data) == 0 {
		return nil
	}
	return marshalJSON(data)
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullDate(d *domain.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.Time()
}

func datePtr(t *time.Time) *domain.Date {
	if t == nil {
		return nil
	}
	d := domain.DateOf(t.UTC())
	return &d
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int32(*v)
}
