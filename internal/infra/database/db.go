package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// translate maps driver errors onto the domain taxonomy.
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFound
	default:
		return fmt.Errorf("%w: %w", entity.ErrStoreUnavailable, err)
	}
}

func nullCoordinate(lat, lng sql.NullFloat64) (float64, float64, bool) {
	if !lat.Valid || !lng.Valid {
		return 0, 0, false
	}
	return lat.Float64, lng.Float64, true
}
