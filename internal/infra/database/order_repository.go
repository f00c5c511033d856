package database

import (
	"context"
	"database/sql"

	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
	"github.com/lib/pq"
)

const orderColumns = `id, driver_id, customer_id, customer_latitude, customer_longitude, status, driver_approaching_notified`

const listLiveOrdersByDriver = `SELECT ` + orderColumns + ` FROM orders
WHERE driver_id = $1 AND status = ANY($2)`

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

const markApproachingNotified = `UPDATE orders
SET driver_approaching_notified = TRUE, updated_at = now()
WHERE id = $1 AND driver_approaching_notified = FALSE`

type OrderRepositoryImpl struct {
	*Queries
}

func NewOrderRepository(db *sql.DB) *OrderRepositoryImpl {
	return &OrderRepositoryImpl{Queries: New(db)}
}

func (r *OrderRepositoryImpl) FindActiveByDriver(ctx context.Context, driverID string) ([]*entity.ActiveOrder, error) {
	live := make([]string, len(entity.LiveStatuses))
	for i, s := range entity.LiveStatuses {
		live[i] = string(s)
	}
	rows, err := r.db.QueryContext(ctx, listLiveOrdersByDriver, driverID, pq.Array(live))
	if err != nil {
		return nil, translate(err, nil)
	}
	defer rows.Close()

	var items []*entity.ActiveOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, translate(err, nil)
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, nil)
	}
	return items, nil
}

func (r *OrderRepositoryImpl) FindByID(ctx context.Context, id string) (*entity.ActiveOrder, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, getOrder, id))
	if err != nil {
		return nil, translate(err, entity.ErrOrderNotFound)
	}
	return o, nil
}

// MarkApproachingNotified is a compare-and-set on the latch column: of two
// concurrent callers only one sees true.
func (r *OrderRepositoryImpl) MarkApproachingNotified(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, markApproachingNotified, id)
	if err != nil {
		return false, translate(err, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translate(err, nil)
	}
	return n == 1, nil
}

func scanOrder(s scanner) (*entity.ActiveOrder, error) {
	var (
		id, customerID, status string
		driverID               sql.NullString
		lat, lng               sql.NullFloat64
		notified               bool
	)
	if err := s.Scan(&id, &driverID, &customerID, &lat, &lng, &status, &notified); err != nil {
		return nil, err
	}
	st, err := entity.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	var pos *geo.Coordinate
	if la, lo, ok := nullCoordinate(lat, lng); ok {
		pos = &geo.Coordinate{Latitude: la, Longitude: lo}
	}
	return entity.RestoreActiveOrder(id, driverID.String, customerID, pos, st, notified)
}
