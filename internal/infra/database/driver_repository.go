package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
)

const driverColumns = `id, code, name, service_type, is_available, lifecycle, latitude, longitude, last_location_update`

const getDriver = `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`

const listDriverCandidates = `SELECT ` + driverColumns + ` FROM drivers
WHERE COALESCE(lifecycle, 'active') = 'active'
  AND latitude IS NOT NULL AND longitude IS NOT NULL
  AND ($1 = '' OR service_type = $1)
  AND (NOT $2 OR is_available)`

const updateDriverPosition = `UPDATE drivers
SET latitude = $2, longitude = $3, last_location_update = $4, updated_at = now()
WHERE id = $1`

type DriverRepositoryImpl struct {
	*Queries
}

func NewDriverRepository(db *sql.DB) *DriverRepositoryImpl {
	return &DriverRepositoryImpl{Queries: New(db)}
}

func (r *DriverRepositoryImpl) FindByID(ctx context.Context, id string) (*entity.Driver, error) {
	row := r.db.QueryRowContext(ctx, getDriver, id)
	d, err := scanDriver(row)
	if err != nil {
		return nil, translate(err, entity.ErrEntityNotFound)
	}
	return d, nil
}

func (r *DriverRepositoryImpl) FindCandidates(ctx context.Context, f entity.DriverFilter) ([]entity.Driver, error) {
	rows, err := r.db.QueryContext(ctx, listDriverCandidates, f.ServiceType, f.AvailableOnly)
	if err != nil {
		return nil, translate(err, nil)
	}
	defer rows.Close()

	var items []entity.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, translate(err, nil)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, nil)
	}
	return items, nil
}

func (r *DriverRepositoryImpl) UpdatePosition(ctx context.Context, id string, pos geo.Coordinate, at time.Time) error {
	res, err := r.db.ExecContext(ctx, updateDriverPosition, id, pos.Latitude, pos.Longitude, at.UTC())
	if err != nil {
		return translate(err, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, nil)
	}
	if n == 0 {
		return entity.ErrEntityNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDriver(s scanner) (*entity.Driver, error) {
	var (
		d          entity.Driver
		lifecycle  sql.NullString
		lat, lng   sql.NullFloat64
		lastUpdate sql.NullTime
	)
	if err := s.Scan(&d.ID, &d.Code, &d.Name, &d.ServiceType, &d.Available, &lifecycle, &lat, &lng, &lastUpdate); err != nil {
		return nil, err
	}
	lc, err := entity.ParseLifecycle(lifecycle.String)
	if err != nil {
		return nil, fmt.Errorf("driver %s: %w", d.ID, err)
	}
	d.Lifecycle = lc
	if la, lo, ok := nullCoordinate(lat, lng); ok {
		d.Position = &geo.Coordinate{Latitude: la, Longitude: lo}
	}
	if lastUpdate.Valid {
		d.LastUpdateAt = lastUpdate.Time
	}
	return &d, nil
}
