package database

import (
	"context"
	"database/sql"

	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
	"github.com/lib/pq"
)

const listActiveSupermarkets = `SELECT id, COALESCE(code, ''), name, is_active, is_deleted, latitude, longitude
FROM supermarkets
WHERE COALESCE(is_deleted, FALSE) = FALSE AND COALESCE(is_active, TRUE) = TRUE
ORDER BY id`

const listSupermarketLocations = `SELECT id, supermarket_id, COALESCE(name, ''), latitude, longitude
FROM supermarket_locations
WHERE supermarket_id = ANY($1)
ORDER BY supermarket_id, id`

type SupermarketRepositoryImpl struct {
	*Queries
}

func NewSupermarketRepository(db *sql.DB) *SupermarketRepositoryImpl {
	return &SupermarketRepositoryImpl{Queries: New(db)}
}

func (r *SupermarketRepositoryImpl) FindActive(ctx context.Context) ([]entity.Supermarket, error) {
	owners, err := r.listOwners(ctx)
	if err != nil {
		return nil, translate(err, nil)
	}
	if len(owners) == 0 {
		return owners, nil
	}

	ids := make([]string, len(owners))
	index := make(map[string]int, len(owners))
	for i, o := range owners {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.db.QueryContext(ctx, listSupermarketLocations, pq.Array(ids))
	if err != nil {
		return nil, translate(err, nil)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			loc      entity.Location
			ownerID  string
			lat, lng sql.NullFloat64
		)
		if err := rows.Scan(&loc.ID, &ownerID, &loc.Name, &lat, &lng); err != nil {
			return nil, translate(err, nil)
		}
		if la, lo, ok := nullCoordinate(lat, lng); ok {
			loc.Position = &geo.Coordinate{Latitude: la, Longitude: lo}
		}
		i := index[ownerID]
		owners[i].Locations = append(owners[i].Locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, nil)
	}
	return owners, nil
}

func (r *SupermarketRepositoryImpl) listOwners(ctx context.Context) ([]entity.Supermarket, error) {
	rows, err := r.db.QueryContext(ctx, listActiveSupermarkets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entity.Supermarket
	for rows.Next() {
		var (
			s               entity.Supermarket
			active, deleted sql.NullBool
			lat, lng        sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &active, &deleted, &lat, &lng); err != nil {
			return nil, err
		}
		s.Lifecycle = entity.LifecycleFromFlags(nullBool(active), nullBool(deleted))
		if la, lo, ok := nullCoordinate(lat, lng); ok {
			s.Position = &geo.Coordinate{Latitude: la, Longitude: lo}
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func nullBool(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	return &b.Bool
}
