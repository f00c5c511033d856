package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
)

type RepositoryProviderImpl struct {
	queries *Queries
}

func (p *RepositoryProviderImpl) Drivers() outbound.DriverRepository {
	return &DriverRepositoryImpl{Queries: p.queries}
}

func (p *RepositoryProviderImpl) Outbox() outbound.OutboxRepository {
	return &OutboxRepositoryImpl{Queries: p.queries}
}

type UnitOfWorkImpl struct {
	db *sql.DB
}

func NewUnitOfWork(db *sql.DB) *UnitOfWorkImpl {
	return &UnitOfWorkImpl{db: db}
}

func (u *UnitOfWorkImpl) Do(ctx context.Context, fn func(provider outbound.RepositoryProvider) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(err, nil)
	}

	provider := &RepositoryProviderImpl{
		queries: New(u.db).WithTx(tx),
	}

	if err := fn(provider); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w, rb err: %v", err, rbErr)
		}
		return err
	}

	return translate(tx.Commit(), nil)
}
