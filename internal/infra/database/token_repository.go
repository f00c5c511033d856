package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/lib/pq"
)

// Both owner tables carry the legacy single-token column next to the token
// array. Reads merge the two; writes leave only the array populated.
var tokenTables = map[entity.OwnerKind]string{
	entity.OwnerUser:   "users",
	entity.OwnerDriver: "drivers",
}

type TokenRepositoryImpl struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepositoryImpl {
	return &TokenRepositoryImpl{db: db}
}

func (r *TokenRepositoryImpl) Tokens(ctx context.Context, owner entity.TokenOwner) (entity.TokenSet, error) {
	table, err := tokenTable(owner.Kind)
	if err != nil {
		return entity.TokenSet{}, err
	}
	set, err := readTokens(ctx, r.db, table, owner.ID, false)
	if err != nil {
		return entity.TokenSet{}, translate(err, entity.ErrEntityNotFound)
	}
	return set, nil
}

func (r *TokenRepositoryImpl) AddToken(ctx context.Context, owner entity.TokenOwner, token string) (bool, error) {
	table, err := tokenTable(owner.Kind)
	if err != nil {
		return false, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, translate(err, nil)
	}
	defer tx.Rollback()

	set, err := readTokens(ctx, tx, table, owner.ID, true)
	if err != nil {
		return false, translate(err, entity.ErrEntityNotFound)
	}
	added := set.Add(token)

	q := fmt.Sprintf(`UPDATE %s SET fcm_tokens = $2, fcm_token = NULL, updated_at = now() WHERE id = $1`, table)
	if _, err := tx.ExecContext(ctx, q, owner.ID, pq.Array(set.Slice())); err != nil {
		return false, translate(err, nil)
	}
	if err := tx.Commit(); err != nil {
		return false, translate(err, nil)
	}
	return added, nil
}

func (r *TokenRepositoryImpl) RemoveToken(ctx context.Context, token string) (int64, error) {
	var total int64
	for _, table := range []string{"users", "drivers"} {
		q := fmt.Sprintf(`UPDATE %s
SET fcm_tokens = array_remove(fcm_tokens, $1),
    fcm_token = CASE WHEN fcm_token = $1 THEN NULL ELSE fcm_token END,
    updated_at = now()
WHERE $1 = ANY(fcm_tokens) OR fcm_token = $1`, table)
		res, err := r.db.ExecContext(ctx, q, token)
		if err != nil {
			return total, translate(err, nil)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, translate(err, nil)
		}
		total += n
	}
	return total, nil
}

func (r *TokenRepositoryImpl) ListWithTokens(ctx context.Context) ([]outbound.OwnerTokens, error) {
	var out []outbound.OwnerTokens
	for _, kind := range []entity.OwnerKind{entity.OwnerUser, entity.OwnerDriver} {
		q := fmt.Sprintf(`SELECT id, fcm_token, fcm_tokens FROM %s
WHERE (fcm_token IS NOT NULL AND fcm_token <> '') OR cardinality(fcm_tokens) > 0
ORDER BY id`, tokenTables[kind])
		rows, err := r.db.QueryContext(ctx, q)
		if err != nil {
			return nil, translate(err, nil)
		}
		for rows.Next() {
			var (
				id     string
				legacy sql.NullString
				tokens []string
			)
			if err := rows.Scan(&id, &legacy, pq.Array(&tokens)); err != nil {
				rows.Close()
				return nil, translate(err, nil)
			}
			set := entity.NormalizeLegacyTokens(legacy.String, tokens)
			if set.Len() > 0 {
				out = append(out, outbound.OwnerTokens{Owner: entity.TokenOwner{Kind: kind, ID: id}, Tokens: set})
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, translate(err, nil)
		}
	}
	return out, nil
}

func readTokens(ctx context.Context, db DBTX, table, id string, forUpdate bool) (entity.TokenSet, error) {
	q := fmt.Sprintf(`SELECT fcm_token, fcm_tokens FROM %s WHERE id = $1`, table)
	if forUpdate {
		q += ` FOR UPDATE`
	}
	var (
		legacy sql.NullString
		tokens []string
	)
	if err := db.QueryRowContext(ctx, q, id).Scan(&legacy, pq.Array(&tokens)); err != nil {
		return entity.TokenSet{}, err
	}
	return entity.NormalizeLegacyTokens(legacy.String, tokens), nil
}

func tokenTable(kind entity.OwnerKind) (string, error) {
	table, ok := tokenTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown token owner kind %q", kind)
	}
	return table, nil
}
