package database

import (
	"context"
	"database/sql"
	"time"

	otelpkg "github.com/DioGolang/GeoDispatch/pkg/otel"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const createOutboxEvent = `INSERT INTO outbox (id, aggregate_id, event_type, event_version, payload, topic, trace_context)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const fetchPendingOutboxEvents = `SELECT id, aggregate_id, event_type, event_version, payload, topic, trace_context
FROM outbox
WHERE status = 'PENDING'
ORDER BY created_at
LIMIT $1
FOR UPDATE SKIP LOCKED`

const markOutboxAsProcessing = `UPDATE outbox SET status = 'PROCESSING', processed_at = now() WHERE id = ANY($1::uuid[])`

const markOutboxAsPublished = `UPDATE outbox SET status = 'PUBLISHED', processed_at = now(), error_msg = NULL WHERE id = $1`

const markOutboxAsFailed = `UPDATE outbox SET status = 'FAILED', processed_at = now(), error_msg = $2 WHERE id = $1`

const resetStuckEvents = `UPDATE outbox SET status = 'PENDING'
WHERE status IN ('PROCESSING', 'FAILED') AND processed_at < now() - make_interval(secs => $1)`

const deleteOldOutboxEvents = `DELETE FROM outbox
WHERE status = 'PUBLISHED' AND processed_at < now() - make_interval(secs => $1)`

type OutboxEvent struct {
	ID           uuid.UUID
	AggregateID  string
	EventType    string
	EventVersion int32
	Payload      []byte
	Topic        string
	TraceContext []byte
}

// OutboxRepositoryImpl writes events inside the caller's transaction.
type OutboxRepositoryImpl struct {
	*Queries
}

func (r *OutboxRepositoryImpl) SaveOutboxEvent(ctx context.Context, eventID, aggID, eventType string, eventVersion int32, payload []byte, topic string) error {
	id, err := uuid.Parse(eventID)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, createOutboxEvent, id, aggID, eventType, eventVersion, string(payload), topic, string(otelpkg.TraceContextJSON(ctx)))
	return translate(err, nil)
}

// OutboxStore is the relay's side of the outbox table.
type OutboxStore struct {
	conn *sql.DB
	q    *Queries
}

func NewOutboxStore(conn *sql.DB) *OutboxStore {
	return &OutboxStore{conn: conn, q: New(conn)}
}

// FetchAndClaim moves up to limit pending events to PROCESSING in a short
// transaction so concurrent relays never pick the same rows.
func (s *OutboxStore) FetchAndClaim(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.q.WithTx(tx)
	rows, err := qtx.db.QueryContext(ctx, fetchPendingOutboxEvents, limit)
	if err != nil {
		return nil, err
	}
	var items []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.EventVersion, &e.Payload, &e.Topic, &e.TraceContext); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]string, len(items))
	for i, e := range items {
		ids[i] = e.ID.String()
	}
	if _, err := qtx.db.ExecContext(ctx, markOutboxAsProcessing, pq.Array(ids)); err != nil {
		return nil, err
	}
	return items, tx.Commit()
}

func (s *OutboxStore) MarkPublished(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.db.ExecContext(ctx, markOutboxAsPublished, id)
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := s.q.db.ExecContext(ctx, markOutboxAsFailed, id, sql.NullString{String: reason, Valid: reason != ""})
	return err
}

func (s *OutboxStore) ResetStuck(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.exec(ctx, resetStuckEvents, olderThan.Seconds())
}

func (s *OutboxStore) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.exec(ctx, deleteOldOutboxEvents, olderThan.Seconds())
}

func (s *OutboxStore) exec(ctx context.Context, q string, args ...interface{}) (int64, error) {
	res, err := s.q.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
