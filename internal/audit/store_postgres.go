package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	txcontext "schoolbus/pkg/platform/tx"
)

// PostgresStore implements Store using the transactional outbox pattern.
// Append writes one row to audit_outbox inside the caller's transaction; the
// relay worker publishes rows to Kafka and marks them published. The
// audit_events table is the queryable materialization.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// outboxPayload is the JSON structure published to Kafka.
type outboxPayload struct {
	ID         string          `json:"id"`
	Timestamp  string          `json:"timestamp"`
	Actor      string          `json:"actor,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	eventID := uuid.New()

	payload, err := json.Marshal(outboxPayload{
		ID:         eventID.String(),
		Timestamp:  event.Timestamp.Format(time.RFC3339Nano),
		Actor:      event.Actor,
		Action:     string(event.Action),
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		Before:     event.Before,
		After:      event.After,
		RequestID:  event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	execer := txcontext.Executor(ctx, s.db)

	const insertEvent = `
		INSERT INTO audit_events (id, timestamp, actor, action, entity_type, entity_id, before_state, after_state, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := execer.ExecContext(ctx, insertEvent,
		eventID, event.Timestamp, nullable(event.Actor), string(event.Action),
		event.EntityType, event.EntityID,
		nullableJSON(event.Before), nullableJSON(event.After), nullable(event.RequestID),
	); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	const insertOutbox = `
		INSERT INTO audit_outbox (id, event_id, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := execer.ExecContext(ctx, insertOutbox, uuid.New(), eventID, payload, time.Now()); err != nil {
		return fmt.Errorf("insert audit outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEntity(ctx context.Context, entityType, entityID string) ([]Event, error) {
	const query = `
		SELECT timestamp, actor, action, entity_type, entity_id, before_state, after_state, request_id
		FROM audit_events
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY timestamp ASC
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e                Event
			actor, requestID sql.NullString
			action           string
			before, after    []byte
		)
		if err := rows.Scan(&e.Timestamp, &actor, &action, &e.EntityType, &e.EntityID, &before, &after, &requestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Actor = actor.String
		e.Action = Action(action)
		e.Before = before
		e.After = after
		e.RequestID = requestID.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// PendingOutbox returns up to limit unpublished outbox rows, oldest first.
func (s *PostgresStore) PendingOutbox(ctx context.Context, limit int) ([]OutboxRow, error) {
	const query = `
		SELECT id, event_id, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit outbox: %w", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var row OutboxRow
		if err := rows.Scan(&row.ID, &row.EventID, &row.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}
	return out, nil
}

// MarkPublished stamps an outbox row after the broker acknowledged it.
func (s *PostgresStore) MarkPublished(ctx context.Context, outboxID uuid.UUID, publishedAt time.Time) error {
	const query = `UPDATE audit_outbox SET published_at = $2 WHERE id = $1 AND published_at IS NULL`
	if _, err := s.db.ExecContext(ctx, query, outboxID, publishedAt); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// OutboxRow is one unpublished audit event awaiting relay to Kafka.
type OutboxRow struct {
	ID      uuid.UUID
	EventID uuid.UUID
	Payload []byte
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
