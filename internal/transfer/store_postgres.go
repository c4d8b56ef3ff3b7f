package transfer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "schoolbus/pkg/domain"
	txcontext "schoolbus/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, t *Transfer) error {
	const query = `
		INSERT INTO student_transfers
			(id, student_id, from_bus_id, to_bus_id, reason, transferred_at, transferred_by, effective_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		t.ID.String(), t.StudentID.String(), t.FromBusID.String(), t.ToBusID.String(),
		t.Reason, t.TransferredAt, t.TransferredBy, t.EffectiveDate,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByStudent(ctx context.Context, studentID id.StudentID) ([]Transfer, error) {
	const query = `
		SELECT id, student_id, from_bus_id, to_bus_id, reason, transferred_at, transferred_by, effective_date
		FROM student_transfers
		WHERE student_id = $1
		ORDER BY transferred_at
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, studentID.String())
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []Transfer
	for rows.Next() {
		var (
			t                                 Transfer
			rawID, rawStudent, rawFrom, rawTo string
		)
		if err := rows.Scan(&rawID, &rawStudent, &rawFrom, &rawTo,
			&t.Reason, &t.TransferredAt, &t.TransferredBy, &t.EffectiveDate); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		transferID, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse transfer id: %w", err)
		}
		studentUUID, err := uuid.Parse(rawStudent)
		if err != nil {
			return nil, fmt.Errorf("parse student id: %w", err)
		}
		fromUUID, err := uuid.Parse(rawFrom)
		if err != nil {
			return nil, fmt.Errorf("parse from bus id: %w", err)
		}
		toUUID, err := uuid.Parse(rawTo)
		if err != nil {
			return nil, fmt.Errorf("parse to bus id: %w", err)
		}
		t.ID = id.TransferID(transferID)
		t.StudentID = id.StudentID(studentUUID)
		t.FromBusID = id.BusID(fromUUID)
		t.ToBusID = id.BusID(toUUID)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return out, nil
}
