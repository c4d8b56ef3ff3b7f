package suspension

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "schoolbus/pkg/domain"
	"schoolbus/pkg/platform/sentinel"
	txcontext "schoolbus/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists suspensions. The idx_suspensions_one_unresolved
// partial unique index backs the at-most-one-unresolved invariant.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, susp *Suspension) error {
	const query = `
		INSERT INTO student_suspensions
			(id, student_id, bus_id, reason, suspended_at, suspended_by, is_reactivated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		susp.ID.String(), susp.StudentID.String(), nullableBus(susp.BusID),
		susp.Reason, susp.SuspendedAt, susp.SuspendedBy, susp.IsReactivated,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert suspension: %w", err)
	}
	return nil
}

const suspensionColumns = `id, student_id, bus_id, reason, suspended_at, suspended_by, is_reactivated, reactivated_at, reactivated_by, new_bus_id, notes`

func scanSuspension(row *sql.Row) (*Suspension, error) {
	var (
		susp                 Suspension
		rawID, rawStudent    string
		rawBus, rawNewBus    sql.NullString
		reactivatedBy, notes sql.NullString
	)
	err := row.Scan(&rawID, &rawStudent, &rawBus, &susp.Reason,
		&susp.SuspendedAt, &susp.SuspendedBy, &susp.IsReactivated,
		&susp.ReactivatedAt, &reactivatedBy, &rawNewBus, &notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan suspension: %w", err)
	}

	suspensionID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse suspension id: %w", err)
	}
	studentID, err := uuid.Parse(rawStudent)
	if err != nil {
		return nil, fmt.Errorf("parse student id: %w", err)
	}
	susp.ID = id.SuspensionID(suspensionID)
	susp.StudentID = id.StudentID(studentID)
	if susp.BusID, err = parseNullableBus(rawBus); err != nil {
		return nil, err
	}
	if susp.NewBusID, err = parseNullableBus(rawNewBus); err != nil {
		return nil, err
	}
	susp.ReactivatedBy = reactivatedBy.String
	susp.Notes = notes.String
	return &susp, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, suspensionID id.SuspensionID) (*Suspension, error) {
	query := `SELECT ` + suspensionColumns + ` FROM student_suspensions WHERE id = $1`
	return scanSuspension(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, suspensionID.String()))
}

func (s *PostgresStore) FindUnresolvedByStudent(ctx context.Context, studentID id.StudentID) (*Suspension, error) {
	query := `SELECT ` + suspensionColumns + ` FROM student_suspensions WHERE student_id = $1 AND NOT is_reactivated`
	return scanSuspension(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, studentID.String()))
}

func (s *PostgresStore) MarkReactivated(ctx context.Context, susp *Suspension) error {
	const query = `
		UPDATE student_suspensions
		SET is_reactivated = TRUE, reactivated_at = $2, reactivated_by = $3, new_bus_id = $4, notes = $5
		WHERE id = $1 AND NOT is_reactivated
	`
	result, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		susp.ID.String(), susp.ReactivatedAt, nullableString(susp.ReactivatedBy),
		nullableBus(susp.NewBusID), nullableString(susp.Notes),
	)
	if err != nil {
		return fmt.Errorf("mark suspension reactivated: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func nullableBus(busID *id.BusID) any {
	if busID == nil {
		return nil
	}
	return busID.String()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseNullableBus(raw sql.NullString) (*id.BusID, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(raw.String)
	if err != nil {
		return nil, fmt.Errorf("parse bus id: %w", err)
	}
	busID := id.BusID(parsed)
	return &busID, nil
}
