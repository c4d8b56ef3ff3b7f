package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "schoolbus/pkg/domain"
	"schoolbus/pkg/platform/sentinel"
	txcontext "schoolbus/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists assignments. The partial unique index
// idx_assignments_one_active (student_id WHERE is_active) is what makes two
// concurrent creates for the same student behave atomically.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, a *Assignment) error {
	const query = `
		INSERT INTO student_bus_assignments
			(id, student_id, bus_id, transport_type, arrival_bus_id, return_bus_id, is_active, assigned_at, assigned_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		a.ID.String(), a.StudentID.String(), a.BusID.String(), string(a.TransportType),
		nullableBus(a.ArrivalBusID), nullableBus(a.ReturnBusID),
		a.IsActive, a.AssignedAt, a.AssignedBy,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

const assignmentColumns = `id, student_id, bus_id, transport_type, arrival_bus_id, return_bus_id, is_active, assigned_at, assigned_by, deactivated_at`

type assignmentScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row assignmentScanner) (*Assignment, error) {
	var (
		a                           Assignment
		rawID, rawStudent, rawBus   string
		transportType               string
		rawArrivalBus, rawReturnBus sql.NullString
	)
	err := row.Scan(&rawID, &rawStudent, &rawBus, &transportType,
		&rawArrivalBus, &rawReturnBus, &a.IsActive, &a.AssignedAt, &a.AssignedBy, &a.DeactivatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan assignment: %w", err)
	}

	assignmentID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse assignment id: %w", err)
	}
	studentID, err := uuid.Parse(rawStudent)
	if err != nil {
		return nil, fmt.Errorf("parse student id: %w", err)
	}
	busID, err := uuid.Parse(rawBus)
	if err != nil {
		return nil, fmt.Errorf("parse bus id: %w", err)
	}
	a.ID = id.AssignmentID(assignmentID)
	a.StudentID = id.StudentID(studentID)
	a.BusID = id.BusID(busID)
	a.TransportType = TransportType(transportType)
	if a.ArrivalBusID, err = parseNullableBus(rawArrivalBus); err != nil {
		return nil, err
	}
	if a.ReturnBusID, err = parseNullableBus(rawReturnBus); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, assignmentID id.AssignmentID) (*Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM student_bus_assignments WHERE id = $1`
	return scanAssignment(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, assignmentID.String()))
}

func (s *PostgresStore) FindActiveByStudent(ctx context.Context, studentID id.StudentID) (*Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM student_bus_assignments WHERE student_id = $1 AND is_active`
	return scanAssignment(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, studentID.String()))
}

func (s *PostgresStore) ListActiveByBus(ctx context.Context, busID id.BusID) ([]*Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM student_bus_assignments WHERE bus_id = $1 AND is_active ORDER BY assigned_at`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, busID.String())
	if err != nil {
		return nil, fmt.Errorf("query active assignments: %w", err)
	}
	defer rows.Close()

	var out []*Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountActiveForBus(ctx context.Context, busID id.BusID) (int, error) {
	const query = `SELECT COUNT(*) FROM student_bus_assignments WHERE bus_id = $1 AND is_active`
	var count int
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, busID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active assignments: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Update(ctx context.Context, a *Assignment) error {
	const query = `
		UPDATE student_bus_assignments
		SET bus_id = $2, transport_type = $3, arrival_bus_id = $4, return_bus_id = $5
		WHERE id = $1
	`
	result, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		a.ID.String(), a.BusID.String(), string(a.TransportType),
		nullableBus(a.ArrivalBusID), nullableBus(a.ReturnBusID),
	)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return requireAffected(result)
}

func (s *PostgresStore) Deactivate(ctx context.Context, assignmentID id.AssignmentID, at time.Time) error {
	const query = `
		UPDATE student_bus_assignments SET is_active = FALSE, deactivated_at = $2
		WHERE id = $1 AND is_active
	`
	result, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, assignmentID.String(), at)
	if err != nil {
		return fmt.Errorf("deactivate assignment: %w", err)
	}
	return requireAffected(result)
}

func nullableBus(busID *id.BusID) any {
	if busID == nil {
		return nil
	}
	return busID.String()
}

func parseNullableBus(raw sql.NullString) (*id.BusID, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(raw.String)
	if err != nil {
		return nil, fmt.Errorf("parse split bus id: %w", err)
	}
	busID := id.BusID(parsed)
	return &busID, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
