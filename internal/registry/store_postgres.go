package registry

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

// uniqueViolation is the postgres error code for unique-index conflicts.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// PostgresStudentStore persists students. It participates in a unit of work
// through the transaction carried by context.
type PostgresStudentStore struct {
	db *sql.DB
}

func NewPostgresStudentStore(db *sql.DB) *PostgresStudentStore {
	return &PostgresStudentStore{db: db}
}

func (s *PostgresStudentStore) Create(ctx context.Context, student *Student) error {
	const query = `
		INSERT INTO students (id, external_student_id, external_user_id, district_id, status, lifecycle, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		student.ID.String(), student.ExternalStudentID, student.ExternalUserID,
		student.DistrictID.String(), string(student.Status), string(student.Lifecycle),
		student.CreatedAt, student.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

const studentColumns = `id, external_student_id, external_user_id, district_id, status, lifecycle, created_at, updated_at, deleted_at`

func scanStudent(row *sql.Row) (*Student, error) {
	var (
		student            Student
		rawID, rawDistrict string
		status, lifecycle  string
	)
	err := row.Scan(&rawID, &student.ExternalStudentID, &student.ExternalUserID,
		&rawDistrict, &status, &lifecycle,
		&student.CreatedAt, &student.UpdatedAt, &student.DeletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan student: %w", err)
	}
	parsedID, err := id.ParseStudentID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse student id: %w", err)
	}
	parsedDistrict, err := id.ParseDistrictID(rawDistrict)
	if err != nil {
		return nil, fmt.Errorf("parse district id: %w", err)
	}
	student.ID = parsedID
	student.DistrictID = parsedDistrict
	student.Status = StudentStatus(status)
	student.Lifecycle = Lifecycle(lifecycle)
	return &student, nil
}

func (s *PostgresStudentStore) FindByID(ctx context.Context, studentID id.StudentID) (*Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1 AND lifecycle = 'active'`
	return scanStudent(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, studentID.String()))
}

func (s *PostgresStudentStore) FindByExternalID(ctx context.Context, externalStudentID string) (*Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE external_student_id = $1 AND lifecycle = 'active'`
	return scanStudent(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, externalStudentID))
}

func (s *PostgresStudentStore) UpdateStatus(ctx context.Context, studentID id.StudentID, status StudentStatus, updatedAt time.Time) error {
	const query = `UPDATE students SET status = $2, updated_at = $3 WHERE id = $1 AND lifecycle = 'active'`
	result, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, studentID.String(), string(status), updatedAt)
	if err != nil {
		return fmt.Errorf("update student status: %w", err)
	}
	return requireAffected(result)
}

func (s *PostgresStudentStore) SoftDelete(ctx context.Context, studentID id.StudentID, deletedAt time.Time) error {
	const query = `
		UPDATE students SET lifecycle = 'deleted', deleted_at = $2, updated_at = $2
		WHERE id = $1 AND lifecycle = 'active'
	`
	result, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, studentID.String(), deletedAt)
	if err != nil {
		return fmt.Errorf("soft delete student: %w", err)
	}
	return requireAffected(result)
}

// PostgresBusStore persists buses.
type PostgresBusStore struct {
	db *sql.DB
}

func NewPostgresBusStore(db *sql.DB) *PostgresBusStore {
	return &PostgresBusStore{db: db}
}

func (s *PostgresBusStore) Create(ctx context.Context, bus *Bus) error {
	const query = `
		INSERT INTO buses (id, code, capacity, active, route_id, lifecycle, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var routeID any
	if !bus.RouteID.IsNil() {
		routeID = bus.RouteID.String()
	}
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		bus.ID.String(), bus.Code, bus.Capacity, bus.Active,
		routeID, string(bus.Lifecycle), bus.CreatedAt, bus.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert bus: %w", err)
	}
	return nil
}

func (s *PostgresBusStore) FindByID(ctx context.Context, busID id.BusID) (*Bus, error) {
	const query = `
		SELECT id, code, capacity, active, route_id, lifecycle, created_at, updated_at, deleted_at
		FROM buses WHERE id = $1 AND lifecycle = 'active'
	`
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, busID.String())

	var (
		bus       Bus
		rawID     string
		rawRoute  sql.NullString
		lifecycle string
	)
	err := row.Scan(&rawID, &bus.Code, &bus.Capacity, &bus.Active, &rawRoute,
		&lifecycle, &bus.CreatedAt, &bus.UpdatedAt, &bus.DeletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan bus: %w", err)
	}
	parsedID, err := id.ParseBusID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse bus id: %w", err)
	}
	bus.ID = parsedID
	if rawRoute.Valid && rawRoute.String != "" {
		parsedRoute, err := uuid.Parse(rawRoute.String)
		if err != nil {
			return nil, fmt.Errorf("parse route id: %w", err)
		}
		bus.RouteID = id.RouteID(parsedRoute)
	}
	bus.Lifecycle = Lifecycle(lifecycle)
	return &bus, nil
}

func (s *PostgresBusStore) UpdateCapacity(ctx context.Context, busID id.BusID, capacity int, updatedAt time.Time) error {
	const query = `UPDATE buses SET capacity = $2, updated_at = $3 WHERE id = $1 AND lifecycle = 'active'`
	result, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, busID.String(), capacity, updatedAt)
	if err != nil {
		return fmt.Errorf("update bus capacity: %w", err)
	}
	return requireAffected(result)
}

func (s *PostgresBusStore) SetActive(ctx context.Context, busID id.BusID, active bool, updatedAt time.Time) error {
	const query = `UPDATE buses SET active = $2, updated_at = $3 WHERE id = $1 AND lifecycle = 'active'`
	result, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, busID.String(), active, updatedAt)
	if err != nil {
		return fmt.Errorf("set bus active: %w", err)
	}
	return requireAffected(result)
}

func (s *PostgresBusStore) SoftDelete(ctx context.Context, busID id.BusID, deletedAt time.Time) error {
	const query = `
		UPDATE buses SET lifecycle = 'deleted', deleted_at = $2, updated_at = $2
		WHERE id = $1 AND lifecycle = 'active'
	`
	result, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, busID.String(), deletedAt)
	if err != nil {
		return fmt.Errorf("soft delete bus: %w", err)
	}
	return requireAffected(result)
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
