package attendance

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

// PostgresSessionStore persists sessions. The unique index on
// (bus_id, attendance_date, attendance_type) enforces the composite key
// under concurrent offline-then-online creation.
type PostgresSessionStore struct {
	db *sql.DB
}

func NewPostgresSessionStore(db *sql.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (s *PostgresSessionStore) Create(ctx context.Context, sess *Session) error {
	const query = `
		INSERT INTO attendance_sessions
			(id, supervisor_id, bus_id, period_id, location_id, attendance_date, attendance_type,
			 unregistered_count, sync_status, created_offline, created_at, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	var locationID any
	if sess.LocationID != nil {
		locationID = sess.LocationID.String()
	}
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		sess.ID.String(), sess.SupervisorID, sess.BusID.String(), sess.PeriodID.String(), locationID,
		DateOnly(sess.AttendanceDate), string(sess.AttendanceType),
		sess.UnregisteredCount, string(sess.SyncStatus), sess.CreatedOffline, sess.CreatedAt, sess.SyncedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

const sessionColumns = `id, supervisor_id, bus_id, period_id, location_id, attendance_date, attendance_type, unregistered_count, sync_status, created_offline, created_at, synced_at`

type sessionScanner interface {
	Scan(dest ...any) error
}

func scanSession(row sessionScanner) (*Session, error) {
	var (
		sess                   Session
		rawID, rawBus, rawPer  string
		rawLocation            sql.NullString
		attendanceType, status string
	)
	err := row.Scan(&rawID, &sess.SupervisorID, &rawBus, &rawPer, &rawLocation,
		&sess.AttendanceDate, &attendanceType, &sess.UnregisteredCount,
		&status, &sess.CreatedOffline, &sess.CreatedAt, &sess.SyncedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	sessionID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	busID, err := uuid.Parse(rawBus)
	if err != nil {
		return nil, fmt.Errorf("parse bus id: %w", err)
	}
	periodID, err := uuid.Parse(rawPer)
	if err != nil {
		return nil, fmt.Errorf("parse period id: %w", err)
	}
	sess.ID = id.SessionID(sessionID)
	sess.BusID = id.BusID(busID)
	sess.PeriodID = id.PeriodID(periodID)
	if rawLocation.Valid && rawLocation.String != "" {
		parsed, err := uuid.Parse(rawLocation.String)
		if err != nil {
			return nil, fmt.Errorf("parse location id: %w", err)
		}
		locationID := id.LocationID(parsed)
		sess.LocationID = &locationID
	}
	sess.AttendanceType = AttendanceType(attendanceType)
	sess.SyncStatus = SyncStatus(status)
	return &sess, nil
}

func (s *PostgresSessionStore) FindByID(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions WHERE id = $1`
	return scanSession(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, sessionID.String()))
}

func (s *PostgresSessionStore) FindByKey(ctx context.Context, key Key) (*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions WHERE bus_id = $1 AND attendance_date = $2 AND attendance_type = $3`
	return scanSession(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query,
		key.BusID.String(), DateOnly(key.Date), string(key.Type)))
}

func (s *PostgresSessionStore) UpdateSyncStatus(ctx context.Context, sessionID id.SessionID, status SyncStatus, syncedAt *time.Time) error {
	const query = `UPDATE attendance_sessions SET sync_status = $2, synced_at = $3 WHERE id = $1`
	result, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, sessionID.String(), string(status), syncedAt)
	if err != nil {
		return fmt.Errorf("update session sync status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresSessionStore) ListPendingOffline(ctx context.Context, limit int) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions
		WHERE created_offline AND sync_status IN ('pending', 'failed')
		ORDER BY created_at LIMIT $1`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending sessions: %w", err)
	}
	return out, nil
}

// PostgresRecordStore is the append log of per-student marks. Rows cascade
// on session deletion.
type PostgresRecordStore struct {
	db *sql.DB
}

func NewPostgresRecordStore(db *sql.DB) *PostgresRecordStore {
	return &PostgresRecordStore{db: db}
}

func (s *PostgresRecordStore) Append(ctx context.Context, r *Record) error {
	const query = `
		INSERT INTO attendance_records (id, session_id, student_id, status, notes, recorded_at, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		r.ID.String(), r.SessionID.String(), r.StudentID.String(),
		string(r.Status), r.Notes, r.RecordedAt, r.RecordedBy,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *PostgresRecordStore) ListBySession(ctx context.Context, sessionID id.SessionID) ([]Record, error) {
	const query = `
		SELECT id, session_id, student_id, status, notes, recorded_at, recorded_by
		FROM attendance_records
		WHERE session_id = $1
		ORDER BY recorded_at
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r                             Record
			rawID, rawSession, rawStudent string
			status                        string
		)
		if err := rows.Scan(&rawID, &rawSession, &rawStudent, &status,
			&r.Notes, &r.RecordedAt, &r.RecordedBy); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		recordID, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse record id: %w", err)
		}
		sessionUUID, err := uuid.Parse(rawSession)
		if err != nil {
			return nil, fmt.Errorf("parse session id: %w", err)
		}
		studentUUID, err := uuid.Parse(rawStudent)
		if err != nil {
			return nil, fmt.Errorf("parse student id: %w", err)
		}
		r.ID = id.RecordID(recordID)
		r.SessionID = id.SessionID(sessionUUID)
		r.StudentID = id.StudentID(studentUUID)
		r.Status = RecordStatus(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}
