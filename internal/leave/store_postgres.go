package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "schoolbus/pkg/domain"
	"schoolbus/pkg/platform/sentinel"
	txcontext "schoolbus/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const leaveColumns = `id, student_id, start_date, end_date, reason, attachment_url, created_at, created_by, is_approved, approved_at, approved_by, is_cancelled, cancelled_at, cancelled_by, cancel_reason`

func (s *PostgresStore) Create(ctx context.Context, l *Leave) error {
	const query = `
		INSERT INTO student_leaves
			(id, student_id, start_date, end_date, reason, attachment_url, created_at, created_by, is_approved, is_cancelled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		l.ID.String(), l.StudentID.String(), l.StartDate, l.EndDate,
		l.Reason, nullableString(l.AttachmentURL), l.CreatedAt, l.CreatedBy,
		l.IsApproved, l.IsCancelled,
	)
	if err != nil {
		return fmt.Errorf("insert leave: %w", err)
	}
	return nil
}

type leaveScanner interface {
	Scan(dest ...any) error
}

func scanLeave(row leaveScanner) (*Leave, error) {
	var (
		l                         Leave
		rawID, rawStudent         string
		attachment, approvedBy    sql.NullString
		cancelledBy, cancelReason sql.NullString
	)
	err := row.Scan(&rawID, &rawStudent, &l.StartDate, &l.EndDate, &l.Reason,
		&attachment, &l.CreatedAt, &l.CreatedBy,
		&l.IsApproved, &l.ApprovedAt, &approvedBy,
		&l.IsCancelled, &l.CancelledAt, &cancelledBy, &cancelReason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan leave: %w", err)
	}

	leaveID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse leave id: %w", err)
	}
	studentID, err := uuid.Parse(rawStudent)
	if err != nil {
		return nil, fmt.Errorf("parse student id: %w", err)
	}
	l.ID = id.LeaveID(leaveID)
	l.StudentID = id.StudentID(studentID)
	l.AttachmentURL = attachment.String
	l.ApprovedBy = approvedBy.String
	l.CancelledBy = cancelledBy.String
	l.CancelReason = cancelReason.String
	return &l, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, leaveID id.LeaveID) (*Leave, error) {
	query := `SELECT ` + leaveColumns + ` FROM student_leaves WHERE id = $1`
	return scanLeave(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, leaveID.String()))
}

func (s *PostgresStore) ListNonCancelledByStudent(ctx context.Context, studentID id.StudentID) ([]Leave, error) {
	query := `SELECT ` + leaveColumns + ` FROM student_leaves WHERE student_id = $1 AND NOT is_cancelled ORDER BY start_date`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, studentID.String())
	if err != nil {
		return nil, fmt.Errorf("list leaves: %w", err)
	}
	defer rows.Close()

	var out []Leave
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaves: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, l *Leave) error {
	const query = `
		UPDATE student_leaves
		SET is_approved = $2, approved_at = $3, approved_by = $4,
		    is_cancelled = $5, cancelled_at = $6, cancelled_by = $7, cancel_reason = $8
		WHERE id = $1
	`
	result, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		l.ID.String(), l.IsApproved, l.ApprovedAt, nullableString(l.ApprovedBy),
		l.IsCancelled, l.CancelledAt, nullableString(l.CancelledBy), nullableString(l.CancelReason),
	)
	if err != nil {
		return fmt.Errorf("update leave: %w", err)
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

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
