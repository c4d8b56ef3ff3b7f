// Package attendance owns the offline-capable attendance session timeline.
// A session is keyed by (bus, date, type); only one canonical session may
// exist per key, whether it was created online or offline.
package attendance

import (
	"time"

	id "schoolbus/pkg/domain"
)

// AttendanceType distinguishes the morning pickup run from the afternoon
// return run.
type AttendanceType string

const (
	TypeArrival AttendanceType = "arrival"
	TypeReturn  AttendanceType = "return"
)

func (t AttendanceType) Valid() bool {
	return t == TypeArrival || t == TypeReturn
}

// SyncStatus tracks an offline-created session's journey to the server:
// Pending -> Syncing -> Synced, with Failed -> Syncing retries. Online
// sessions are born Synced.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSyncing SyncStatus = "syncing"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// Key is the composite business key a session is unique on.
type Key struct {
	BusID id.BusID
	Date  time.Time
	Type  AttendanceType
}

// Session is one attendance-taking run. AttendanceDate is date-only; callers
// hand in any instant and the store persists the calendar day.
type Session struct {
	ID                id.SessionID
	SupervisorID      string
	BusID             id.BusID
	PeriodID          id.PeriodID
	LocationID        *id.LocationID
	AttendanceDate    time.Time
	AttendanceType    AttendanceType
	UnregisteredCount int
	SyncStatus        SyncStatus
	CreatedOffline    bool
	CreatedAt         time.Time
	SyncedAt          *time.Time
}

// Key returns the session's composite uniqueness key.
func (s *Session) Key() Key {
	return Key{BusID: s.BusID, Date: DateOnly(s.AttendanceDate), Type: s.AttendanceType}
}

// CanMarkSyncing reports whether a sync attempt may begin. Synced is
// terminal; every other status may (re)enter Syncing.
func (s *Session) CanMarkSyncing() bool {
	return s.SyncStatus != SyncSynced
}

// Record is one per-student attendance mark inside a session. The record
// list is an append log: the same student may appear more than once.
type Record struct {
	ID         id.RecordID
	SessionID  id.SessionID
	StudentID  id.StudentID
	Status     RecordStatus
	Notes      string
	RecordedAt time.Time
	RecordedBy string
}

// RecordStatus is the per-student outcome within a session.
type RecordStatus string

const (
	RecordPresent RecordStatus = "present"
	RecordAbsent  RecordStatus = "absent"
	RecordLate    RecordStatus = "late"
	RecordExcused RecordStatus = "excused"
)

func (s RecordStatus) Valid() bool {
	switch s {
	case RecordPresent, RecordAbsent, RecordLate, RecordExcused:
		return true
	}
	return false
}

// DateOnly truncates an instant to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
