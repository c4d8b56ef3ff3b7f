// Package leave owns leave requests and their approve/cancel lifecycle.
// A leave is created pending, may be approved, and may be cancelled at any
// point; cancellation is terminal.
package leave

import (
	"time"

	id "schoolbus/pkg/domain"
)

// Leave is one leave-of-absence request over an inclusive [StartDate, EndDate]
// date window. Active-ness is never persisted; compute it with IsActiveAt so a
// leave naturally expires across day boundaries.
type Leave struct {
	ID            id.LeaveID
	StudentID     id.StudentID
	StartDate     time.Time
	EndDate       time.Time
	Reason        string
	AttachmentURL string
	CreatedAt     time.Time
	CreatedBy     string
	IsApproved    bool
	ApprovedAt    *time.Time
	ApprovedBy    string
	IsCancelled   bool
	CancelledAt   *time.Time
	CancelledBy   string
	CancelReason  string
}

// IsActiveAt reports whether the leave governs the student at the given
// instant: approved, not cancelled, and the instant's calendar day falls
// inside the window.
func (l *Leave) IsActiveAt(now time.Time) bool {
	if !l.IsApproved || l.IsCancelled {
		return false
	}
	day := dateOnly(now)
	return !day.Before(dateOnly(l.StartDate)) && !day.After(dateOnly(l.EndDate))
}

// Overlaps reports whether two inclusive date windows intersect.
func (l *Leave) Overlaps(start, end time.Time) bool {
	return !dateOnly(l.EndDate).Before(dateOnly(start)) && !dateOnly(l.StartDate).After(dateOnly(end))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
