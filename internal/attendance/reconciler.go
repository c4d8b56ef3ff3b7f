package attendance

import (
	"context"
	"errors"

	id "schoolbus/pkg/domain"
	dErrors "schoolbus/pkg/domain-errors"
	"schoolbus/pkg/platform/sentinel"
)

// SyncOffline reconciles one offline-created session. When no other session
// holds the same (bus, date, type) key the session is promoted in place,
// keeping its identity. When a different session already holds the key the
// attempt is marked Failed and a conflict is returned; merging is a caller
// decision, not ours.
func (s *Service) SyncOffline(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	sess, err := s.MarkSyncing(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	counterpart, err := s.sessions.FindByKey(ctx, sess.Key())
	switch {
	case err == nil && counterpart.ID != sess.ID:
		if _, failErr := s.MarkFailed(ctx, sessionID); failErr != nil {
			s.logger.ErrorContext(ctx, "failed to mark session failed",
				"session_id", sessionID.String(), "error", failErr)
		}
		return nil, dErrors.New(dErrors.CodeConflict, "a conflicting session exists for this bus, date and type")
	case err != nil && !errors.Is(err, sentinel.ErrNotFound):
		if _, failErr := s.MarkFailed(ctx, sessionID); failErr != nil {
			s.logger.ErrorContext(ctx, "failed to mark session failed",
				"session_id", sessionID.String(), "error", failErr)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check session key")
	}

	return s.MarkSynced(ctx, sessionID)
}

// SyncAllPending walks the pending and failed offline sessions and attempts
// to promote each. Per-session conflicts are logged and skipped so one bad
// session does not starve the rest.
func (s *Service) SyncAllPending(ctx context.Context, limit int) (synced int, err error) {
	pending, err := s.sessions.ListPendingOffline(ctx, limit)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending sessions")
	}
	for i := range pending {
		if _, err := s.SyncOffline(ctx, pending[i].ID); err != nil {
			s.logger.WarnContext(ctx, "offline session sync failed",
				"session_id", pending[i].ID.String(), "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}
