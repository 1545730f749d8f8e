package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	id "dashgate/pkg/domain"
	audit "dashgate/pkg/platform/audit"

	"github.com/google/uuid"
)

const selectColumns = `
	SELECT action, principal_id, session_id, subject, outcome, reason,
		   request_id, client_ip, user_agent, occurred_at
	FROM audit_events
`

// Store implements audit.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an audit event into the audit_events table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, action, principal_id, session_id, subject, outcome,
			reason, request_id, client_ip, user_agent, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		event.Action,
		event.PrincipalID.String(),
		event.SessionID.String(),
		event.Subject,
		event.Outcome,
		event.Reason,
		event.RequestID,
		event.ClientIP,
		event.UserAgent,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByPrincipal returns a principal's events, newest first.
func (s *Store) ListByPrincipal(ctx context.Context, principalID id.PrincipalID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE principal_id = $1
		ORDER BY occurred_at DESC
	`, principalID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		ORDER BY occurred_at DESC
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// clampLimit keeps the LIMIT parameter inside int4 range.
func clampLimit(limit int) int {
	if limit < 0 {
		return 0
	}
	if limit > math.MaxInt32 {
		return math.MaxInt32
	}
	return limit
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			event       audit.Event
			principalID string
			sessionID   string
		)

		err := rows.Scan(
			&event.Action,
			&principalID,
			&sessionID,
			&event.Subject,
			&event.Outcome,
			&event.Reason,
			&event.RequestID,
			&event.ClientIP,
			&event.UserAgent,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.PrincipalID = id.PrincipalID(principalID)
		event.SessionID = id.SessionID(sessionID)

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	return events, nil
}
