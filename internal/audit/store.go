// Package audit records admin actions in PostgreSQL.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/common/logger"
	"crew-portal/internal/listing"
	"crew-portal/internal/services"
)

const schema = `CREATE TABLE IF NOT EXISTS portal_audit_log (
	id          UUID PRIMARY KEY,
	actor_id    TEXT NOT NULL,
	actor_name  TEXT NOT NULL,
	action      TEXT NOT NULL,
	resource    TEXT NOT NULL,
	resource_id TEXT NOT NULL,
	details     JSONB NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS portal_audit_log_created_at_idx ON portal_audit_log (created_at DESC)`

// Entry is one audited admin action.
type Entry struct {
	ID         string
	ActorID    string
	ActorName  string
	Action     string
	Resource   string
	ResourceID string
	Details    map[string]string
	CreatedAt  time.Time
}

func (e Entry) SearchText() string {
	return strings.Join([]string{e.ActorName, e.Action, e.Resource, e.ResourceID}, " ")
}

func (e Entry) FilterStatus() string { return e.Action }

func (e Entry) SortKey(string) string { return e.CreatedAt.UTC().Format(time.RFC3339Nano) }

// Store reads and writes the audit table. It implements services.Observer.
type Store struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{db: db, logger: logger.Component(log, "audit"), now: time.Now}
}

// EnsureSchema creates the audit table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Record inserts e, assigning an id and timestamp when unset.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	details, err := json.Marshal(e.Details)
	if err != nil {
		return apperrors.NewAuditWriteFailedError(err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO portal_audit_log (id, actor_id, actor_name, action, resource, resource_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.ActorID, e.ActorName, e.Action, e.Resource, e.ResourceID, string(details), e.CreatedAt,
	)
	if err != nil {
		return apperrors.NewAuditWriteFailedError(err)
	}
	return nil
}

// Observe records a service event. Failures are logged and never surface to
// the admin performing the action.
func (s *Store) Observe(ctx context.Context, ev services.Event) {
	details := map[string]string{}
	for k, v := range ev.Details {
		details[k] = v
	}
	if ev.Status != "" {
		details["status"] = ev.Status
	}
	if ev.Remarks != "" {
		details["remarks"] = ev.Remarks
	}
	if ev.Crew != nil && !ev.Crew.ID.Empty() {
		details["crewId"] = string(ev.Crew.ID)
	}

	err := s.Record(ctx, Entry{
		ActorID:    string(ev.Actor.ID),
		ActorName:  ev.Actor.Name,
		Action:     ev.Action,
		Resource:   ev.Resource,
		ResourceID: string(ev.ResourceID),
		Details:    details,
	})
	if err != nil {
		s.logger.Error("failed to write audit entry", map[string]interface{}{
			"action":     ev.Action,
			"resource":   ev.Resource,
			"resourceId": string(ev.ResourceID),
			"error":      err,
		})
	}
}

// List returns a page of entries, newest first, optionally filtered by a
// search term and an action.
func (s *Store) List(ctx context.Context, q listing.Query) (listing.Page[Entry], error) {
	where, args := filter(q)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM portal_audit_log`+where, args...).Scan(&total); err != nil {
		return listing.Page[Entry]{}, fmt.Errorf("count audit entries: %w", err)
	}

	q, offset := listing.Bounds(total, q)
	args = append(args, q.PageSize, offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, actor_id, actor_name, action, resource, resource_id, details, created_at FROM portal_audit_log`+where+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return listing.Page[Entry]{}, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var details []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorName, &e.Action, &e.Resource, &e.ResourceID, &details, &e.CreatedAt); err != nil {
			return listing.Page[Entry]{}, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &e.Details)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return listing.Page[Entry]{}, fmt.Errorf("iterate audit entries: %w", err)
	}

	return listing.NewPage(entries, total, q), nil
}

func filter(q listing.Query) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(actor_name ILIKE $%d OR resource ILIKE $%d OR resource_id ILIKE $%d)", n, n, n))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		clauses = append(clauses, fmt.Sprintf("action = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
